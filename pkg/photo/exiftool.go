package photo

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

// ExiftoolReader reads tags through a long-running exiftool process, which
// understands far more formats than GoexifReader (HEIC, RAW, PNG eXIf).
type ExiftoolReader struct {
	mu sync.Mutex
	et *exiftool.Exiftool
}

// exiftool names for the date fields.
var exiftoolDates = map[string]string{
	DateTimeOriginal:  "DateTimeOriginal",
	DateTimeDigitized: "CreateDate",
	DateTime:          "ModifyDate",
}

var (
	dmsNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)
	dmsRef    = regexp.MustCompile(`([NSEWnsew])\s*$`)
)

// NewExiftoolReader starts exiftool. Call Close when done.
func NewExiftoolReader() (*ExiftoolReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExiftoolReader{et: et}, nil
}

// Close stops the exiftool process.
func (r *ExiftoolReader) Close() error {
	return r.et.Close()
}

// ReadTags implements TagReader.
func (r *ExiftoolReader) ReadTags(path string) (*Tags, error) {
	r.mu.Lock()
	fis := r.et.ExtractMetadata(path)
	r.mu.Unlock()

	if len(fis) == 0 {
		return nil, fmt.Errorf("no metadata returned for %q", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return nil, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v\n", k, v)
	}

	t := &Tags{Dates: map[string]string{}}
	for name, field := range exiftoolDates {
		ds, err := fi.GetString(field)
		if err != nil {
			klog.V(2).Infof("unable to get %s for %s: %v", field, path, err)
			continue
		}
		t.Dates[name] = ds
	}

	var latRef, lonRef string
	if s, err := fi.GetString("GPSLatitude"); err == nil {
		t.Latitude, latRef = parseDMS(s)
	}
	if s, err := fi.GetString("GPSLongitude"); err == nil {
		t.Longitude, lonRef = parseDMS(s)
	}

	t.LatitudeRef = latRef
	if s, err := fi.GetString("GPSLatitudeRef"); err == nil && s != "" {
		t.LatitudeRef = s
	}
	t.LongitudeRef = lonRef
	if s, err := fi.GetString("GPSLongitudeRef"); err == nil && s != "" {
		t.LongitudeRef = s
	}

	return t, nil
}

// parseDMS parses exiftool's `40 deg 41' 21.12" N` rendering, or a bare
// decimal degree value, into a triplet and the trailing reference letter.
func parseDMS(s string) ([]float64, string) {
	ref := ""
	if m := dmsRef.FindStringSubmatch(s); m != nil {
		ref = m[1]
	}

	nums := dmsNumber.FindAllString(s, -1)
	vs := make([]float64, 0, 3)
	for _, n := range nums {
		v, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, ref
		}
		vs = append(vs, v)
	}

	switch len(vs) {
	case 1:
		return []float64{vs[0], 0, 0}, ref
	case 3:
		return vs, ref
	default:
		return nil, ref
	}
}
