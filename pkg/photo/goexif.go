package photo

import (
	"fmt"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// GoexifReader reads EXIF tags in-process. It handles JPEG and TIFF files.
type GoexifReader struct{}

var goexifDates = map[string]exif.FieldName{
	DateTimeOriginal:  exif.DateTimeOriginal,
	DateTimeDigitized: exif.DateTimeDigitized,
	DateTime:          exif.DateTime,
}

// ReadTags implements TagReader.
func (GoexifReader) ReadTags(path string) (*Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	t := &Tags{Dates: map[string]string{}}
	for name, field := range goexifDates {
		if s, ok := stringTag(x, field); ok {
			t.Dates[name] = s
		}
	}

	t.Latitude = ratTriplet(x, exif.GPSLatitude)
	t.Longitude = ratTriplet(x, exif.GPSLongitude)
	t.LatitudeRef, _ = stringTag(x, exif.GPSLatitudeRef)
	t.LongitudeRef, _ = stringTag(x, exif.GPSLongitudeRef)
	return t, nil
}

func stringTag(x *exif.Exif, f exif.FieldName) (string, bool) {
	tag, err := x.Get(f)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	s = strings.TrimRight(s, "\x00 ")
	return s, s != ""
}

// ratTriplet returns the three rationals of a GPS tag, or nil when malformed.
func ratTriplet(x *exif.Exif, f exif.FieldName) []float64 {
	tag, err := x.Get(f)
	if err != nil || tag.Count < 3 {
		return nil
	}

	vs := make([]float64, 0, 3)
	for i := range 3 {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return nil
		}
		vs = append(vs, float64(num)/float64(den))
	}
	return vs
}
