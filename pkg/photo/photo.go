// Package photo extracts capture metadata from images and produces thumbnails.
package photo

import (
	"fmt"
	"os"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
)

var exifDate = "2006:01:02 15:04:05"

// Date tag names, in the order they are trusted.
const (
	DateTimeOriginal  = "DateTimeOriginal"
	DateTimeDigitized = "DateTimeDigitized"
	DateTime          = "DateTime"

	// FileModTime marks a timestamp taken from the filesystem.
	FileModTime = "FileModTime"
)

var dateFields = []string{DateTimeOriginal, DateTimeDigitized, DateTime}

// Tags is the subset of embedded image metadata the extractor looks at.
type Tags struct {
	// Dates holds raw date strings keyed by DateTimeOriginal, DateTimeDigitized and DateTime.
	Dates map[string]string

	// Latitude and Longitude are degrees/minutes/seconds triplets.
	Latitude     []float64
	Longitude    []float64
	LatitudeRef  string
	LongitudeRef string
}

// TagReader reads embedded metadata from an image file.
type TagReader interface {
	ReadTags(path string) (*Tags, error)
}

// CaptureMetadata describes when and where an image was taken.
type CaptureMetadata struct {
	Taken     *time.Time
	TakenFrom string

	// Coordinates is nil unless both latitude and longitude were usable.
	Coordinates *model.Point

	LocationDescription string
}

// Extractor produces CaptureMetadata from image files.
type Extractor struct {
	tags TagReader
}

// NewExtractor returns an extractor reading tags with r.
func NewExtractor(r TagReader) *Extractor {
	return &Extractor{tags: r}
}

// Extract reads capture metadata from path. Missing or corrupt metadata is
// not an error; only an unreadable file is.
func (e *Extractor) Extract(path string) (*CaptureMetadata, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	t, err := e.tags.ReadTags(path)
	if err != nil {
		klog.V(1).Infof("no embedded metadata for %s: %v", path, err)
		t = &Tags{}
	}

	m := &CaptureMetadata{Coordinates: Coordinates(t)}
	if m.Coordinates == nil {
		klog.V(1).Infof("no usable GPS position in %s", path)
	}

	for _, f := range dateFields {
		ds := strings.TrimSpace(t.Dates[f])
		if ds == "" {
			continue
		}
		ts, err := time.Parse(exifDate, ds)
		if err != nil {
			klog.Warningf("unable to parse %s %q for %s: %v", f, ds, path, err)
			continue
		}
		m.Taken = &ts
		m.TakenFrom = f
		break
	}

	if m.Taken == nil {
		mt := fi.ModTime()
		m.Taken = &mt
		m.TakenFrom = FileModTime
	}

	klog.V(1).Infof("%s: taken %s (%s), position %v", path, m.Taken, m.TakenFrom, m.Coordinates)
	return m, nil
}
