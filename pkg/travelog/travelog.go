// Package travelog imports photos into a travel blog and publishes entries.
package travelog

import (
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
	"github.com/mauriciobarrev/otravezlunes/pkg/photo"
)

// PhotosDirName is where originals are copied under the media root.
const PhotosDirName = "photos"

// Config holds configuration for imports and backfills.
type Config struct {
	// MediaDir is the media root. When set, originals are copied into
	// <MediaDir>/photos and stored paths are relative to it.
	MediaDir string
	// Author is recorded on imported photos.
	Author string
	// EntryID attaches imported photos to an entry, in discovery order.
	EntryID *int64
	// Place is given to photos whose position yields no place.
	Place *model.Place
	// NameDescriptions describes photos by their file name instead of their place.
	NameDescriptions bool
	// Overwrite re-imports sources that are already stored.
	Overwrite bool
	// RequirePlace drops photos that could not be given a place.
	RequirePlace bool
	// Workers bounds concurrent imports.
	Workers    int
	Extensions []string
	Thumb      photo.ThumbOpts
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers:    runtime.NumCPU(),
		Extensions: []string{".jpg", ".jpeg", ".png", ".tif", ".tiff", ".webp"},
		Thumb:      photo.DefaultThumbOpts,
	}
}

// Accepts reports whether path has one of the configured extensions.
func (c *Config) Accepts(path string) bool {
	return slices.Contains(c.Extensions, strings.ToLower(filepath.Ext(path)))
}

// abs resolves a stored path against the media root.
func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) || c.MediaDir == "" {
		return p
	}
	return filepath.Join(c.MediaDir, p)
}

// rel makes p relative to the media root when it lies inside it.
func (c *Config) rel(p string) string {
	if c.MediaDir == "" {
		return p
	}
	r, err := filepath.Rel(c.MediaDir, p)
	if err != nil || strings.HasPrefix(r, "..") {
		return p
	}
	return filepath.ToSlash(r)
}
