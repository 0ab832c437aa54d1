// Package model holds the records shared by the importer, the renderer and the store.
package model

import (
	"fmt"
	"time"
)

// Point is a WGS84 latitude/longitude pair in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Latitude, p.Longitude)
}

// Place is a deduplicated geographic point that photos and entries hang off.
type Place struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	City        string    `db:"city"`
	Country     string    `db:"country"`
	Latitude    float64   `db:"latitude"`
	Longitude   float64   `db:"longitude"`
	Address     string    `db:"address"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Point returns the place location.
func (p *Place) Point() Point {
	return Point{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Photo is an imported image and the metadata found for it.
type Photo struct {
	ID             int64      `db:"id"`
	UUID           string     `db:"uuid"`
	PlaceID        *int64     `db:"place_id"`
	EntryID        *int64     `db:"entry_id"`
	SourcePath     string     `db:"source_path"`
	ImagePath      string     `db:"image_path"`
	ThumbnailPath  string     `db:"thumbnail_path"`
	Author         string     `db:"author"`
	TakenAt        *time.Time `db:"taken_at"`
	Description    string     `db:"description"`
	Keywords       string     `db:"keywords"`
	CaptureAddress string     `db:"capture_address"`
	EntryOrder     int        `db:"entry_order"`
	Latitude       *float64   `db:"latitude"`
	Longitude      *float64   `db:"longitude"`
}

// Entry is a blog entry. ContentHTML and Excerpt are derived from Content.
type Entry struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Slug        string    `db:"slug"`
	PlaceID     *int64    `db:"place_id"`
	Author      string    `db:"author"`
	Content     string    `db:"content"`
	ContentHTML string    `db:"content_html"`
	Excerpt     string    `db:"excerpt"`
	PublishedAt time.Time `db:"published_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
