package travelog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
	"github.com/mauriciobarrev/otravezlunes/pkg/store"
)

var (
	// ErrNoEntry is returned when neither an entry id nor a title is given.
	ErrNoEntry = errors.New("no entry id or title")
	// ErrNoCoordinates is returned when a new place has no coordinates.
	ErrNoCoordinates = errors.New("place needs coordinates")
)

// EntryTarget selects the entry imported photos belong to.
type EntryTarget struct {
	ID    int64
	Title string
	// Create makes a new entry when none has Title.
	Create bool
	// Place names the new entry's place; it defaults to Title.
	Place string
	// Coords is "lat,lon", used when Place does not exist yet.
	Coords      string
	Author      string
	Description string
}

// PlaceFinder looks places up by name and creates them.
type PlaceFinder interface {
	PlaceByName(ctx context.Context, name string) (*model.Place, error)
	CreatePlace(ctx context.Context, pl *model.Place) error
}

// EntryFinder is the storage FindEntry needs.
type EntryFinder interface {
	EntryStore
	PlaceFinder
	Entry(ctx context.Context, id int64) (*model.Entry, error)
	EntryByTitle(ctx context.Context, title string) (*model.Entry, error)
}

// FindEntry returns the entry with t.ID, or the one titled t.Title. With
// t.Create, a missing titled entry is published with its place.
func FindEntry(ctx context.Context, s EntryFinder, t EntryTarget) (*model.Entry, error) {
	if t.ID > 0 {
		return s.Entry(ctx, t.ID)
	}
	if t.Title == "" {
		return nil, ErrNoEntry
	}

	e, err := s.EntryByTitle(ctx, t.Title)
	if err == nil || !t.Create || !errors.Is(err, store.ErrNotFound) {
		return e, err
	}

	pl, err := FindPlace(ctx, s, cmp.Or(t.Place, t.Title), t.Coords)
	if err != nil {
		return nil, err
	}

	e = &model.Entry{
		Title:   t.Title,
		Author:  t.Author,
		PlaceID: &pl.ID,
		Content: cmp.Or(t.Description, "# "+t.Title+"\n"),
	}
	if err := Publish(ctx, s, e); err != nil {
		return nil, fmt.Errorf("create entry %q: %w", t.Title, err)
	}
	klog.Infof("created entry %d %q at place %q", e.ID, e.Title, pl.Name)
	return e, nil
}

// FindPlace returns the place called name, creating it at coords if needed.
func FindPlace(ctx context.Context, s PlaceFinder, name string, coords string) (*model.Place, error) {
	pl, err := s.PlaceByName(ctx, name)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return pl, err
	}
	if coords == "" {
		return nil, fmt.Errorf("place %q: %w", name, ErrNoCoordinates)
	}

	p, err := ParseCoords(coords)
	if err != nil {
		return nil, err
	}
	pl = &model.Place{Name: name, City: name, Latitude: p.Latitude, Longitude: p.Longitude}
	if err := s.CreatePlace(ctx, pl); err != nil {
		return nil, err
	}
	klog.Infof("created place %d %q at %s", pl.ID, pl.Name, p)
	return pl, nil
}

// ParseCoords parses "lat,lon" in decimal degrees.
func ParseCoords(s string) (model.Point, error) {
	la, lo, ok := strings.Cut(s, ",")
	if !ok {
		return model.Point{}, fmt.Errorf("coordinates %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(la), 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("latitude %q: %w", la, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return model.Point{}, fmt.Errorf("longitude %q: %w", lo, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return model.Point{}, fmt.Errorf("coordinates %q out of range", s)
	}
	return model.Point{Latitude: lat, Longitude: lon}, nil
}
