package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestPlaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sol := &model.Place{Name: "Puerta del Sol", City: "Madrid", Country: "España", Latitude: 40.4168, Longitude: -3.7038}
	if err := s.CreatePlace(ctx, sol); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sol.ID == 0 || sol.CreatedAt.IsZero() {
		t.Errorf("id or created_at not set: %+v", sol)
	}
	near := &model.Place{Name: "Calle Mayor", Latitude: 40.4172, Longitude: -3.7041}
	if err := s.CreatePlace(ctx, near); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := s.NearestPlace(ctx, model.Point{Latitude: 40.4170, Longitude: -3.7040}, 0.001)
	if err != nil {
		t.Fatalf("nearest failed: %v", err)
	}
	if got == nil || got.ID != sol.ID {
		t.Errorf("expected lowest id match %d, got %+v", sol.ID, got)
	}

	got, err = s.NearestPlace(ctx, model.Point{Latitude: 41.3874, Longitude: 2.1686}, 0.001)
	if err != nil {
		t.Fatalf("nearest failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected no match, got %+v", got)
	}

	byID, err := s.Place(ctx, sol.ID)
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if byID.Name != "Puerta del Sol" || byID.Country != "España" {
		t.Errorf("unexpected place %+v", byID)
	}

	if _, err := s.Place(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, err := s.Places(ctx)
	if err != nil {
		t.Fatalf("places failed: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Calle Mayor" {
		t.Errorf("unexpected places %+v", all)
	}
}

func TestPhotos(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	pl := &model.Place{Name: "Sol", Latitude: 40.4168, Longitude: -3.7038}
	if err := s.CreatePlace(ctx, pl); err != nil {
		t.Fatalf("create place: %v", err)
	}

	taken := time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)
	lat, lon := 40.4168, -3.7038
	ph := &model.Photo{
		PlaceID:    &pl.ID,
		SourcePath: "/in/sol.jpg",
		ImagePath:  "photos/sol.jpg",
		TakenAt:    &taken,
		Latitude:   &lat,
		Longitude:  &lon,
	}
	if err := s.SavePhoto(ctx, ph); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if ph.ID == 0 || ph.UUID == "" {
		t.Errorf("id or uuid not set: %+v", ph)
	}

	bare := &model.Photo{SourcePath: "/in/bare.png"}
	if err := s.SavePhoto(ctx, bare); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.PhotoBySource(ctx, "/in/sol.jpg")
	if err != nil {
		t.Fatalf("by source failed: %v", err)
	}
	if got.TakenAt == nil || !got.TakenAt.Equal(taken) {
		t.Errorf("taken_at = %v, want %v", got.TakenAt, taken)
	}
	if got.Latitude == nil || *got.Latitude != lat || got.PlaceID == nil || *got.PlaceID != pl.ID {
		t.Errorf("unexpected photo %+v", got)
	}

	nb, err := s.PhotoBySource(ctx, "/in/bare.png")
	if err != nil {
		t.Fatalf("by source failed: %v", err)
	}
	if nb.TakenAt != nil || nb.Latitude != nil || nb.Longitude != nil || nb.PlaceID != nil {
		t.Errorf("expected NULL metadata, got %+v", nb)
	}

	if _, err := s.PhotoBySource(ctx, "/in/none.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.SetThumbnail(ctx, ph.ID, "photos/thumbnails/sol_thumb.jpg"); err != nil {
		t.Fatalf("set thumbnail failed: %v", err)
	}
	if err := s.SetKeywords(ctx, ph.ID, []string{"plaza", "madrid"}); err != nil {
		t.Fatalf("set keywords failed: %v", err)
	}
	if err := s.SetThumbnail(ctx, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	missing, err := s.Photos(ctx, PhotoFilter{MissingThumbnail: true})
	if err != nil {
		t.Fatalf("photos failed: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != bare.ID {
		t.Errorf("unexpected photos without thumbnail: %+v", missing)
	}

	atPlace, err := s.Photos(ctx, PhotoFilter{PlaceID: &pl.ID})
	if err != nil {
		t.Fatalf("photos failed: %v", err)
	}
	if len(atPlace) != 1 || atPlace[0].Keywords != "plaza,madrid" || atPlace[0].ThumbnailPath != "photos/thumbnails/sol_thumb.jpg" {
		t.Errorf("unexpected photos at place: %+v", atPlace)
	}

	ph.Description = "Kilómetro cero"
	if err := s.SavePhoto(ctx, ph); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err = s.PhotoBySource(ctx, "/in/sol.jpg")
	if err != nil {
		t.Fatalf("by source failed: %v", err)
	}
	if got.Description != "Kilómetro cero" {
		t.Errorf("description not updated: %+v", got)
	}
}

func TestEntries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e := &model.Entry{Title: "Día en Madrid", Slug: "dia-en-madrid", Content: "# Hola"}
	if err := s.SaveEntry(ctx, e); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if e.ID == 0 || e.PublishedAt.IsZero() || e.UpdatedAt.IsZero() {
		t.Errorf("defaults not set: %+v", e)
	}

	other := &model.Entry{Title: "Sin slug"}
	if err := s.SaveEntry(ctx, other); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	// empty slugs do not collide
	if err := s.SaveEntry(ctx, &model.Entry{Title: "Otro sin slug"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.EntryBySlug(ctx, "dia-en-madrid")
	if err != nil {
		t.Fatalf("by slug failed: %v", err)
	}
	if got.ID != e.ID || got.Content != "# Hola" {
		t.Errorf("unexpected entry %+v", got)
	}
	if _, err := s.EntryBySlug(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty slug, got %v", err)
	}

	exists, err := s.SlugExists(ctx, "dia-en-madrid", 0)
	if err != nil || !exists {
		t.Errorf("SlugExists = %v, %v", exists, err)
	}
	exists, err = s.SlugExists(ctx, "dia-en-madrid", e.ID)
	if err != nil || exists {
		t.Errorf("SlugExists excluding self = %v, %v", exists, err)
	}

	if err := s.SetSlug(ctx, other.ID, "dia-en-madrid"); err == nil {
		t.Error("expected duplicate slug to fail")
	}
	if err := s.SetSlug(ctx, other.ID, "sin-slug"); err != nil {
		t.Fatalf("set slug failed: %v", err)
	}

	e.ContentHTML = "<h1>Hola</h1>"
	if err := s.SaveEntry(ctx, e); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err = s.Entry(ctx, e.ID)
	if err != nil {
		t.Fatalf("entry failed: %v", err)
	}
	if got.ContentHTML != "<h1>Hola</h1>" {
		t.Errorf("content_html not updated: %+v", got)
	}

	all, err := s.Entries(ctx)
	if err != nil {
		t.Fatalf("entries failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d entries, want 3", len(all))
	}
}

func TestLookupsByName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, n := range []string{"Tayrona", "Tayrona"} {
		if err := s.CreatePlace(ctx, &model.Place{Name: n, Latitude: 11.3, Longitude: -74.0}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	pl, err := s.PlaceByName(ctx, "Tayrona")
	if err != nil || pl.ID != 1 {
		t.Errorf("PlaceByName = %+v, %v", pl, err)
	}
	if _, err := s.PlaceByName(ctx, "Bogotá"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	e := &model.Entry{Title: "Mi Viaje", Slug: "mi-viaje"}
	if err := s.SaveEntry(ctx, e); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := s.EntryByTitle(ctx, "Mi Viaje")
	if err != nil || got.ID != e.ID {
		t.Errorf("EntryByTitle = %+v, %v", got, err)
	}
	if _, err := s.EntryByTitle(ctx, "mi viaje"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePhotos(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var ids []int64
	for _, title := range []string{"Madrid", "Santiago"} {
		e := &model.Entry{Title: title}
		if err := s.SaveEntry(ctx, e); err != nil {
			t.Fatalf("save entry: %v", err)
		}
		ids = append(ids, e.ID)
	}
	for i, src := range []string{"/in/a.jpg", "/in/b.jpg", "/in/c.jpg"} {
		entry := ids[0]
		if i == 2 {
			entry = ids[1]
		}
		ph := &model.Photo{SourcePath: src, ImagePath: "photos/" + src[4:], ThumbnailPath: "photos/thumbnails/" + src[4:], EntryID: &entry, EntryOrder: i}
		if err := s.SavePhoto(ctx, ph); err != nil {
			t.Fatalf("save photo: %v", err)
		}
	}

	gone, err := s.DeletePhotos(ctx, ids[0])
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(gone) != 2 || gone[0].ImagePath != "photos/a.jpg" || gone[1].ThumbnailPath != "photos/thumbnails/b.jpg" {
		t.Errorf("unexpected deleted rows %+v", gone)
	}

	left, err := s.Photos(ctx, PhotoFilter{})
	if err != nil {
		t.Fatalf("photos: %v", err)
	}
	if len(left) != 1 || left[0].SourcePath != "/in/c.jpg" {
		t.Errorf("unexpected remaining photos %+v", left)
	}

	gone, err = s.DeletePhotos(ctx, ids[0])
	if err != nil || len(gone) != 0 {
		t.Errorf("second delete = %v, %v", gone, err)
	}
}
