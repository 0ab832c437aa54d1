package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
)

const placeColumns = `id, name, city, country, latitude, longitude, address, description, created_at`

// NearestPlace returns the lowest-id place within tol degrees of p on both
// axes, or nil if there is none.
func (s *Store) NearestPlace(ctx context.Context, p model.Point, tol float64) (*model.Place, error) {
	q := s.db.Rebind(`SELECT ` + placeColumns + ` FROM places
WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
ORDER BY id LIMIT 1`)

	var pl model.Place
	err := s.db.GetContext(ctx, &pl, q,
		p.Latitude-tol, p.Latitude+tol,
		p.Longitude-tol, p.Longitude+tol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select place: %w", err)
	}
	return &pl, nil
}

// CreatePlace inserts pl and sets its ID.
func (s *Store) CreatePlace(ctx context.Context, pl *model.Place) error {
	if pl.CreatedAt.IsZero() {
		pl.CreatedAt = time.Now().UTC()
	}

	id, err := s.insert(ctx, `INSERT INTO places (name, city, country, latitude, longitude, address, description, created_at)
VALUES (:name, :city, :country, :latitude, :longitude, :address, :description, :created_at)`, pl)
	if err != nil {
		return fmt.Errorf("insert place %q: %w", pl.Name, err)
	}
	pl.ID = id
	return nil
}

// Place returns the place with the given id.
func (s *Store) Place(ctx context.Context, id int64) (*model.Place, error) {
	var pl model.Place
	err := s.db.GetContext(ctx, &pl, s.db.Rebind(`SELECT `+placeColumns+` FROM places WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("place %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select place %d: %w", id, err)
	}
	return &pl, nil
}

// Places returns all places by name.
func (s *Store) Places(ctx context.Context) ([]*model.Place, error) {
	pls := []*model.Place{}
	if err := s.db.SelectContext(ctx, &pls, `SELECT `+placeColumns+` FROM places ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("select places: %w", err)
	}
	return pls, nil
}

// PlaceByName returns the lowest-id place named name.
func (s *Store) PlaceByName(ctx context.Context, name string) (*model.Place, error) {
	var pl model.Place
	err := s.db.GetContext(ctx, &pl, s.db.Rebind(`SELECT `+placeColumns+` FROM places WHERE name = ? ORDER BY id LIMIT 1`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("place %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select place %q: %w", name, err)
	}
	return &pl, nil
}
