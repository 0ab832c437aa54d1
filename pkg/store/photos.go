package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
)

const photoColumns = `id, uuid, place_id, entry_id, source_path, image_path, thumbnail_path, author,
taken_at, description, keywords, capture_address, entry_order, latitude, longitude`

// PhotoFilter narrows Photos. Zero values match everything.
type PhotoFilter struct {
	PlaceID *int64
	EntryID *int64
	// MissingThumbnail keeps photos without a stored thumbnail path.
	MissingThumbnail bool
}

// PhotoBySource returns the photo imported from path.
func (s *Store) PhotoBySource(ctx context.Context, path string) (*model.Photo, error) {
	var ph model.Photo
	err := s.db.GetContext(ctx, &ph, s.db.Rebind(`SELECT `+photoColumns+` FROM photos WHERE source_path = ?`), path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("photo %q: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select photo %q: %w", path, err)
	}
	return &ph, nil
}

// SavePhoto inserts ph when its ID is zero and updates it otherwise. A
// missing UUID is assigned.
func (s *Store) SavePhoto(ctx context.Context, ph *model.Photo) error {
	if ph.UUID == "" {
		ph.UUID = uuid.New().String()
	}

	if ph.ID == 0 {
		id, err := s.insert(ctx, `INSERT INTO photos (uuid, place_id, entry_id, source_path, image_path, thumbnail_path, author,
taken_at, description, keywords, capture_address, entry_order, latitude, longitude)
VALUES (:uuid, :place_id, :entry_id, :source_path, :image_path, :thumbnail_path, :author,
:taken_at, :description, :keywords, :capture_address, :entry_order, :latitude, :longitude)`, ph)
		if err != nil {
			return fmt.Errorf("insert photo %q: %w", ph.SourcePath, err)
		}
		ph.ID = id
		return nil
	}

	err := updated(s.db.NamedExecContext(ctx, `UPDATE photos SET uuid=:uuid, place_id=:place_id, entry_id=:entry_id,
source_path=:source_path, image_path=:image_path, thumbnail_path=:thumbnail_path, author=:author,
taken_at=:taken_at, description=:description, keywords=:keywords, capture_address=:capture_address,
entry_order=:entry_order, latitude=:latitude, longitude=:longitude
WHERE id=:id`, ph))
	if err != nil {
		return fmt.Errorf("update photo %d: %w", ph.ID, err)
	}
	return nil
}

// Photos returns photos matching f, in entry order then capture time.
func (s *Store) Photos(ctx context.Context, f PhotoFilter) ([]*model.Photo, error) {
	var where []string
	var args []interface{}
	if f.PlaceID != nil {
		where = append(where, "place_id = ?")
		args = append(args, *f.PlaceID)
	}
	if f.EntryID != nil {
		where = append(where, "entry_id = ?")
		args = append(args, *f.EntryID)
	}
	if f.MissingThumbnail {
		where = append(where, "thumbnail_path = ''")
	}

	q := `SELECT ` + photoColumns + ` FROM photos`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY entry_order, taken_at, id"

	phs := []*model.Photo{}
	if err := s.db.SelectContext(ctx, &phs, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("select photos: %w", err)
	}
	return phs, nil
}

// SetThumbnail records the thumbnail path of photo id.
func (s *Store) SetThumbnail(ctx context.Context, id int64, path string) error {
	err := updated(s.db.ExecContext(ctx, s.db.Rebind(`UPDATE photos SET thumbnail_path = ? WHERE id = ?`), path, id))
	if err != nil {
		return fmt.Errorf("set thumbnail %d: %w", id, err)
	}
	return nil
}

// SetKeywords stores a comma separated keyword list on photo id.
func (s *Store) SetKeywords(ctx context.Context, id int64, keywords []string) error {
	err := updated(s.db.ExecContext(ctx, s.db.Rebind(`UPDATE photos SET keywords = ? WHERE id = ?`), strings.Join(keywords, ","), id))
	if err != nil {
		return fmt.Errorf("set keywords %d: %w", id, err)
	}
	return nil
}

// DeletePhotos removes every photo of entry entryID and returns the removed rows.
func (s *Store) DeletePhotos(ctx context.Context, entryID int64) ([]*model.Photo, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	phs := []*model.Photo{}
	q := tx.Rebind(`SELECT ` + photoColumns + ` FROM photos WHERE entry_id = ? ORDER BY entry_order, id`)
	if err := tx.SelectContext(ctx, &phs, q, entryID); err != nil {
		return nil, fmt.Errorf("select photos: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM photos WHERE entry_id = ?`), entryID); err != nil {
		return nil, fmt.Errorf("delete photos: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return phs, nil
}
