package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
)

const entryColumns = `id, title, slug, place_id, author, content, content_html, excerpt, published_at, updated_at`

// SaveEntry inserts e when its ID is zero and updates it otherwise.
// UpdatedAt is always refreshed; PublishedAt defaults to now.
func (s *Store) SaveEntry(ctx context.Context, e *model.Entry) error {
	now := time.Now().UTC()
	if e.PublishedAt.IsZero() {
		e.PublishedAt = now
	}
	e.UpdatedAt = now

	if e.ID == 0 {
		id, err := s.insert(ctx, `INSERT INTO entries (title, slug, place_id, author, content, content_html, excerpt, published_at, updated_at)
VALUES (:title, :slug, :place_id, :author, :content, :content_html, :excerpt, :published_at, :updated_at)`, e)
		if err != nil {
			return fmt.Errorf("insert entry %q: %w", e.Title, err)
		}
		e.ID = id
		return nil
	}

	err := updated(s.db.NamedExecContext(ctx, `UPDATE entries SET title=:title, slug=:slug, place_id=:place_id, author=:author,
content=:content, content_html=:content_html, excerpt=:excerpt, published_at=:published_at, updated_at=:updated_at
WHERE id=:id`, e))
	if err != nil {
		return fmt.Errorf("update entry %d: %w", e.ID, err)
	}
	return nil
}

func (s *Store) entry(ctx context.Context, where string, arg interface{}) (*model.Entry, error) {
	var e model.Entry
	err := s.db.GetContext(ctx, &e, s.db.Rebind(`SELECT `+entryColumns+` FROM entries WHERE `+where), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select entry %v: %w", arg, err)
	}
	return &e, nil
}

// Entry returns the entry with the given id.
func (s *Store) Entry(ctx context.Context, id int64) (*model.Entry, error) {
	return s.entry(ctx, "id = ?", id)
}

// EntryBySlug returns the entry with the given slug.
func (s *Store) EntryBySlug(ctx context.Context, slug string) (*model.Entry, error) {
	return s.entry(ctx, "slug = ? AND slug <> ''", slug)
}

// Entries returns all entries, newest first.
func (s *Store) Entries(ctx context.Context) ([]*model.Entry, error) {
	es := []*model.Entry{}
	if err := s.db.SelectContext(ctx, &es, `SELECT `+entryColumns+` FROM entries ORDER BY published_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return es, nil
}

// SlugExists reports whether an entry other than exceptID uses slug.
func (s *Store) SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM entries WHERE slug = ? AND id <> ?`), slug, exceptID)
	if err != nil {
		return false, fmt.Errorf("count slug %q: %w", slug, err)
	}
	return n > 0, nil
}

// SetSlug sets the slug of entry id.
func (s *Store) SetSlug(ctx context.Context, id int64, slug string) error {
	err := updated(s.db.ExecContext(ctx, s.db.Rebind(`UPDATE entries SET slug = ? WHERE id = ?`), slug, id))
	if err != nil {
		return fmt.Errorf("set slug %d: %w", id, err)
	}
	return nil
}

// EntryByTitle returns the lowest-id entry with exactly this title.
func (s *Store) EntryByTitle(ctx context.Context, title string) (*model.Entry, error) {
	return s.entry(ctx, "title = ? ORDER BY id LIMIT 1", title)
}
