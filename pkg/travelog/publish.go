package travelog

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/content"
	"github.com/mauriciobarrev/otravezlunes/pkg/model"
)

// EntryStore is the storage Publish needs.
type EntryStore interface {
	SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error)
	SaveEntry(ctx context.Context, e *model.Entry) error
}

// Prepare validates e.Content and regenerates the derived HTML and excerpt.
// A missing slug is derived from the title.
func Prepare(ctx context.Context, s EntryStore, e *model.Entry) error {
	if err := content.Validate(e.Content); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	r, err := content.Render(e.Content)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	e.ContentHTML = r.HTML
	e.Excerpt = r.Excerpt

	if e.Slug == "" {
		e.Slug, err = content.UniqueSlug(e.Title, func(c string) (bool, error) {
			return s.SlugExists(ctx, c, e.ID)
		})
		if err != nil {
			return fmt.Errorf("slug: %w", err)
		}
	}
	return nil
}

// Publish prepares e and saves it.
func Publish(ctx context.Context, s EntryStore, e *model.Entry) error {
	if err := Prepare(ctx, s, e); err != nil {
		return err
	}
	if err := s.SaveEntry(ctx, e); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	klog.Infof("published entry %d %q at /%s", e.ID, e.Title, e.Slug)
	return nil
}
