package travelog

import (
	"context"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/content"
	"github.com/mauriciobarrev/otravezlunes/pkg/model"
	"github.com/mauriciobarrev/otravezlunes/pkg/photo"
	"github.com/mauriciobarrev/otravezlunes/pkg/store"
)

// ThumbStore is the storage BackfillThumbnails needs.
type ThumbStore interface {
	Photos(ctx context.Context, f store.PhotoFilter) ([]*model.Photo, error)
	SetThumbnail(ctx context.Context, id int64, path string) error
}

// BackfillOpts select the photos to backfill.
type BackfillOpts struct {
	EntryID *int64
	// Force regenerates thumbnails that already exist.
	Force bool
}

// ThumbReport summarizes a thumbnail backfill.
type ThumbReport struct {
	Created     int
	Regenerated int
	Existing    int
	// Missing counts photos whose image file is gone.
	Missing int
	Failed  int
}

func (r *ThumbReport) String() string {
	return fmt.Sprintf("%d created, %d regenerated, %d existing, %d missing images, %d failed",
		r.Created, r.Regenerated, r.Existing, r.Missing, r.Failed)
}

// BackfillThumbnails makes sure every selected photo has a thumbnail on disk
// and that the stored path points at it.
func BackfillThumbnails(ctx context.Context, s ThumbStore, c *Config, o BackfillOpts) (*ThumbReport, error) {
	phs, err := s.Photos(ctx, store.PhotoFilter{EntryID: o.EntryID})
	if err != nil {
		return nil, err
	}
	klog.Infof("checking thumbnails for %d photos", len(phs))

	to := c.Thumb
	if to.Width <= 0 && to.Height <= 0 {
		to = photo.DefaultThumbOpts
	}
	to.Force = o.Force

	r := &ThumbReport{}
	for _, ph := range phs {
		if err := ctx.Err(); err != nil {
			return r, err
		}

		src := c.abs(ph.ImagePath)
		if src == "" {
			src = ph.SourcePath
		}
		if _, err := os.Stat(src); err != nil {
			klog.Warningf("photo %d: image %s: %v", ph.ID, src, err)
			r.Missing++
			continue
		}

		dest := photo.ThumbPath(src, "")
		_, statErr := os.Stat(dest)
		existed := statErr == nil

		th, err := photo.GenerateThumbnail(src, dest, to)
		if err != nil {
			klog.Errorf("photo %d: thumbnail: %v", ph.ID, err)
			r.Failed++
			continue
		}

		switch {
		case !th.Created:
			r.Existing++
		case existed:
			r.Regenerated++
		default:
			r.Created++
		}

		if rel := c.rel(th.Path); rel != ph.ThumbnailPath {
			if err := s.SetThumbnail(ctx, ph.ID, rel); err != nil {
				klog.Errorf("photo %d: %v", ph.ID, err)
				r.Failed++
				continue
			}
			klog.V(1).Infof("photo %d thumbnail is now %s", ph.ID, rel)
		}
	}

	klog.Infof("thumbnail backfill: %s", r)
	return r, nil
}

// SlugStore is the storage BackfillSlugs needs.
type SlugStore interface {
	Entries(ctx context.Context) ([]*model.Entry, error)
	SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error)
	SetSlug(ctx context.Context, id int64, slug string) error
}

// BackfillSlugs gives every entry without a slug a unique one derived from
// its title, returning how many were set.
func BackfillSlugs(ctx context.Context, s SlugStore) (int, error) {
	es, err := s.Entries(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, e := range es {
		if e.Slug != "" {
			continue
		}
		slug, err := content.UniqueSlug(e.Title, func(c string) (bool, error) {
			return s.SlugExists(ctx, c, e.ID)
		})
		if err != nil {
			return n, fmt.Errorf("entry %d: %w", e.ID, err)
		}
		if err := s.SetSlug(ctx, e.ID, slug); err != nil {
			return n, err
		}
		klog.Infof("entry %d %q: slug %s", e.ID, e.Title, slug)
		n++
	}
	return n, nil
}
