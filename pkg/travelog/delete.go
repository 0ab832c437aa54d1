package travelog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
)

// PhotoDeleter removes an entry's photo rows.
type PhotoDeleter interface {
	DeletePhotos(ctx context.Context, entryID int64) ([]*model.Photo, error)
}

// DeleteReport counts what DeleteEntryPhotos removed.
type DeleteReport struct {
	Rows    int
	Removed int
	Missing int
	Failed  int
}

func (r *DeleteReport) String() string {
	return fmt.Sprintf("%d rows deleted, %d files removed (%d missing, %d failed)", r.Rows, r.Removed, r.Missing, r.Failed)
}

// DeleteEntryPhotos deletes the photos of entry entryID. With files set, the
// stored image and thumbnail files are unlinked too, after the rows are gone.
// An image stored in place of its source is never removed.
func DeleteEntryPhotos(ctx context.Context, s PhotoDeleter, c *Config, entryID int64, files bool) (*DeleteReport, error) {
	phs, err := s.DeletePhotos(ctx, entryID)
	if err != nil {
		return nil, err
	}
	r := &DeleteReport{Rows: len(phs)}
	if !files {
		return r, nil
	}

	for _, ph := range phs {
		for _, p := range []string{ph.ImagePath, ph.ThumbnailPath} {
			path := c.abs(p)
			if p == "" || path == ph.SourcePath {
				continue
			}
			err := os.Remove(path)
			switch {
			case err == nil:
				klog.V(1).Infof("removed %s", path)
				r.Removed++
			case errors.Is(err, fs.ErrNotExist):
				klog.Warningf("%s not found", path)
				r.Missing++
			default:
				klog.Errorf("remove %s: %v", path, err)
				r.Failed++
			}
		}
	}
	return r, nil
}
