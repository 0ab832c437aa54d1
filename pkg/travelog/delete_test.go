package travelog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
	"github.com/mauriciobarrev/otravezlunes/pkg/photo"
)

func TestDeleteEntryPhotos(t *testing.T) {
	ctx := context.Background()
	in := t.TempDir()
	media := t.TempDir()
	writePNG(t, filepath.Join(in, "a.png"))
	writePNG(t, filepath.Join(in, "b.png"))

	s := newStore(t)
	e := &model.Entry{Title: "Tayrona"}
	if err := s.SaveEntry(ctx, e); err != nil {
		t.Fatalf("save entry: %v", err)
	}
	c := DefaultConfig()
	c.MediaDir = media
	c.EntryID = &e.ID
	r, err := NewImporter(c, s, photo.NewExtractor(photo.GoexifReader{}), nil).Run(ctx, in)
	if err != nil || r.Imported != 2 {
		t.Fatalf("import = %v, %v", r, err)
	}

	// one file already gone
	ph := r.Items[0].Photo
	if err := os.Remove(filepath.Join(media, ph.ThumbnailPath)); err != nil {
		t.Fatalf("remove: %v", err)
	}

	d, err := DeleteEntryPhotos(ctx, s, c, e.ID, true)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if d.Rows != 2 || d.Removed != 3 || d.Missing != 1 || d.Failed != 0 {
		t.Errorf("unexpected report: %s", d)
	}
	for _, it := range r.Items {
		if _, err := os.Stat(filepath.Join(media, it.Photo.ImagePath)); !os.IsNotExist(err) {
			t.Errorf("%s still exists: %v", it.Photo.ImagePath, err)
		}
		if _, err := os.Stat(it.Path); err != nil {
			t.Errorf("source %s removed: %v", it.Path, err)
		}
	}
}

func TestDeleteEntryPhotos_KeepsFiles(t *testing.T) {
	ctx := context.Background()
	in := t.TempDir()
	writePNG(t, filepath.Join(in, "a.png"))

	s := newStore(t)
	e := &model.Entry{Title: "Tayrona"}
	if err := s.SaveEntry(ctx, e); err != nil {
		t.Fatalf("save entry: %v", err)
	}
	c := DefaultConfig()
	c.EntryID = &e.ID
	r, err := NewImporter(c, s, photo.NewExtractor(photo.GoexifReader{}), nil).Run(ctx, in)
	if err != nil || r.Imported != 1 {
		t.Fatalf("import = %v, %v", r, err)
	}
	ph := r.Items[0].Photo

	d, err := DeleteEntryPhotos(ctx, s, c, e.ID, false)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if d.Rows != 1 || d.Removed != 0 {
		t.Errorf("unexpected report: %s", d)
	}
	if _, err := os.Stat(ph.ThumbnailPath); err != nil {
		t.Errorf("thumbnail removed without files: %v", err)
	}

	// without a media dir the image is the source itself
	if _, err := s.PhotoBySource(ctx, ph.SourcePath); err == nil {
		t.Error("photo row still present")
	}
	phs := []*model.Photo{ph}
	fd := fakeDeleter(phs)
	d, err = DeleteEntryPhotos(ctx, fd, c, e.ID, true)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if d.Removed != 1 {
		t.Errorf("unexpected report: %s", d)
	}
	if _, err := os.Stat(ph.SourcePath); err != nil {
		t.Errorf("source removed: %v", err)
	}
}

type fakeDeleter []*model.Photo

func (f fakeDeleter) DeletePhotos(ctx context.Context, entryID int64) ([]*model.Photo, error) {
	return f, nil
}
