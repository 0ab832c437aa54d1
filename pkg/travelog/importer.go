package travelog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/karrick/godirwalk"
	"github.com/otiai10/copy"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/geo"
	"github.com/mauriciobarrev/otravezlunes/pkg/model"
	"github.com/mauriciobarrev/otravezlunes/pkg/photo"
	"github.com/mauriciobarrev/otravezlunes/pkg/store"
)

// Stage is how far an item got through the import.
type Stage int

const (
	Discovered Stage = iota
	MetadataExtracted
	PlaceResolved
	PlaceSkipped
	ThumbnailGenerated
	Persisted
)

func (s Stage) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case MetadataExtracted:
		return "metadata-extracted"
	case PlaceResolved:
		return "place-resolved"
	case PlaceSkipped:
		return "place-skipped"
	case ThumbnailGenerated:
		return "thumbnail-generated"
	case Persisted:
		return "persisted"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ErrNoPlace marks photos dropped because RequirePlace is set and no place was found.
var ErrNoPlace = errors.New("no place for photo")

// PhotoStore is the storage the importer needs.
type PhotoStore interface {
	PhotoBySource(ctx context.Context, path string) (*model.Photo, error)
	SavePhoto(ctx context.Context, ph *model.Photo) error
}

// Item is one discovered image.
type Item struct {
	Path  string
	Order int
	Stage Stage

	Meta      *photo.CaptureMetadata
	Place     *model.Place
	Address   string
	Thumbnail *photo.Thumbnail
	Photo     *model.Photo

	// Skipped is set when the item was deliberately not imported.
	Skipped bool
	// Errs are per-step problems. Only an error returned by Process is fatal.
	Errs []error
}

func (it *Item) fail(step string, err error) {
	err = fmt.Errorf("%s: %w", step, err)
	klog.Errorf("%s: %v", it.Path, err)
	it.Errs = append(it.Errs, err)
}

// Report summarizes a Run.
type Report struct {
	Found        int
	Imported     int
	Skipped      int
	Failed       int
	WithPlace    int
	WithoutPlace int
	Items        []*Item
}

func (r *Report) String() string {
	return fmt.Sprintf("%d found, %d imported (%d with place, %d without), %d skipped, %d failed",
		r.Found, r.Imported, r.WithPlace, r.WithoutPlace, r.Skipped, r.Failed)
}

// Importer moves images through the import stages.
type Importer struct {
	cfg       *Config
	photos    PhotoStore
	extractor *photo.Extractor
	resolver  *geo.Resolver

	mu   sync.Mutex
	next int
}

// NewImporter returns an importer. A nil resolver leaves every photo without a place.
func NewImporter(c *Config, s PhotoStore, x *photo.Extractor, r *geo.Resolver) *Importer {
	return &Importer{cfg: c, photos: s, extractor: x, resolver: r}
}

// NewItem returns an item for path ordered after everything discovered so far.
func (im *Importer) NewItem(path string) *Item {
	im.mu.Lock()
	defer im.mu.Unlock()
	it := &Item{Path: path, Order: im.next}
	im.next++
	return it
}

// Discover walks root for importable images, skipping hidden entries and
// thumbnail directories.
func (im *Importer) Discover(root string) ([]*Item, error) {
	found := []*Item{}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			base := filepath.Base(path)
			if path != root && strings.HasPrefix(base, ".") {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			if de.IsDir() {
				if base == photo.ThumbDirName {
					return godirwalk.SkipThis
				}
				return nil
			}
			if !im.cfg.Accepts(path) {
				klog.V(2).Infof("ignoring %s", path)
				return nil
			}

			klog.V(1).Infof("found %s", path)
			found = append(found, &Item{Path: path, Order: len(found)})
			return nil
		},
	})
	if err != nil {
		return found, fmt.Errorf("walk %s: %w", root, err)
	}

	im.mu.Lock()
	im.next = max(im.next, len(found))
	im.mu.Unlock()
	return found, nil
}

// Process imports a single item. Problems with metadata, places and
// thumbnails are recorded on the item; the returned error means the item
// could not be imported at all.
func (im *Importer) Process(ctx context.Context, it *Item) error {
	existing, err := im.photos.PhotoBySource(ctx, it.Path)
	switch {
	case err == nil && !im.cfg.Overwrite:
		klog.Infof("%s already imported as photo %d", it.Path, existing.ID)
		it.Skipped = true
		it.Photo = existing
		return nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("lookup: %w", err)
	}

	it.Meta, err = im.extractor.Extract(it.Path)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	it.Stage = MetadataExtracted

	if it.Meta.Coordinates != nil && im.resolver != nil {
		res, err := im.resolver.Resolve(ctx, *it.Meta.Coordinates)
		if err != nil {
			it.fail("resolve place", err)
		} else {
			it.Place = res.Place
			it.Address = res.Address
		}
	}
	if it.Place == nil && im.cfg.Place != nil {
		it.Place = im.cfg.Place
	}
	it.Stage = PlaceSkipped
	if it.Place != nil {
		it.Stage = PlaceResolved
	}

	if it.Place == nil && im.cfg.RequirePlace {
		klog.Warningf("%s: no place, not importing", it.Path)
		it.Skipped = true
		it.Errs = append(it.Errs, ErrNoPlace)
		return nil
	}

	ph := &model.Photo{UUID: uuid.New().String()}
	if existing != nil {
		ph = existing
	}

	img := it.Path
	if im.cfg.MediaDir != "" {
		img, err = im.copyToMedia(it.Path, ph.UUID)
		if err != nil {
			return fmt.Errorf("copy: %w", err)
		}
	}

	th, err := photo.GenerateThumbnail(img, photo.ThumbPath(img, ""), im.thumbOpts())
	if err != nil {
		it.fail("thumbnail", err)
	} else {
		it.Thumbnail = th
		it.Stage = ThumbnailGenerated
	}

	im.fill(ph, it, img)
	if err := im.photos.SavePhoto(ctx, ph); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	it.Photo = ph
	it.Stage = Persisted

	klog.Infof("imported %s as photo %d (%s)", it.Path, ph.ID, ph.Description)
	return nil
}

func (im *Importer) thumbOpts() photo.ThumbOpts {
	o := im.cfg.Thumb
	if o.Width <= 0 && o.Height <= 0 {
		o = photo.DefaultThumbOpts
	}
	o.Force = im.cfg.Overwrite
	return o
}

// copyToMedia copies src to <media>/photos/<id>_<name>.
func (im *Importer) copyToMedia(src string, id string) (string, error) {
	dest := filepath.Join(im.cfg.MediaDir, PhotosDirName, id+"_"+filepath.Base(src))
	if _, err := os.Stat(dest); err == nil && !im.cfg.Overwrite {
		return dest, nil
	}
	klog.V(1).Infof("copying %s to %s", src, dest)
	if err := copy.Copy(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (im *Importer) fill(ph *model.Photo, it *Item, img string) {
	ph.SourcePath = it.Path
	ph.ImagePath = im.cfg.rel(img)
	ph.Author = im.cfg.Author
	ph.TakenAt = it.Meta.Taken
	ph.CaptureAddress = it.Address

	ph.Latitude, ph.Longitude = nil, nil
	if c := it.Meta.Coordinates; c != nil {
		lat, lon := c.Latitude, c.Longitude
		ph.Latitude, ph.Longitude = &lat, &lon
	}

	ph.PlaceID = nil
	ph.Description = "Photo with no specific location"
	if it.Place != nil {
		id := it.Place.ID
		ph.PlaceID = &id
		ph.Description = "Photo taken at " + it.Place.Name
	}

	if im.cfg.NameDescriptions {
		ph.Description = nameDescription(it.Path)
	}

	if it.Thumbnail != nil {
		ph.ThumbnailPath = im.cfg.rel(it.Thumbnail.Path)
	}

	if im.cfg.EntryID != nil {
		id := *im.cfg.EntryID
		ph.EntryID = &id
		ph.EntryOrder = it.Order
	}
}

// nameDescription turns "dia_en-madrid.jpg" into "Dia En Madrid".
func nameDescription(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.Join(strings.FieldsFunc(stem, func(r rune) bool { return r == '_' || r == '-' }), " ")
	return cases.Title(language.Spanish).String(stem)
}

// Run discovers images under root and imports them with a bounded worker
// pool. Per-item failures are counted, not returned.
func (im *Importer) Run(ctx context.Context, root string) (*Report, error) {
	items, err := im.Discover(root)
	if err != nil {
		return nil, err
	}
	klog.Infof("found %d images in %s", len(items), root)

	workers := im.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	r := &Report{Found: len(items), Items: items}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, it := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := im.Process(gctx, it)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				it.fail("import", err)
				r.Failed++
			case it.Skipped:
				r.Skipped++
			default:
				r.Imported++
				if it.Place != nil {
					r.WithPlace++
				} else {
					r.WithoutPlace++
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return r, err
	}
	if err := ctx.Err(); err != nil {
		return r, fmt.Errorf("import interrupted: %w", err)
	}

	klog.Infof("import of %s: %s", root, r)
	return r, nil
}
