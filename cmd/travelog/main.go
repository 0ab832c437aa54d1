// travelog imports a directory of travel photos into the blog database.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/geo"
	"github.com/mauriciobarrev/otravezlunes/pkg/photo"
	"github.com/mauriciobarrev/otravezlunes/pkg/travelog"
)

var (
	inDir        = flag.String("in", "", "Location of input directory")
	dbDriver     = flag.String("db-driver", "", "database driver: sqlite3 or postgres (default $TRAVELOG_DB_DRIVER or sqlite3)")
	dbDSN        = flag.String("db", "", "database DSN (default $TRAVELOG_DB or travelog.db)")
	mediaDir     = flag.String("media", "", "media root to copy originals into (default $TRAVELOG_MEDIA)")
	author       = flag.String("author", "", "photo author")
	entryID      = flag.Int64("entry", 0, "attach imported photos to this entry id")
	entryTitle   = flag.String("entry-title", "", "attach imported photos to the entry with this title")
	createEntry  = flag.Bool("create-entry", false, "create the -entry-title entry if it does not exist")
	placeName    = flag.String("place-name", "", "place for photos without a GPS place, and for a created entry (default: the entry title)")
	placeCoords  = flag.String("place-coords", "", "\"lat,lon\" of -place-name when it does not exist yet")
	nameDescs    = flag.Bool("name-descriptions", false, "describe photos by their file name")
	overwrite    = flag.Bool("overwrite", false, "re-import photos that are already stored")
	requirePlace = flag.Bool("require-place", false, "skip photos without a usable GPS position")
	workers      = flag.Int("workers", 0, "concurrent imports (default: number of CPUs)")
	thumbSize    = flag.String("thumb-size", "300x300", "thumbnail bounding box, WIDTHxHEIGHT")
	thumbMode    = flag.String("thumb-mode", "fit", "thumbnail mode: fit or fill")
	thumbQuality = flag.Int("thumb-quality", 85, "thumbnail JPEG quality")
	reader       = flag.String("reader", "goexif", "metadata reader: goexif or exiftool")
	geocode      = flag.Bool("geocode", true, "name new places with reverse geocoding")
	nominatimURL = flag.String("nominatim", "", "Nominatim base URL (default $NOMINATIM_URL or the public service)")
	userAgent    = flag.String("user-agent", "", "User-Agent for Nominatim (default $NOMINATIM_USER_AGENT)")
	language     = flag.String("lang", "es", "preferred language for place names")
	watchFlag    = flag.Bool("watch", false, "watch the input directory and import new photos")
	listen       = flag.Bool("listen", false, "serve the media directory via HTTP")
	addr         = flag.String("addr", "localhost:12800", "host:port to bind to in listen mode")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	travelog.LoadEnv()

	if *inDir == "" {
		klog.Exitf("--in is a required flag")
	}

	c := travelog.DefaultConfig()
	c.MediaDir = flagOrEnv(*mediaDir, travelog.EnvMedia, "")
	c.Author = *author
	c.Overwrite = *overwrite
	c.RequirePlace = *requirePlace
	c.NameDescriptions = *nameDescs
	if *workers > 0 {
		c.Workers = *workers
	}

	w, h, err := photo.ParseSize(*thumbSize)
	if err != nil {
		klog.Exitf("thumb size: %v", err)
	}
	mode, err := photo.ParseMode(*thumbMode)
	if err != nil {
		klog.Exitf("thumb mode: %v", err)
	}
	c.Thumb = photo.ThumbOpts{Width: w, Height: h, Quality: *thumbQuality, Mode: mode}

	ctx := context.Background()
	s, err := travelog.OpenStore(ctx, flagOrEnv(*dbDriver, travelog.EnvDBDriver, "sqlite3"), flagOrEnv(*dbDSN, travelog.EnvDB, "travelog.db"))
	if err != nil {
		klog.Exitf("store: %v", err)
	}
	defer s.Close()

	if *entryID > 0 || *entryTitle != "" {
		e, err := travelog.FindEntry(ctx, s, travelog.EntryTarget{
			ID:     *entryID,
			Title:  *entryTitle,
			Create: *createEntry,
			Place:  *placeName,
			Coords: *placeCoords,
			Author: *author,
		})
		if err != nil {
			klog.Exitf("entry: %v", err)
		}
		klog.Infof("importing into entry %d %q", e.ID, e.Title)
		c.EntryID = &e.ID
		if e.PlaceID != nil && *placeName == "" {
			if c.Place, err = s.Place(ctx, *e.PlaceID); err != nil {
				klog.Exitf("entry place: %v", err)
			}
		}
	}
	if *placeName != "" {
		if c.Place, err = travelog.FindPlace(ctx, s, *placeName, *placeCoords); err != nil {
			klog.Exitf("place: %v", err)
		}
	}

	var tr photo.TagReader = photo.GoexifReader{}
	if *reader == "exiftool" {
		et, err := photo.NewExiftoolReader()
		if err != nil {
			klog.Exitf("exiftool failed: %v", err)
		}
		defer et.Close()
		tr = et
	}

	var g geo.Geocoder
	if *geocode {
		n, err := geo.NewNominatim(geo.NominatimOpts{
			BaseURL:   flagOrEnv(*nominatimURL, travelog.EnvNominatimURL, geo.DefaultNominatimURL),
			UserAgent: flagOrEnv(*userAgent, travelog.EnvNominatimAgent, ""),
			Language:  *language,
		})
		if err != nil {
			klog.Exitf("geocoder: %v (set -user-agent or $%s, or pass -geocode=false)", err, travelog.EnvNominatimAgent)
		}
		g = n
	}

	im := travelog.NewImporter(c, s, photo.NewExtractor(tr), geo.NewResolver(s, g, geo.DefaultTolerance))

	r, err := im.Run(ctx, *inDir)
	if err != nil {
		klog.Exitf("import failed: %v", err)
	}
	klog.Infof("import complete: %s", r)

	var wg sync.WaitGroup
	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch(ctx, im, c, *inDir); err != nil {
				klog.Exitf("watch failed: %v", err)
			}
		}()
	}

	if *listen {
		if c.MediaDir == "" {
			klog.Exitf("--listen requires --media")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(c.MediaDir, *addr)
		}()
	}

	wg.Wait()
}

func flagOrEnv(v string, key string, d string) string {
	if v != "" {
		return v
	}
	return travelog.EnvOr(key, d)
}

// serve serves the media directory via HTTP
func serve(path string, addr string) {
	fs := http.FileServer(http.Dir(path))
	http.Handle("/", fs)

	klog.Infof("Listening on %s...", addr)
	err := http.ListenAndServe(addr, nil)
	if err != nil {
		klog.Exitf("listen failed: %v", err)
	}
}

// settle is how long a file must go unmodified before it is imported.
const settle = 2 * time.Second

// watch imports photos that appear under root
func watch(ctx context.Context, im *travelog.Importer, c *travelog.Config, root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	var mu sync.Mutex
	pending := map[string]*time.Timer{}

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			t.Reset(settle)
			return
		}
		pending[path] = time.AfterFunc(settle, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()

			it := im.NewItem(path)
			if err := im.Process(ctx, it); err != nil {
				klog.Errorf("import %s: %v", path, err)
			}
		})
	}

	items, err := im.Discover(root)
	if err != nil {
		return err
	}
	dirs := []string{root}
	for _, it := range items {
		dirs = append(dirs, filepath.Dir(it.Path))
	}
	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	klog.Infof("watching %d dirs ...", len(dirs))
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %v", event)
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			fi, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if fi.IsDir() {
				if filepath.Base(event.Name) != photo.ThumbDirName {
					klog.Infof("watching new dir %s", event.Name)
					if err := w.Add(event.Name); err != nil {
						klog.Errorf("watch %s: %v", event.Name, err)
					}
				}
				continue
			}
			if c.Accepts(event.Name) && filepath.Base(filepath.Dir(event.Name)) != photo.ThumbDirName {
				schedule(event.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}
