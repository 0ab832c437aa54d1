// autotag adds suggested keywords to imported photos using Gemini.
package main

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/store"
	"github.com/mauriciobarrev/otravezlunes/pkg/travelog"
)

var (
	dryRun    = flag.Bool("n", false, "dry-run mode, don't tag things")
	overwrite = flag.Bool("o", false, "overwrite existing keywords")
	writeExif = flag.Bool("write-exif", false, "also write keywords into the image files with exiftool")
	dbDriver  = flag.String("db-driver", "", "database driver (default $TRAVELOG_DB_DRIVER or sqlite3)")
	dbDSN     = flag.String("db", "", "database DSN (default $TRAVELOG_DB or travelog.db)")
	mediaDir  = flag.String("media", "", "media root stored paths are relative to (default $TRAVELOG_MEDIA)")
	entryID   = flag.Int64("entry", 0, "only photos of this entry")
	modelName = flag.String("model", travelog.DefaultModel, "Gemini model")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	travelog.LoadEnv()

	ctx := context.Background()
	g, err := travelog.NewGenaiGenerator(ctx, travelog.EnvOr(travelog.EnvGoogleAIKey, ""), *modelName)
	if err != nil {
		klog.Exitf("genai: %v (set $%s)", err, travelog.EnvGoogleAIKey)
	}

	driver := *dbDriver
	if driver == "" {
		driver = travelog.EnvOr(travelog.EnvDBDriver, "sqlite3")
	}
	dsn := *dbDSN
	if dsn == "" {
		dsn = travelog.EnvOr(travelog.EnvDB, "travelog.db")
	}
	media := *mediaDir
	if media == "" {
		media = travelog.EnvOr(travelog.EnvMedia, "")
	}

	s, err := travelog.OpenStore(ctx, driver, dsn)
	if err != nil {
		klog.Exitf("store: %v", err)
	}
	defer s.Close()

	var e *exiftool.Exiftool
	if *writeExif {
		e, err = exiftool.NewExiftool()
		if err != nil {
			klog.Exitf("exiftool: %v", err)
		}
		defer func() {
			if err := e.Close(); err != nil {
				klog.Errorf("Failed to close exiftool: %v", err)
			}
		}()
	}

	f := store.PhotoFilter{}
	if *entryID > 0 {
		f.EntryID = entryID
	}
	phs, err := s.Photos(ctx, f)
	if err != nil {
		klog.Exitf("photos: %v", err)
	}
	klog.Infof("autotag starting with %d photos", len(phs))

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) || media == "" {
			return p
		}
		return filepath.Join(media, p)
	}

	tagged := 0
	for _, ph := range phs {
		if !*overwrite && ph.Keywords != "" {
			klog.Infof("photo %d has keywords: %s", ph.ID, ph.Keywords)
			continue
		}

		// tag from the thumbnail when there is one
		src := abs(ph.ThumbnailPath)
		if src == "" {
			src = abs(ph.ImagePath)
		}

		tags, err := travelog.SuggestKeywords(ctx, g, src)
		if err != nil {
			klog.Errorf("photo %d: %v", ph.ID, err)
			continue
		}
		klog.Infof("adding keywords to photo %d: %v", ph.ID, tags)
		if *dryRun || len(tags) == 0 {
			continue
		}

		if err := s.SetKeywords(ctx, ph.ID, tags); err != nil {
			klog.Errorf("photo %d: %v", ph.ID, err)
			continue
		}
		tagged++

		if e != nil {
			img := abs(ph.ImagePath)
			o := e.ExtractMetadata(img)
			o[0].SetStrings("Keywords", tags)
			e.WriteMetadata(o)
			if o[0].Err != nil {
				klog.Errorf("Failed to write metadata for %s: %v", img, o[0].Err)
			}
		}
	}

	klog.Infof("autotag completed. Tagged %d of %d photos", tagged, len(phs))
}
