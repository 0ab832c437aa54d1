// thumbnails regenerates missing (or all) photo thumbnails.
package main

import (
	"context"
	"flag"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/photo"
	"github.com/mauriciobarrev/otravezlunes/pkg/travelog"
)

var (
	dbDriver = flag.String("db-driver", "", "database driver (default $TRAVELOG_DB_DRIVER or sqlite3)")
	dbDSN    = flag.String("db", "", "database DSN (default $TRAVELOG_DB or travelog.db)")
	mediaDir = flag.String("media", "", "media root stored paths are relative to (default $TRAVELOG_MEDIA)")
	entryID  = flag.Int64("entry", 0, "only photos of this entry")
	force    = flag.Bool("force", false, "regenerate thumbnails that already exist")
	size     = flag.String("size", "300x300", "thumbnail bounding box, WIDTHxHEIGHT")
	mode     = flag.String("mode", "fit", "thumbnail mode: fit or fill")
	quality  = flag.Int("quality", 85, "JPEG quality")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	travelog.LoadEnv()

	w, h, err := photo.ParseSize(*size)
	if err != nil {
		klog.Exitf("size: %v", err)
	}
	m, err := photo.ParseMode(*mode)
	if err != nil {
		klog.Exitf("mode: %v", err)
	}

	c := travelog.DefaultConfig()
	c.MediaDir = *mediaDir
	if c.MediaDir == "" {
		c.MediaDir = travelog.EnvOr(travelog.EnvMedia, "")
	}
	c.Thumb = photo.ThumbOpts{Width: w, Height: h, Quality: *quality, Mode: m}

	ctx := context.Background()
	driver := *dbDriver
	if driver == "" {
		driver = travelog.EnvOr(travelog.EnvDBDriver, "sqlite3")
	}
	dsn := *dbDSN
	if dsn == "" {
		dsn = travelog.EnvOr(travelog.EnvDB, "travelog.db")
	}
	s, err := travelog.OpenStore(ctx, driver, dsn)
	if err != nil {
		klog.Exitf("store: %v", err)
	}
	defer s.Close()

	o := travelog.BackfillOpts{Force: *force}
	if *entryID > 0 {
		o.EntryID = entryID
	}

	r, err := travelog.BackfillThumbnails(ctx, s, c, o)
	if err != nil {
		klog.Exitf("backfill failed: %v", err)
	}
	klog.Infof("done: %s", r)
}
