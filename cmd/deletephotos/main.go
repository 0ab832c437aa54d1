// deletephotos removes every photo of a blog entry.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/store"
	"github.com/mauriciobarrev/otravezlunes/pkg/travelog"
)

var (
	dbDriver    = flag.String("db-driver", "", "database driver (default $TRAVELOG_DB_DRIVER or sqlite3)")
	dbDSN       = flag.String("db", "", "database DSN (default $TRAVELOG_DB or travelog.db)")
	mediaDir    = flag.String("media", "", "media root stored paths are relative to (default $TRAVELOG_MEDIA)")
	entryID     = flag.Int64("entry", 0, "entry id")
	entryTitle  = flag.String("entry-title", "", "entry title")
	deleteFiles = flag.Bool("delete-files", false, "also remove the image and thumbnail files")
	force       = flag.Bool("force", false, "do not ask for confirmation")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	travelog.LoadEnv()

	if (*entryID > 0) == (*entryTitle != "") {
		klog.Exitf("exactly one of --entry or --entry-title is required")
	}

	c := travelog.DefaultConfig()
	c.MediaDir = *mediaDir
	if c.MediaDir == "" {
		c.MediaDir = travelog.EnvOr(travelog.EnvMedia, "")
	}

	driver := *dbDriver
	if driver == "" {
		driver = travelog.EnvOr(travelog.EnvDBDriver, "sqlite3")
	}
	dsn := *dbDSN
	if dsn == "" {
		dsn = travelog.EnvOr(travelog.EnvDB, "travelog.db")
	}

	ctx := context.Background()
	s, err := travelog.OpenStore(ctx, driver, dsn)
	if err != nil {
		klog.Exitf("store: %v", err)
	}
	defer s.Close()

	e, err := travelog.FindEntry(ctx, s, travelog.EntryTarget{ID: *entryID, Title: *entryTitle})
	if err != nil {
		klog.Exitf("entry: %v", err)
	}

	phs, err := s.Photos(ctx, store.PhotoFilter{EntryID: &e.ID})
	if err != nil {
		klog.Exitf("photos: %v", err)
	}
	if len(phs) == 0 {
		klog.Infof("entry %d %q has no photos", e.ID, e.Title)
		return
	}

	fmt.Printf("entry %d %q has %d photos:\n", e.ID, e.Title, len(phs))
	for i, ph := range phs {
		fmt.Printf("  %d. photo %d: %s (order %d)\n", i+1, ph.ID, filepath.Base(ph.ImagePath), ph.EntryOrder)
	}

	if !*force && !confirm(*deleteFiles) {
		klog.Infof("cancelled")
		return
	}

	r, err := travelog.DeleteEntryPhotos(ctx, s, c, e.ID, *deleteFiles)
	if err != nil {
		klog.Exitf("delete failed: %v", err)
	}
	klog.Infof("entry %d: %s", e.ID, r)
}

func confirm(files bool) bool {
	msg := "delete all of these photos"
	if files {
		msg += " and their files"
	}
	fmt.Printf("%s? type 'yes' to continue: ", msg)

	l, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && l == "" {
		return false
	}
	return strings.TrimSpace(l) == "yes"
}
