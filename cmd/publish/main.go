// publish renders a Markdown file and stores it as a blog entry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/content"
	"github.com/mauriciobarrev/otravezlunes/pkg/model"
	"github.com/mauriciobarrev/otravezlunes/pkg/store"
	"github.com/mauriciobarrev/otravezlunes/pkg/travelog"
)

var (
	dbDriver = flag.String("db-driver", "", "database driver (default $TRAVELOG_DB_DRIVER or sqlite3)")
	dbDSN    = flag.String("db", "", "database DSN (default $TRAVELOG_DB or travelog.db)")
	title    = flag.String("title", "", "entry title (default: first heading, else the file name)")
	slug     = flag.String("slug", "", "entry slug; updates the entry with this slug if it exists")
	author   = flag.String("author", "", "entry author")
	placeID  = flag.Int64("place", 0, "place id the entry is about")
	preview  = flag.Bool("preview", false, "print the rendered HTML and excerpt instead of storing")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	travelog.LoadEnv()

	if len(flag.Args()) != 1 {
		klog.Exitf("usage: %s [flags] <entry.md>", os.Args[0])
	}
	path := flag.Args()[0]

	bs, err := os.ReadFile(path)
	if err != nil {
		klog.Exitf("read: %v", err)
	}
	md := string(bs)

	if *preview {
		if err := content.Validate(md); err != nil {
			klog.Exitf("invalid content: %v", err)
		}
		r, err := content.Render(md)
		if err != nil {
			klog.Exitf("render failed: %v", err)
		}
		fmt.Println(r.HTML)
		fmt.Printf("<!-- excerpt: %s -->\n", r.Excerpt)
		return
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

	e := &model.Entry{}
	if *slug != "" {
		existing, err := s.EntryBySlug(ctx, *slug)
		switch {
		case err == nil:
			klog.Infof("updating entry %d", existing.ID)
			e = existing
		case errors.Is(err, store.ErrNotFound):
			e.Slug = *slug
		default:
			klog.Exitf("lookup: %v", err)
		}
	}

	e.Content = md
	if *title != "" {
		e.Title = *title
	}
	if e.Title == "" {
		e.Title = guessTitle(md, path)
	}
	if *author != "" {
		e.Author = *author
	}
	if *placeID > 0 {
		if _, err := s.Place(ctx, *placeID); err != nil {
			klog.Exitf("place: %v", err)
		}
		e.PlaceID = placeID
	}

	if err := travelog.Publish(ctx, s, e); err != nil {
		klog.Exitf("publish failed: %v", err)
	}
	fmt.Printf("%d %s\n", e.ID, e.Slug)
}

// guessTitle returns the first level-one heading, or the file name.
func guessTitle(md string, path string) string {
	for _, l := range strings.Split(md, "\n") {
		if t, ok := strings.CutPrefix(strings.TrimSpace(l), "# "); ok && strings.TrimSpace(t) != "" {
			return strings.TrimSpace(t)
		}
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
