// slugs gives every entry without a slug one derived from its title.
package main

import (
	"context"
	"flag"

	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/travelog"
)

var (
	dbDriver = flag.String("db-driver", "", "database driver (default $TRAVELOG_DB_DRIVER or sqlite3)")
	dbDSN    = flag.String("db", "", "database DSN (default $TRAVELOG_DB or travelog.db)")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	travelog.LoadEnv()

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

	n, err := travelog.BackfillSlugs(ctx, s)
	if err != nil {
		klog.Exitf("backfill failed: %v", err)
	}
	klog.Infof("set %d slugs", n)
}
