package travelog

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/store"
)

// Environment keys read by the commands.
const (
	EnvDBDriver       = "TRAVELOG_DB_DRIVER"
	EnvDB             = "TRAVELOG_DB"
	EnvMedia          = "TRAVELOG_MEDIA"
	EnvNominatimURL   = "NOMINATIM_URL"
	EnvNominatimAgent = "NOMINATIM_USER_AGENT"
	EnvGoogleAIKey    = "GOOGLE_AI_API_KEY"
)

// LoadEnv loads .env from the working directory, if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		klog.Warningf("unable to load .env: %v", err)
	}
}

// EnvOr returns the value of key, or d if it is unset or empty.
func EnvOr(key string, d string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return d
}

// OpenStore opens and migrates the database.
func OpenStore(ctx context.Context, driver string, dsn string) (*store.Store, error) {
	s, err := store.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
