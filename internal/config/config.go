// Package config resolves fieldsync settings from defaults, an optional .env
// file and the process environment. Command-line flags are applied on top by
// the cli package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/roach88/fieldsync/internal/store"
)

// Environment variables read by Load.
const (
	EnvDB          = "FIELDSYNC_DB"
	EnvAPIURL      = "FIELDSYNC_API_URL"
	EnvKeyPrefix   = "FIELDSYNC_KEY_PREFIX"
	EnvHTTPTimeout = "FIELDSYNC_HTTP_TIMEOUT"
	EnvAddr        = "FIELDSYNC_ADDR"
)

// DefaultEnvFile is read when no env file is named explicitly. Its absence is
// not an error.
const DefaultEnvFile = ".env"

// Defaults.
const (
	DefaultDB          = "fieldsync.db"
	DefaultHTTPTimeout = 15 * time.Second
	DefaultAddr        = ":8080"
)

// Config holds resolved settings.
type Config struct {
	// DB is the SQLite file backing the local store.
	DB string

	// APIURL is the remote API base URL. Empty means submissions are saved
	// locally only.
	APIURL string

	// KeyPrefix namespaces submission logs in the medium.
	KeyPrefix string

	// HTTPTimeout bounds each remote request.
	HTTPTimeout time.Duration

	// Addr is the dev server listen address.
	Addr string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DB:          DefaultDB,
		KeyPrefix:   store.DefaultKeyPrefix,
		HTTPTimeout: DefaultHTTPTimeout,
		Addr:        DefaultAddr,
	}
}

// Load layers defaults, then envFile, then the process environment. Process
// variables win over the file. An empty envFile means DefaultEnvFile, which
// may be missing; an explicitly named file must exist.
func Load(envFile string) (Config, error) {
	cfg := Default()

	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}
	fileVars, err := godotenv.Read(envFile)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		fileVars = nil
	default:
		return Config{}, fmt.Errorf("read env file %s: %w", envFile, err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	if err := cfg.apply(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDB); ok && v != "" {
		c.DB = v
	}
	if v, ok := lookup(EnvAPIURL); ok {
		c.APIURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvKeyPrefix); ok && v != "" {
		c.KeyPrefix = v
	}
	if v, ok := lookup(EnvHTTPTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHTTPTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s: must be positive, got %s", EnvHTTPTimeout, v)
		}
		c.HTTPTimeout = d
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Addr = v
	}
	return nil
}
