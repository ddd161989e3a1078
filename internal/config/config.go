// Package config loads schemconv settings from a TOML file.
//
// The default location is $XDG_CONFIG_HOME/schemconv/config.toml (falling
// back to ~/.config). A missing file is not an error: every field has a
// default, and the file only needs to name what it changes.
//
//	[cache]
//	backend = "redis"
//	ttl = "72h"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	session_ttl = "10m"
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/schemconv/pkg/cache"
	errs "github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/session"
)

const appName = "schemconv"

// Cache backends.
const (
	BackendFile  = "file"
	BackendNone  = "none"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Backends lists the accepted values of cache.backend.
var Backends = []string{BackendFile, BackendNone, BackendRedis, BackendMongo}

// Config is the full configuration file.
type Config struct {
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
	Defaults Defaults `toml:"defaults"`
	Engine   Engine   `toml:"engine"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// Cache selects and tunes the conversion cache.
type Cache struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	TTL      Duration `toml:"ttl"`
	Compress bool     `toml:"compress"`
	Redis    Redis    `toml:"redis"`
	Mongo    Mongo    `toml:"mongo"`
}

type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type Mongo struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server configures `schemconv serve`.
type Server struct {
	Addr       string   `toml:"addr"`
	SessionTTL Duration `toml:"session_ttl"`
	MaxBody    int64    `toml:"max_body"`
}

// Defaults fill in model fields the input does not carry.
type Defaults struct {
	DataVersion      int32  `toml:"data_version"`
	LitematicVersion int32  `toml:"litematic_version"`
	Author           string `toml:"author"`
}

// Engine tunes decoding.
type Engine struct {
	Workers         int   `toml:"workers"`
	MaxDecompressed int64 `toml:"max_decompressed"`
}

// Duration is a time.Duration written as "30m" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Cache: Cache{
			Backend: BackendFile,
			Redis:   Redis{Addr: "localhost:6379"},
			Mongo:   Mongo{URI: "mongodb://localhost:27017", Database: appName, Collection: "cache"},
		},
		Server: Server{
			Addr:       ":8080",
			SessionTTL: Duration{session.DefaultTTL},
			MaxBody:    64 << 20,
		},
	}
}

// DefaultPath returns the config file location, honoring XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path, or DefaultPath when path is empty. A missing default
// file yields Default(); a missing explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "open config")
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Decode parses TOML from r on top of Default() and validates the result.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate rejects values no component can honor.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errs.New(errs.ErrCodeInvalidConfig, format, args...)
	}
	if !slices.Contains(Backends, c.Cache.Backend) {
		return invalid("cache.backend %q: want one of %v", c.Cache.Backend, Backends)
	}
	if c.Cache.TTL.Duration < 0 {
		return invalid("cache.ttl must not be negative")
	}
	if c.Cache.Backend == BackendRedis && c.Cache.Redis.Addr == "" {
		return invalid("cache.redis.addr is required for the redis backend")
	}
	if c.Cache.Backend == BackendMongo && c.Cache.Mongo.URI == "" {
		return invalid("cache.mongo.uri is required for the mongo backend")
	}
	if c.Server.SessionTTL.Duration < 0 {
		return invalid("server.session_ttl must not be negative")
	}
	if c.Server.MaxBody < 0 {
		return invalid("server.max_body must not be negative")
	}
	if c.Defaults.DataVersion < 0 || c.Defaults.LitematicVersion < 0 {
		return invalid("defaults versions must not be negative")
	}
	if c.Engine.Workers < 0 || c.Engine.MaxDecompressed < 0 {
		return invalid("engine limits must not be negative")
	}
	return nil
}

// CacheDir returns cache.dir, or the per-user default.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return cache.DefaultDir()
}
