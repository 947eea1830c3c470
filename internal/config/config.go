package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/agenthands/casegraph/internal/core/layout"
)

const (
	SourceMemory   = "memory"
	SourceMemgraph = "memgraph"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceRemote   = "remote"
)

type ServerConfig struct {
	Addr                   string `toml:"addr" validate:"required"`
	Mode                   string `toml:"mode" validate:"oneof=debug release test"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds" validate:"gte=0"`
	// MaxCaseViews caps the number of cases held in memory. Zero disables the cap.
	MaxCaseViews           int    `toml:"max_case_views" validate:"gte=0"`
}

type SourceConfig struct {
	Kind     string `toml:"kind" validate:"oneof=memory memgraph sqlite postgres remote"`
	SeedFile string `toml:"seed_file"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type SQLiteConfig struct {
	Path string `toml:"path"`
}

type PostgresConfig struct {
	URL      string `toml:"url"`
	MaxConns int32  `toml:"max_conns" validate:"gte=0"`
}

type RemoteConfig struct {
	BaseURL        string `toml:"base_url" validate:"omitempty,url"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gte=0"`
	Token          string `toml:"token"`
}

type CommunityConfig struct {
	Algorithm     string `toml:"algorithm" validate:"oneof=lpa components"`
	MaxIterations int    `toml:"max_iterations" validate:"gte=0"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
	Burst             int     `toml:"burst" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=text json logfmt"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Source    SourceConfig    `toml:"source"`
	Memgraph  MemgraphConfig  `toml:"memgraph"`
	SQLite    SQLiteConfig    `toml:"sqlite"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Remote    RemoteConfig    `toml:"remote"`
	Layout    layout.Config   `toml:"layout"`
	Community CommunityConfig `toml:"community"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Log       LogConfig       `toml:"log"`
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                   ":8080",
			Mode:                   "release",
			ShutdownTimeoutSeconds: 10,
			MaxCaseViews:           1000,
		},
		Source: SourceConfig{Kind: SourceMemory},
		Memgraph: MemgraphConfig{
			URI: "bolt://localhost:7687",
		},
		SQLite:    SQLiteConfig{Path: "casegraph.db"},
		Postgres:  PostgresConfig{MaxConns: 10},
		Remote:    RemoteConfig{TimeoutSeconds: 15},
		Layout:    layout.DefaultConfig(),
		Community: CommunityConfig{Algorithm: "lpa", MaxIterations: 20},
		RateLimit: RateLimitConfig{RequestsPerSecond: 20, Burst: 40},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a TOML file on top of Defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Defaults and
// found=false. A file that exists but cannot be read or parsed is an error.
func LoadOrDefault(path string) (cfg *Config, found bool, err error) {
	cfg, err = Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// ApplyEnv overrides settings from CASEGRAPH_* variables. PORT is honoured
// for platforms that inject it.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	str("CASEGRAPH_ADDR", &c.Server.Addr)
	str("CASEGRAPH_MODE", &c.Server.Mode)
	str("CASEGRAPH_SOURCE", &c.Source.Kind)
	str("CASEGRAPH_SEED_FILE", &c.Source.SeedFile)
	str("CASEGRAPH_MEMGRAPH_URI", &c.Memgraph.URI)
	str("CASEGRAPH_MEMGRAPH_USER", &c.Memgraph.User)
	str("CASEGRAPH_MEMGRAPH_PASSWORD", &c.Memgraph.Password)
	str("CASEGRAPH_SQLITE_PATH", &c.SQLite.Path)
	str("CASEGRAPH_POSTGRES_URL", &c.Postgres.URL)
	str("CASEGRAPH_REMOTE_URL", &c.Remote.BaseURL)
	str("CASEGRAPH_REMOTE_TOKEN", &c.Remote.Token)
	str("CASEGRAPH_LOG_LEVEL", &c.Log.Level)
	str("CASEGRAPH_LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("CASEGRAPH_RATE_LIMIT_RPS"); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CASEGRAPH_RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimit.RequestsPerSecond = rps
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the selected source is
// configured.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Source.Kind {
	case SourceMemgraph:
		if c.Memgraph.URI == "" {
			return errors.New("invalid config: memgraph.uri is required for the memgraph source")
		}
	case SourceSQLite:
		if c.SQLite.Path == "" {
			return errors.New("invalid config: sqlite.path is required for the sqlite source")
		}
	case SourcePostgres:
		if c.Postgres.URL == "" {
			return errors.New("invalid config: postgres.url is required for the postgres source")
		}
	case SourceRemote:
		if c.Remote.BaseURL == "" {
			return errors.New("invalid config: remote.base_url is required for the remote source")
		}
	}
	return nil
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}
