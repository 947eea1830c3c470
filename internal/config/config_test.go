package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 400.0, cfg.Layout.CenterX)
	assert.Equal(t, 300.0, cfg.Layout.CenterY)
	assert.Equal(t, 250.0, cfg.Layout.Radius)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
}

func TestLoad_MergesOntoDefaults(t *testing.T) {
	path := writeConfig(t, `
[source]
kind = "sqlite"

[sqlite]
path = "/var/lib/casegraph/graph.db"

[layout]
radius = 300.0

[log]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, cfg.Source.Kind)
	assert.Equal(t, "/var/lib/casegraph/graph.db", cfg.SQLite.Path)
	assert.Equal(t, 300.0, cfg.Layout.Radius)
	assert.Equal(t, 400.0, cfg.Layout.CenterX, "unset keys keep defaults")
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[server\naddr ="))
	assert.ErrorContains(t, err, "failed to parse TOML")
}

func TestLoadOrDefault_MissingFileUsesDefaults(t *testing.T) {
	cfg, found, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadOrDefault_MalformedFileIsAnError(t *testing.T) {
	for _, body := range []string{
		"[source]\nkind = ",
		"[server]\nshutdown_timeout_seconds = \"soon\"",
	} {
		cfg, found, err := LoadOrDefault(writeConfig(t, body))

		assert.ErrorContains(t, err, "failed to parse TOML", body)
		assert.Nil(t, cfg)
		assert.False(t, found)
	}
}

func TestLoadOrDefault_ReadsExistingFile(t *testing.T) {
	cfg, found, err := LoadOrDefault(writeConfig(t, "[source]\nkind = \"sqlite\""))

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, SourceSQLite, cfg.Source.Kind)
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()

	err := cfg.ApplyEnv(envMap(map[string]string{
		"PORT":                        "9000",
		"CASEGRAPH_SOURCE":            "memgraph",
		"CASEGRAPH_MEMGRAPH_PASSWORD": "s3cret",
		"CASEGRAPH_RATE_LIMIT_RPS":    "2.5",
		"CASEGRAPH_LOG_LEVEL":         "",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, SourceMemgraph, cfg.Source.Kind)
	assert.Equal(t, "s3cret", cfg.Memgraph.Password)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "info", cfg.Log.Level, "empty values do not override")
}

func TestApplyEnv_AddrBeatsPort(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		"PORT":           "9000",
		"CASEGRAPH_ADDR": "127.0.0.1:7000",
	})))
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
}

func TestApplyEnv_BadNumber(t *testing.T) {
	cfg := Defaults()
	err := cfg.ApplyEnv(envMap(map[string]string{"CASEGRAPH_RATE_LIMIT_RPS": "fast"}))
	assert.ErrorContains(t, err, "CASEGRAPH_RATE_LIMIT_RPS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown source", func(c *Config) { c.Source.Kind = "oracle" }, "Source.Kind"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "Log.Level"},
		{"zero radius", func(c *Config) { c.Layout.Radius = 0 }, "Layout.Radius"},
		{"bad remote url", func(c *Config) { c.Remote.BaseURL = "not a url" }, "Remote.BaseURL"},
		{"remote without url", func(c *Config) { c.Source.Kind = SourceRemote }, "remote.base_url"},
		{"postgres without url", func(c *Config) { c.Source.Kind = SourcePostgres }, "postgres.url"},
		{"sqlite without path", func(c *Config) {
			c.Source.Kind = SourceSQLite
			c.SQLite.Path = ""
		}, "sqlite.path"},
		{"unknown community algorithm", func(c *Config) { c.Community.Algorithm = "louvain" }, "Community.Algorithm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
