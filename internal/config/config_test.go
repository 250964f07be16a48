package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(newFlagSet(t, "--data-dir", dir))
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "randpick.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "prefs.bolt"), cfg.PrefsPath)
	assert.Equal(t, filepath.Join(dir, "repos"), cfg.ReposDir)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, []string{".txt", ".md", ".list"}, cfg.SourceExts)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "randpick.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
data_dir: `+dir+`
addr: "localhost:9000"
log_level: debug
history_limit: 5
`), 0o644))

	t.Setenv("RANDPICK_LOG_LEVEL", "warn")

	cfg, err := Load(newFlagSet(t, "--config", cfgFile, "--history-limit", "50"))
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir, "file value used")
	assert.Equal(t, "localhost:9000", cfg.Addr, "file beats flag default")
	assert.Equal(t, "warn", cfg.LogLevel, "env beats file")
	assert.Equal(t, 50, cfg.HistoryLimit, "explicit flag beats file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(newFlagSet(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DataDir:      "/tmp/x",
		Addr:         "127.0.0.1:8080",
		LogLevel:     "info",
		HistoryLimit: 20,
		SourceExts:   []string{".txt"},
	}
	require.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing data dir", func(c *Config) { c.DataDir = "" }},
		{"bad address", func(c *Config) { c.Addr = "not an address" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"history limit too small", func(c *Config) { c.HistoryLimit = 0 }},
		{"extension without dot", func(c *Config) { c.SourceExts = []string{"txt"} }},
		{"no extensions", func(c *Config) { c.SourceExts = nil }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	cfg, err := Load(newFlagSet(t, "--data-dir", dir))
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureDirs())

	info, err := os.Stat(cfg.ReposDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
