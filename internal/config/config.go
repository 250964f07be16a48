package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables, so RANDPICK_DB_PATH sets db_path.
const EnvPrefix = "RANDPICK_"

// Config holds everything the CLI and server need to start.
type Config struct {
	DataDir      string   `koanf:"data_dir" validate:"required"`
	DBPath       string   `koanf:"db_path"`
	PrefsPath    string   `koanf:"prefs_path"`
	ReposDir     string   `koanf:"repos_dir"`
	Addr         string   `koanf:"addr" validate:"required,hostname_port"`
	LogLevel     string   `koanf:"log_level" validate:"oneof=debug info warn error"`
	HistoryLimit int      `koanf:"history_limit" validate:"gte=1,lte=1000"`
	SourceExts   []string `koanf:"source_exts" validate:"min=1,dive,startswith=."`
}

// RegisterFlags adds the config flags and their defaults to fs.
// Flag names use dashes; they map onto the underscore keys above.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file")
	fs.String("data-dir", defaultDataDir(), "Directory holding the database and preferences")
	fs.String("db-path", "", "Path to the SQLite database file (default <data-dir>/randpick.db)")
	fs.String("prefs-path", "", "Path to the preferences file (default <data-dir>/prefs.bolt)")
	fs.String("repos-dir", "", "Directory git sources are cloned into (default <data-dir>/repos)")
	fs.String("addr", "127.0.0.1:8080", "Address the HTTP API listens on")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.Int("history-limit", 20, "Number of recent draws to show")
	fs.StringSlice("source-exts", []string{".txt", ".md", ".list"}, "File extensions imported from sources")
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "randpick")
	}
	return ".randpick"
}

// Load layers the config file, environment and flags, in increasing priority.
// fs must have been set up with RegisterFlags and parsed.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, _ := fs.GetString("config")
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Unchanged flags only fill keys the file and environment left empty.
	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if f.Name == "config" {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDerivedPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDerivedPaths() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "randpick.db")
	}
	if c.PrefsPath == "" {
		c.PrefsPath = filepath.Join(c.DataDir, "prefs.bolt")
	}
	if c.ReposDir == "" {
		c.ReposDir = filepath.Join(c.DataDir, "repos")
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// EnsureDirs creates the directories the config points at.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, filepath.Dir(c.DBPath), filepath.Dir(c.PrefsPath), c.ReposDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
