package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"tte/tracker"
)

const (
	// PathEnvVar overrides the location of the config file.
	PathEnvVar = "TTE_CONFIG"
	envPrefix  = "TTE"
	fileName   = "time-tracker-edge.toml"
)

const (
	BackendEdgeDB = "edgedb"
	BackendSQLite = "sqlite"
)

// DefaultPath returns the config file path from the environment or the
// user config directory.
func DefaultPath() (string, error) {
	if envValue := os.Getenv(PathEnvVar); envValue != "" {
		return filepath.Clean(envValue), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: cannot find config location: %w", tracker.ErrConfigIO, err)
	}
	return filepath.Join(dir, fileName), nil
}

// Settings are the runtime knobs. They come from the config file, with
// TTE_* environment variables taking precedence, and are never written
// back.
type Settings struct {
	Backend     string
	EdgeDBDSN   string
	SQLitePath  string
	LogLevel    slog.Level
	Timeout     time.Duration
	AtomicStart bool
}

func defaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".tte", "tte.db")
	}
	return filepath.Join(dir, "tte", "tte.db")
}

// LoadSettings reads settings from path. A missing file yields defaults.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("backend", BackendEdgeDB)
	v.SetDefault("edgedb_dsn", "")
	v.SetDefault("sqlite_path", defaultSQLitePath())
	v.SetDefault("log_level", "warn")
	v.SetDefault("timeout", "30s")
	v.SetDefault("atomic_start", true)

	if err := readConfig(v); err != nil {
		return Settings{}, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Settings{}, fmt.Errorf("invalid log_level %q: %w", v.GetString("log_level"), err)
	}

	backend := strings.ToLower(v.GetString("backend"))
	if backend != BackendEdgeDB && backend != BackendSQLite {
		return Settings{}, fmt.Errorf("unknown backend %q (want %s or %s)", backend, BackendEdgeDB, BackendSQLite)
	}

	timeout, err := time.ParseDuration(v.GetString("timeout"))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid timeout %q: %w", v.GetString("timeout"), err)
	}

	return Settings{
		Backend:     backend,
		EdgeDBDSN:   v.GetString("edgedb_dsn"),
		SQLitePath:  v.GetString("sqlite_path"),
		LogLevel:    level,
		Timeout:     timeout,
		AtomicStart: v.GetBool("atomic_start"),
	}, nil
}

// readConfig loads the file into v, treating a missing file as empty.
func readConfig(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: reading config file: %w", tracker.ErrConfigIO, err)
}
