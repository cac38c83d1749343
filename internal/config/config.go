package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and input-file configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	ExportPath string `toml:"export_path"`
}

// Letterboxd contains configuration for the source catalog site: the base URL
// used when resolving film pages and the optional credentials used to download
// the ratings export.
type Letterboxd struct {
	BaseURL  string `toml:"base_url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Trakt contains configuration for the Trakt API.
type Trakt struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
}

// Sync contains tuning knobs for the reconciliation run.
type Sync struct {
	BatchSize          int `toml:"batch_size"`
	ResolveWorkers     int `toml:"resolve_workers"`
	CheckpointInterval int `toml:"checkpoint_interval"`
	RequestDelayMS     int `toml:"request_delay_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelsync.
//
// Configuration sections by subsystem:
//   - Paths: data directory (cache, sessions, lock, run history) and export file
//   - Letterboxd: film page base URL and export download credentials
//   - TMDB: rating sync via The Movie Database
//   - Trakt: rating sync via Trakt
//   - Sync: batch size, resolver worker count, cache checkpoint cadence,
//     politeness delay between calls to the same service
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Letterboxd Letterboxd `toml:"letterboxd"`
	TMDB       TMDB       `toml:"tmdb"`
	Trakt      Trakt      `toml:"trakt"`
	Sync       Sync       `toml:"sync"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for a sync run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// IdentityCachePath returns the path of the persisted reference→identity cache.
func (c *Config) IdentityCachePath() string {
	return filepath.Join(c.Paths.DataDir, "tmdb_id_cache.json")
}

// TMDBSessionPath returns the path of the persisted TMDB session file.
func (c *Config) TMDBSessionPath() string {
	return filepath.Join(c.Paths.DataDir, "tmdb_session.json")
}

// TraktTokenPath returns the path of the persisted Trakt token file.
func (c *Config) TraktTokenPath() string {
	return filepath.Join(c.Paths.DataDir, "trakt_session.json")
}

// RunLogPath returns the path of the sqlite run-history database.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.Paths.DataDir, "runs.db")
}

// LockPath returns the path of the lock file guarding concurrent sync runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "reelsync.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
