package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLetterboxd()
	c.normalizeTMDB()
	c.normalizeTrakt()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportPath) != "" {
		if c.Paths.ExportPath, err = expandPath(c.Paths.ExportPath); err != nil {
			return fmt.Errorf("paths.export_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLetterboxd() {
	c.Letterboxd.BaseURL = strings.TrimRight(strings.TrimSpace(c.Letterboxd.BaseURL), "/")
	if c.Letterboxd.BaseURL == "" {
		c.Letterboxd.BaseURL = defaultLetterboxdBaseURL
	}
	if c.Letterboxd.Username == "" {
		c.Letterboxd.Username = strings.TrimSpace(os.Getenv("LETTERBOXD_USERNAME"))
	}
	if c.Letterboxd.Password == "" {
		c.Letterboxd.Password = os.Getenv("LETTERBOXD_PASSWORD")
	}
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		c.TMDB.APIKey = strings.TrimSpace(os.Getenv("TMDB_API_KEY"))
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	if strings.TrimSpace(c.TMDB.Language) == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeTrakt() {
	if c.Trakt.ClientID == "" {
		c.Trakt.ClientID = strings.TrimSpace(os.Getenv("TRAKT_CLIENT_ID"))
	}
	if c.Trakt.ClientSecret == "" {
		c.Trakt.ClientSecret = strings.TrimSpace(os.Getenv("TRAKT_CLIENT_SECRET"))
	}
	c.Trakt.BaseURL = strings.TrimRight(strings.TrimSpace(c.Trakt.BaseURL), "/")
	if c.Trakt.BaseURL == "" {
		c.Trakt.BaseURL = defaultTraktBaseURL
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.BatchSize <= 0 {
		c.Sync.BatchSize = defaultBatchSize
	}
	if c.Sync.ResolveWorkers <= 0 {
		c.Sync.ResolveWorkers = defaultResolveWorkers
	}
	if c.Sync.CheckpointInterval <= 0 {
		c.Sync.CheckpointInterval = defaultCheckpointInterval
	}
	if c.Sync.RequestDelayMS < 0 {
		c.Sync.RequestDelayMS = defaultRequestDelayMS
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
