package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Service credentials are not
// checked here: which credentials are required depends on the service being
// synced, so the service clients validate their own sections at construction.
func (c *Config) Validate() error {
	if err := c.validateSync(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSync() error {
	if c.Sync.BatchSize > 1000 {
		return errors.New("sync.batch_size must be 1000 or less")
	}
	if c.Sync.ResolveWorkers > 64 {
		return errors.New("sync.resolve_workers must be 64 or less")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
