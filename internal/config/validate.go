package config

import (
	"fmt"
	"slices"

	"github.com/roach88/treemig/internal/batch"
	"github.com/roach88/treemig/internal/log"
)

// OutputFormats lists accepted values of Format.
var OutputFormats = []string{"text", "json"}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if _, err := batch.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	if c.Delimiter == "" {
		return fmt.Errorf("delimiter must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d (0 disables the limit)", c.MaxDepth)
	}
	if _, err := log.GetLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := log.GetFormat(c.LogFormat); err != nil {
		return fmt.Errorf("log_format: %w", err)
	}
	if !slices.Contains(OutputFormats, c.Format) {
		return fmt.Errorf("format: invalid format %q (must be text or json)", c.Format)
	}
	return nil
}
