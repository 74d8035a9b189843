package config

import (
	"fmt"
)

// LoggingConfig defines the per-run message log.
type LoggingConfig struct {
	// File is created inside the batch output folder.
	File string `json:"file"`
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.File == "" {
		c.File = "effects_messages.log"
	}
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %s", c.Level)
	}
	if c.File == "" {
		return fmt.Errorf("file is required")
	}
	return nil
}
