package config

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// NewLogger returns the console logger shared by the API and the CLI tools.
func NewLogger(cfg *Config) arbor.ILogger {
	return arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
	}).WithLevelFromString(cfg.Logging.Level)
}
