package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	Dir           string
	RetentionDays int
	Level         string
}

// New builds a logger writing to stdout and to a rotating app.log in cfg.Dir.
// The returned closer flushes and closes the log file.
func New(cfg Config) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, nil, err
	}
	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, "app.log"),
		MaxSize:    10, // megabytes
		MaxBackups: cfg.RetentionDays,
		MaxAge:     cfg.RetentionDays,
		Compress:   true,
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(io.MultiWriter(os.Stdout, fileWriter), log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "wellness",
	})
	return logger, fileWriter, nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
