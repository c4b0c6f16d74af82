// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"wine-classifier/internal/common"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger
type Options struct {
	Level  string
	Format string // "console" or "json"
	File   string // optional, rotated by lumberjack
	Writer io.Writer

	// Rotation limits; zero values use lumberjack-friendly defaults.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup replaces the global logger. The returned closer flushes and closes
// the log file, if any.
func Setup(opt Options) (io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(ParseLevel(opt.Level))

	var out io.Writer = os.Stderr
	if opt.Writer != nil {
		out = opt.Writer
	}
	if strings.ToLower(opt.Format) != common.LogFormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	if opt.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opt.File,
			MaxSize:    orDefault(opt.MaxSizeMB, 50),
			MaxBackups: orDefault(opt.MaxBackups, 5),
			MaxAge:     orDefault(opt.MaxAgeDays, 28),
			Compress:   true,
		}
		// files always get JSON lines
		out = zerolog.MultiLevelWriter(out, rotator)
		closer = rotator
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer, nil
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
