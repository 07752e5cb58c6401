package common

import (
	"fmt"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SlogResetLevel returns a function that resets the slog level to the previous level,
// pairs well with defer.
// Use like:
// func Test123(t *testing.T) {
//     defer common.SlogResetLevel(slog.Level(slog.LevelWarn + 1))()
func SlogResetLevel(level slog.Level) (reset func()) {
	oldLevel := slog.SetLogLoggerLevel(level)
	return func() {
		slog.SetLogLoggerLevel(oldLevel)
	}
}

// SlogOptions configures the default logger.
type SlogOptions struct {
	Level slog.Level
	// Format is "text" or "json".
	Format string
	// File, if set, is written instead of stderr and rotated at MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// SetupSlog installs a default slog logger, and routes the standard logger
// through it. The returned closer closes the log file, if any.
func SetupSlog(opts SlogOptions) (io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		w, closer = lj, lj
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		h = slog.NewTextHandler(w, handlerOpts)
	case "json":
		h = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	slog.SetDefault(slog.New(h))
	log.SetFlags(0)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
