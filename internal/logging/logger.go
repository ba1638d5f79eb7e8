// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

// Package logging provides the zerolog-based global logger.
//
// Initialize once at startup:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
// then log through the package-level helpers:
//
//	logging.Info().Str("user_id", id).Msg("request processed")
//
// Component packages derive scoped loggers from Logger() instead of
// importing this package deep in the call tree.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string

	// Format is the output format: json or console.
	Format string

	// Output is the writer for log output. Default os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stderr,
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // ensures logging works before explicit Init()
func init() {
	initLogger(DefaultConfig())
}

// Init configures the global logger. Safe to call more than once; the
// last call wins.
func Init(cfg Config) error {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}
	cfg.Level = level.String()

	initLogger(cfg)
	return nil
}

func initLogger(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	mu.Lock()
	log = zerolog.New(out).Level(level).With().Timestamp().Logger()
	mu.Unlock()
}

// Logger returns the global logger for deriving component loggers.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Trace starts a trace-level event.
func Trace() *zerolog.Event { l := Logger(); return l.Trace() }

// Debug starts a debug-level event.
func Debug() *zerolog.Event { l := Logger(); return l.Debug() }

// Info starts an info-level event.
func Info() *zerolog.Event { l := Logger(); return l.Info() }

// Warn starts a warn-level event.
func Warn() *zerolog.Event { l := Logger(); return l.Warn() }

// Error starts an error-level event.
func Error() *zerolog.Event { l := Logger(); return l.Error() }

// Fatal starts a fatal-level event; the program exits after Msg.
func Fatal() *zerolog.Event { l := Logger(); return l.Fatal() }
