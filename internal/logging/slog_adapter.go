// FriendRec - Friend Recommendation Scoring Engine
// Copyright 2026 CampusMatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusmatch/friendrec

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// Slog returns a *slog.Logger bridged onto the global zerolog logger.
// Used for libraries that speak slog (suture via sutureslog).
func Slog() *slog.Logger {
	return slog.New(&slogHandler{logger: Logger()})
}

// slogHandler adapts slog records onto zerolog events.
type slogHandler struct {
	logger zerolog.Logger
	attrs  []slog.Attr
	group  string
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return mapLevel(level) >= h.logger.GetLevel()
}

func (h *slogHandler) Handle(_ context.Context, rec slog.Record) error {
	event := h.logger.WithLevel(mapLevel(rec.Level))

	for _, attr := range h.attrs {
		event = appendAttr(event, h.group, attr)
	}
	rec.Attrs(func(attr slog.Attr) bool {
		event = appendAttr(event, h.group, attr)
		return true
	})

	event.Msg(rec.Message)
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	combined = append(combined, h.attrs...)
	combined = append(combined, attrs...)
	return &slogHandler{logger: h.logger, attrs: combined, group: h.group}
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	prefix := name
	if h.group != "" {
		prefix = h.group + "." + name
	}
	return &slogHandler{logger: h.logger, attrs: h.attrs, group: prefix}
}

func appendAttr(event *zerolog.Event, group string, attr slog.Attr) *zerolog.Event {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return event.Interface(key, attr.Value.Any())
}

func mapLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
