// Package debug provides category-based debug logging for univault.
//
// Categories select WHAT is logged (UNIVAULT_DEBUG or logging.debug), the
// level selects HOW MUCH (UNIVAULT_LOG_LEVEL or logging.level):
//
//	debug.Log("embedding", "request", "model", model, "chars", n)
//	if debug.Enabled("search") { /* expensive formatting */ }
//
// Categories: search, embedding, storage, indexer, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"unicode/utf8"
)

// LevelTrace sits below slog.LevelDebug. At TRACE, raw embedding responses
// are written out as well.
const LevelTrace = slog.LevelDebug - 4

// categorySet is written by Init at startup and only read afterwards.
type categorySet map[string]struct{}

func (s categorySet) has(c string) bool {
	_, ok := s[c]
	return ok
}

var (
	categories = parseCategories(os.Getenv("UNIVAULT_DEBUG"))

	// rawOut receives Raw output.
	rawOut io.Writer = os.Stderr
)

var levels = map[string]slog.Level{
	"TRACE":   LevelTrace,
	"DEBUG":   slog.LevelDebug,
	"INFO":    slog.LevelInfo,
	"WARN":    slog.LevelWarn,
	"WARNING": slog.LevelWarn,
	"ERROR":   slog.LevelError,
}

// Init installs the default slog logger and the enabled categories.
// UNIVAULT_DEBUG and UNIVAULT_LOG_LEVEL win over the configured values.
// format is "json" or "text".
func Init(configCategories, configLevel, format string) {
	categories = parseCategories(envOr("UNIVAULT_DEBUG", configCategories))
	level := ParseLevel(envOr("UNIVAULT_LOG_LEVEL", configLevel))

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))

	if len(categories) > 0 {
		slog.Info("debug logging enabled", "categories", Categories(), "level", level.String())
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Enabled reports whether category is being debugged.
func Enabled(category string) bool {
	return categories.has("all") || categories.has(category)
}

// Log emits a DEBUG record tagged with category, if it is enabled.
func Log(category string, msg string, args ...any) {
	if Enabled(category) {
		slog.Debug(msg, append([]any{"debug", category}, args...)...)
	}
}

// Trace emits a TRACE record tagged with category, if it is enabled.
func Trace(category string, msg string, args ...any) {
	if Enabled(category) {
		slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
	}
}

// TraceIsEnabled reports whether Trace output for category would be shown.
func TraceIsEnabled(category string) bool {
	return Enabled(category) && slog.Default().Enabled(context.Background(), LevelTrace)
}

// Raw writes text unformatted, for copy-paste of payloads. Only at TRACE.
func Raw(category string, text string) {
	if TraceIsEnabled(category) {
		fmt.Fprintln(rawOut, text)
	}
}

// ParseLevel converts a level name to a slog.Level. Unknown names are INFO.
func ParseLevel(s string) slog.Level {
	if l, ok := levels[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return l
	}
	return slog.LevelInfo
}

// Categories returns the enabled categories, sorted.
func Categories() []string {
	return slices.Sorted(maps.Keys(categories))
}

// Truncate shortens s to at most maxLen bytes without splitting a UTF-8
// sequence, appending "..." when it cut anything.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseCategories(s string) categorySet {
	set := categorySet{}
	for _, c := range strings.Split(s, ",") {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}
