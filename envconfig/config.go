// Package envconfig centralizes the process-wide knobs the engine reads
// from the environment, following ollama's own envconfig convention of
// exposing package-level vars initialized once from os.Getenv rather than
// threading a config struct through every constructor.
package envconfig

import (
	"log/slog"
	"os"
	"strconv"
)

var (
	// Debug is read from OUTLINES_DEBUG. No package in this module consults
	// it; it changes no output.
	Debug bool
	// MaxRollback is the default Guide rollback buffer capacity. Set via
	// OUTLINES_MAX_ROLLBACK.
	MaxRollback int
	// IndexCacheSize gates the process-wide Index memo cache. Set via
	// OUTLINES_INDEX_CACHE_SIZE. Zero (or a negative value) disables
	// memoisation; any positive value enables it. It does not cap how many
	// entries the cache holds.
	IndexCacheSize int
	// DefaultWhitespace overrides the structurally-free whitespace pattern
	// the schema compiler inserts between JSON punctuation. Set via
	// OUTLINES_WHITESPACE_PATTERN; empty means "use the built-in default".
	DefaultWhitespace string
)

func init() {
	Debug = boolVar("OUTLINES_DEBUG", false)
	MaxRollback = intVar("OUTLINES_MAX_ROLLBACK", 32)
	IndexCacheSize = intVar("OUTLINES_INDEX_CACHE_SIZE", 256)
	DefaultWhitespace = os.Getenv("OUTLINES_WHITESPACE_PATTERN")
}

func boolVar(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("envconfig: invalid bool, using default", "key", key, "value", v)
		return def
	}
	return b
}

func intVar(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("envconfig: invalid int, using default", "key", key, "value", v)
		return def
	}
	return n
}
