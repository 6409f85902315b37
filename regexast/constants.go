// Package regexast holds the canonical byte-level regex fragments the
// schema compiler (package schema) and the DSL (package dsl) splice
// together. Fragments are byte-exact constants rather than computed
// strings so every caller anchors to the same language, mirroring
// format.primitiveRules' table of named GBNF fragments.
package regexast

import "github.com/jmorganca/outlines-go/envconfig"

// Scalar JSON value fragments. STRING_INNER is the body of a JSON string
// without the surrounding quotes, used when length bounds need to be
// applied to the body alone.
const (
	STRING_INNER = `(?:[^"\\\x00-\x1f]|\\["\\/bfnrt]|\\u[0-9a-fA-F]{4})*`
	STRING       = `"` + STRING_INNER + `"`
	INTEGER      = `(?:0|-?[1-9][0-9]*)`
	NUMBER       = `(?:-?(?:0|[1-9][0-9]*))(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`
	BOOLEAN      = `(?:true|false)`
	NULL         = `null`
)

// Common string format fragments, keyed by the JSON Schema "format" value
// they implement. Anchoring quotes are included since each is only ever
// spliced in where a quoted string is expected.
var Formats = map[string]string{
	"date":      `"\d{4}-\d{2}-\d{2}"`,
	"time":      `"\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?"`,
	"date-time": `"\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?"`,
	"uuid":      `"[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}"`,
	"email":     `"[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,10}"`,
	"uri":       `"[a-zA-Z][a-zA-Z0-9+.-]*://[^\s"]*"`,
	"ipv4":      `"(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)"`,
	"hostname":  `"[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*"`,
}

// Whitespace returns the structurally-free whitespace pattern used between
// JSON punctuation. It defaults to a single optional space, deliberately
// narrow: permissive whitespace lets small models wander between tokens
// without making progress.
func Whitespace() string {
	if envconfig.DefaultWhitespace != "" {
		return envconfig.DefaultWhitespace
	}
	return `[ ]?`
}
