// Package dsl implements the regex-algebra combinator language: a small set
// of constructors and quantifier methods that build a Term tree, plus total
// functions that lower a Term to a regex string, pretty-print it, or check a
// candidate string against it.
//
// Term is a tagged variant rather than an interface hierarchy (one struct,
// one Kind field, exhaustive switches in ToRegex/PrettyPrint) on purpose: an
// interface per node kind invites each implementation to drift in how it
// escapes or composes sub-patterns, the failure mode this package exists to
// rule out.
package dsl

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jmorganca/outlines-go/ecode"
	"github.com/jmorganca/outlines-go/schema"
)

// Kind tags which case of the regex algebra a Term represents.
type Kind int

const (
	KindLiteral Kind = iota
	KindRegex
	KindJSON
	KindEither
	KindSeq
	KindRepeat
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "Literal"
	case KindRegex:
		return "Regex"
	case KindJSON:
		return "JSON"
	case KindEither:
		return "Either"
	case KindSeq:
		return "Seq"
	case KindRepeat:
		return "Repeat"
	default:
		return "Unknown"
	}
}

// Term is a node in the regex-algebra tree. Exactly one of the fields
// below is meaningful for a given Kind:
//
//	KindLiteral: Literal
//	KindRegex:   Pattern
//	KindJSON:    Schema
//	KindEither:  Children (>=1, unordered alternation)
//	KindSeq:     Children (>=0, ordered concatenation)
//	KindRepeat:  Children[0], Min, Max (Max == -1 means unbounded)
type Term struct {
	Kind     Kind
	Literal  string
	Pattern  string
	Schema   []byte
	Children []Term
	Min      int
	Max      int
}

// Literal matches s and nothing else, with every regex metacharacter in s
// escaped.
func Literal(s string) Term {
	return Term{Kind: KindLiteral, Literal: s}
}

// Regex wraps a raw regex fragment, taken as-is (not validated against
// regexp/syntax until ToRegex or Matches is called).
func Regex(pattern string) Term {
	return Term{Kind: KindRegex, Pattern: pattern}
}

// JSON wraps a JSON Schema document; ToRegex defers to
// schema.RegexFromSchema to lower it.
func JSON(schemaSrc []byte) Term {
	cp := make([]byte, len(schemaSrc))
	copy(cp, schemaSrc)
	return Term{Kind: KindJSON, Schema: cp}
}

// Either matches any one of ts. Either() with zero terms is an arity
// violation: ToRegex reports it as *ecode.InvalidInput.
func Either(ts ...Term) Term {
	return Term{Kind: KindEither, Children: append([]Term{}, ts...)}
}

// Seq matches ts in order. Seq() with zero terms matches the empty string.
func Seq(ts ...Term) Term {
	return Term{Kind: KindSeq, Children: append([]Term{}, ts...)}
}

func repeat(t Term, min, max int) Term {
	return Term{Kind: KindRepeat, Children: []Term{t}, Min: min, Max: max}
}

// ZeroOrMore matches t repeated zero or more times.
func (t Term) ZeroOrMore() Term { return repeat(t, 0, -1) }

// OneOrMore matches t repeated one or more times.
func (t Term) OneOrMore() Term { return repeat(t, 1, -1) }

// Optional matches t zero or one times.
func (t Term) Optional() Term { return repeat(t, 0, 1) }

// Exactly matches t repeated exactly n times.
func (t Term) Exactly(n int) Term { return repeat(t, n, n) }

// AtLeast matches t repeated m or more times.
func (t Term) AtLeast(m int) Term { return repeat(t, m, -1) }

// AtMost matches t repeated at most n times.
func (t Term) AtMost(n int) Term { return repeat(t, 0, n) }

// Between matches t repeated between m and n times, inclusive.
func (t Term) Between(m, n int) Term { return repeat(t, m, n) }

// ToRegex lowers t to a regex string understood by regexp/syntax (and, by
// extension, package index). It is total over well-formed terms: it fails
// only for a KindJSON term whose Schema does not compile (the schema
// compiler's error is returned as-is), a KindEither with no alternatives, or
// a KindRepeat that does not wrap exactly one child or has max < min (these
// last two surfaced as *ecode.InvalidInput).
func ToRegex(t Term) (string, error) {
	switch t.Kind {
	case KindLiteral:
		return regexp.QuoteMeta(t.Literal), nil
	case KindRegex:
		return `(?:` + t.Pattern + `)`, nil
	case KindJSON:
		out, err := schema.RegexFromSchema(t.Schema)
		if err != nil {
			return "", err
		}
		return out, nil
	case KindEither:
		if len(t.Children) == 0 {
			return "", &ecode.InvalidInput{Fragment: t.Kind.String(), Reason: "either term must have at least one alternative"}
		}
		parts := make([]string, len(t.Children))
		for i, c := range t.Children {
			frag, err := ToRegex(c)
			if err != nil {
				return "", err
			}
			parts[i] = frag
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return `(?:` + strings.Join(parts, `|`) + `)`, nil
	case KindSeq:
		var b strings.Builder
		for _, c := range t.Children {
			frag, err := ToRegex(c)
			if err != nil {
				return "", err
			}
			b.WriteString(frag)
		}
		return b.String(), nil
	case KindRepeat:
		if len(t.Children) != 1 {
			return "", &ecode.InvalidInput{Fragment: t.Kind.String(), Reason: "repeat term must wrap exactly one child"}
		}
		if t.Max >= 0 && t.Max < t.Min {
			return "", &ecode.InvalidInput{Fragment: fmt.Sprintf("{%d,%d}", t.Min, t.Max), Reason: "max < min"}
		}
		inner, err := ToRegex(t.Children[0])
		if err != nil {
			return "", err
		}
		return `(?:` + inner + `)` + quantifier(t.Min, t.Max), nil
	default:
		return "", &ecode.InvalidInput{Fragment: t.Kind.String(), Reason: "unknown term kind"}
	}
}

func quantifier(min, max int) string {
	switch {
	case min == 0 && max < 0:
		return "*"
	case min == 1 && max < 0:
		return "+"
	case min == 0 && max == 1:
		return "?"
	case max < 0:
		return fmt.Sprintf("{%d,}", min)
	case min == max:
		return fmt.Sprintf("{%d}", min)
	default:
		return fmt.Sprintf("{%d,%d}", min, max)
	}
}

// Matches reports whether s is in the language ToRegex(t) describes,
// anchored at both ends.
func Matches(t Term, s string) (bool, error) {
	pattern, err := ToRegex(t)
	if err != nil {
		return false, err
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return false, &ecode.InvalidInput{Fragment: pattern, Reason: err.Error()}
	}
	return re.MatchString(s), nil
}

// Validate is Matches but reports failure as *ecode.PatternMismatch,
// convenient at a caller boundary that wants a single error return.
func Validate(t Term, s string) error {
	ok, err := Matches(t, s)
	if err != nil {
		return err
	}
	if !ok {
		pattern, _ := ToRegex(t)
		return &ecode.PatternMismatch{Regex: pattern, Candidate: s}
	}
	return nil
}

// PrettyPrint renders t as an ASCII tree, branch glyphs and 4-space indent
// in the shape of langlang's tree printer.
func PrettyPrint(t Term) string {
	var b strings.Builder
	printNode(&b, t, "", true)
	return strings.TrimRight(b.String(), "\n")
}

func printNode(b *strings.Builder, t Term, prefix string, last bool) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if last {
		connector = "└── "
		childPrefix = prefix + "    "
	}
	b.WriteString(prefix)
	b.WriteString(connector)
	b.WriteString(label(t))
	b.WriteString("\n")

	for i, c := range t.Children {
		printNode(b, c, childPrefix, i == len(t.Children)-1)
	}
}

func label(t Term) string {
	switch t.Kind {
	case KindLiteral:
		return fmt.Sprintf("Literal(%q)", t.Literal)
	case KindRegex:
		return fmt.Sprintf("Regex(%q)", t.Pattern)
	case KindJSON:
		return fmt.Sprintf("JSON(%d bytes)", len(t.Schema))
	case KindEither:
		return "Either"
	case KindSeq:
		return "Seq"
	case KindRepeat:
		if t.Max < 0 {
			return fmt.Sprintf("Repeat{%d,}", t.Min)
		}
		return fmt.Sprintf("Repeat{%d,%d}", t.Min, t.Max)
	default:
		return t.Kind.String()
	}
}

const fromGoValueMaxDepth = 10

// FromGoValue ingests a native Go value (the decoded form of arbitrary
// JSON: nil, bool, float64, string, []any, map[string]any) as a Term tree
// matching that exact literal value, recursing at most
// fromGoValueMaxDepth levels before failing with *ecode.RecursionLimit —
// the DSL equivalent of the schema compiler's $ref depth budget, guarding
// against the same unbounded-recursion hazard a cyclic or pathologically
// nested native value would otherwise cause.
func FromGoValue(v any) (Term, error) {
	return fromGoValue(v, 0)
}

func fromGoValue(v any, depth int) (Term, error) {
	if depth > fromGoValueMaxDepth {
		return Term{}, &ecode.RecursionLimit{Depth: fromGoValueMaxDepth}
	}
	switch val := v.(type) {
	case nil:
		return Literal("null"), nil
	case bool:
		if val {
			return Literal("true"), nil
		}
		return Literal("false"), nil
	case string:
		encoded, err := json.Marshal(val)
		if err != nil {
			return Term{}, &ecode.InvalidInput{Fragment: val, Reason: err.Error()}
		}
		return Literal(string(encoded)), nil
	case float64:
		return Literal(formatNumber(val)), nil
	case int:
		return Literal(fmt.Sprintf("%d", val)), nil
	case []any:
		items := make([]Term, len(val))
		for i, elem := range val {
			item, err := fromGoValue(elem, depth+1)
			if err != nil {
				return Term{}, err
			}
			items[i] = item
		}
		return arrayTerm(items), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Term, 0, len(keys))
		for i, k := range keys {
			valueTerm, err := fromGoValue(val[k], depth+1)
			if err != nil {
				return Term{}, err
			}
			keyJSON, _ := json.Marshal(k)
			sep := Literal(",")
			if i == 0 {
				sep = Seq()
			}
			members = append(members, Seq(sep, Literal(string(keyJSON)), Literal(":"), valueTerm))
		}
		return Seq(append([]Term{Literal("{")}, append(members, Literal("}"))...)...), nil
	default:
		return Term{}, &ecode.InvalidInput{Fragment: fmt.Sprintf("%T", v), Reason: "unsupported native value type"}
	}
}

func arrayTerm(items []Term) Term {
	parts := []Term{Literal("[")}
	for i, it := range items {
		if i > 0 {
			parts = append(parts, Literal(","))
		}
		parts = append(parts, it)
	}
	parts = append(parts, Literal("]"))
	return Seq(parts...)
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
