package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmorganca/outlines-go/ecode"
	"github.com/jmorganca/outlines-go/regexast"
)

// Bound is an advisory numeric or size constraint the compiler could not
// embed in the regex (minimum/maximum/multipleOf and friends narrow the set
// of strings a token-level DFA would have to enumerate one integer at a
// time, so they are reported rather than compiled in, the same tradeoff the
// teacher's format.schemaConverter documents for "minimum"/"maximum").
type Bound struct {
	Path   string
	Keyword string
	Value  float64
}

// Option configures RegexFromSchema.
type Option func(*compiler)

// WithMaxRefDepth bounds how many times a single $ref name may recurse
// before compilation gives up on that branch. Default 3.
func WithMaxRefDepth(n int) Option {
	return func(c *compiler) { c.maxRefDepth = n }
}

// WithMaxObjectDepth bounds how deep an unconstrained
// `"additionalProperties": true` (or absent) object recurses before
// compilation stops offering further nesting. Default 2.
func WithMaxObjectDepth(n int) Option {
	return func(c *compiler) { c.maxObjectDepth = n }
}

// errRefDepthExceeded is raised internally when a $ref chain exceeds its
// budget. Contexts that offer alternatives (anyOf/oneOf, array items,
// additionalProperties expansion) catch it and drop the offending branch
// instead of failing the whole compile; a required, non-alternative
// context lets it surface as ecode.RefRecursionLimit.
type errRefDepthExceeded struct {
	ref   string
	depth int
}

func (e *errRefDepthExceeded) Error() string {
	return fmt.Sprintf("$ref %q exceeded depth %d", e.ref, e.depth)
}

type compiler struct {
	defs           map[string]*Node
	bounds         []Bound
	maxRefDepth    int
	maxObjectDepth int
	refStack       map[string]int
}

// RegexFromSchema compiles a JSON Schema document into the regex string the
// rest of the engine uses to drive index construction. Keyword precedence
// when a node carries more than one follows the fixed order properties ->
// allOf -> anyOf -> oneOf -> prefixItems -> enum -> const -> $ref -> type,
// mirroring the visit dispatch of format.schemaConverter and
// x/grammar/schema.converter, generalized from GBNF-rule emission to raw
// regex emission.
func RegexFromSchema(schemaSrc []byte, opts ...Option) (string, error) {
	var root Node
	if err := json.Unmarshal(schemaSrc, &root); err != nil {
		return "", &ecode.InvalidInput{Fragment: string(schemaSrc), Reason: err.Error()}
	}

	c := &compiler{
		defs:           map[string]*Node{},
		maxRefDepth:    3,
		maxObjectDepth: 2,
		refStack:       map[string]int{},
	}
	for _, opt := range opts {
		opt(c)
	}
	for name, def := range root.Defs {
		c.defs[name] = def
	}
	if defs, ok := root.raw["definitions"]; ok {
		var legacy map[string]*Node
		if err := json.Unmarshal(defs, &legacy); err == nil {
			for name, def := range legacy {
				c.defs[name] = def
			}
		}
	}
	out, err := c.compile(&root, "$", 0)
	if err != nil {
		if depthErr, ok := err.(*errRefDepthExceeded); ok {
			return "", &ecode.RefRecursionLimit{Fragment: depthErr.ref, Depth: depthErr.depth}
		}
		return "", err
	}
	return out, nil
}

// Bounds returns the advisory numeric/size constraints collected while c
// compiled a schema. The compiler is internal to RegexFromSchema, which
// returns only the regex, so these bounds are not reported to its callers;
// index construction never consults them either.
func (c *compiler) Bounds() []Bound { return c.bounds }

func (c *compiler) compile(n *Node, path string, depth int) (string, error) {
	if n == nil {
		return c.compileAny(depth), nil
	}

	switch {
	case len(n.PatternProperties) > 0:
		return "", &ecode.UnsupportedSchema{Fragment: path, Reason: "patternProperties is not supported"}
	case n.Properties != nil || (n.AdditionalProperties != nil && len(n.Type) == 0 && n.Ref == ""):
		return c.compileObject(n, path, depth)
	case len(n.AllOf) > 0:
		return c.compileAllOf(n, path, depth)
	case len(n.AnyOf) > 0:
		return c.compileAnyOf(n, path, depth)
	case len(n.OneOf) > 0:
		return c.compileAnyOf(n, path, depth) // oneOf is compiled as an alternation too; exclusivity is not a regex-checkable property
	case len(n.PrefixItems) > 0 || n.Items != nil:
		return c.compileArray(n, path, depth)
	case len(n.Enum) > 0:
		return c.compileEnum(n, path)
	case len(n.Const) > 0:
		return c.compileConst(n, path)
	case n.Ref != "":
		resolved, err := c.resolveRef(n.Ref, path, depth)
		if err != nil {
			return "", err
		}
		return resolved, nil
	default:
		return c.compileType(n, path, depth)
	}
}

// compileOptional is compile but swallows a depth-exceeded $ref by
// returning ok=false instead of an error, for callers building an
// alternation or an unbounded recursive expansion where one dead branch
// should just be omitted.
func (c *compiler) compileOptional(n *Node, path string, depth int) (string, bool, error) {
	out, err := c.compile(n, path, depth)
	if err != nil {
		if _, isDepth := err.(*errRefDepthExceeded); isDepth {
			return "", false, nil
		}
		return "", false, err
	}
	return out, true, nil
}

func (c *compiler) resolveRef(ref, path string, depth int) (string, error) {
	name, ok := defName(ref)
	if !ok {
		if strings.HasPrefix(ref, "#") {
			return "", &ecode.UnsupportedSchema{Fragment: ref, Reason: "only #/$defs/<name> and #/definitions/<name> pointers are supported"}
		}
		return "", &ecode.ExternalRef{Ref: ref}
	}
	target, ok := c.defs[name]
	if !ok {
		return "", &ecode.UnsupportedSchema{Fragment: ref, Reason: "no such definition"}
	}

	c.refStack[name]++
	defer func() { c.refStack[name]-- }()
	if c.refStack[name] > c.maxRefDepth {
		return "", &errRefDepthExceeded{ref: ref, depth: c.maxRefDepth}
	}

	return c.compile(target, path+"/$ref:"+name, depth+1)
}

func defName(ref string) (string, bool) {
	for _, prefix := range []string{"#/$defs/", "#/definitions/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix), true
		}
	}
	return "", false
}

// compileObject emits `{` ws (properties, in declaration order, each
// followed by `:` ws <value-regex>, comma-separated, optional members
// wrapped so the comma only appears between members actually present) ws
// `}`. Declaration order is pinned rather than treated as don't-care,
// resolving the ambiguity the distilled spec leaves open.
func (c *compiler) compileObject(n *Node, path string, depth int) (string, error) {
	required := map[string]bool{}
	for _, r := range n.Required {
		required[r] = true
	}

	fragments := map[string]string{}
	for _, p := range n.Properties {
		frag, err := c.compile(p.Schema, path+"."+p.Name, depth+1)
		if err != nil {
			if _, isDepth := err.(*errRefDepthExceeded); isDepth && !required[p.Name] {
				continue // drop optional property whose schema recurses past budget
			}
			return "", err
		}
		fragments[p.Name] = `"` + escapeLiteral(p.Name) + `"` + regexast.Whitespace() + `:` + regexast.Whitespace() + frag
	}

	var additional string
	if (n.AdditionalPropsBool == nil || *n.AdditionalPropsBool) && depth < c.maxObjectDepth {
		valueRegex := c.compileAny(depth + 1)
		if n.AdditionalProperties != nil {
			if frag, ok, err := c.compileOptional(n.AdditionalProperties, path+".*", depth+1); err == nil && ok {
				valueRegex = frag
			}
		}
		pair := `"` + regexast.STRING_INNER + `"` + regexast.Whitespace() + `:` + regexast.Whitespace() + valueRegex
		additional = `(?:` + regexast.Whitespace() + `,` + regexast.Whitespace() + pair + `)*`
	}

	var b strings.Builder
	b.WriteString(`\{`)
	b.WriteString(regexast.Whitespace())

	wroteAny := false
	for i, name := range requiredInDeclarationOrder(n, required) {
		if i > 0 || wroteAny {
			b.WriteString(regexast.Whitespace())
			b.WriteString(`,`)
			b.WriteString(regexast.Whitespace())
		}
		b.WriteString(fragments[name])
		wroteAny = true
	}
	for _, name := range optionalInDeclarationOrder(n, required) {
		frag, ok := fragments[name]
		if !ok {
			continue
		}
		lead := ""
		if wroteAny {
			lead = regexast.Whitespace() + `,` + regexast.Whitespace()
		}
		b.WriteString(`(?:` + lead + frag + `)?`)
		wroteAny = true
	}
	b.WriteString(additional)
	b.WriteString(regexast.Whitespace())
	b.WriteString(`\}`)
	return b.String(), nil
}

func requiredInDeclarationOrder(n *Node, required map[string]bool) []string {
	var out []string
	for _, p := range n.Properties {
		if required[p.Name] {
			out = append(out, p.Name)
		}
	}
	return out
}

func optionalInDeclarationOrder(n *Node, required map[string]bool) []string {
	var out []string
	for _, p := range n.Properties {
		if !required[p.Name] {
			out = append(out, p.Name)
		}
	}
	return out
}

// compileArray emits `[` ws item_0 , item_1 ... ws `]`, honoring
// prefixItems positionally, falling back to Items for the remaining slots,
// and clamping repetition to [minItems, maxItems]. An absent minItems means
// zero; an absent maxItems leaves the repetition unbounded.
func (c *compiler) compileArray(n *Node, path string, depth int) (string, error) {
	var prefix []string
	for i, item := range n.PrefixItems {
		frag, ok, err := c.compileOptional(item, fmt.Sprintf("%s[%d]", path, i), depth+1)
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		prefix = append(prefix, frag)
	}

	var tail string
	if n.Items != nil {
		frag, ok, err := c.compileOptional(n.Items, path+"[]", depth+1)
		if err != nil {
			return "", err
		}
		if ok {
			tail = frag
		}
	}

	min, max := 0, -1
	if n.MinItems != nil {
		min = *n.MinItems
	}
	if n.MaxItems != nil {
		max = *n.MaxItems
	}

	var b strings.Builder
	b.WriteString(`\[`)
	b.WriteString(regexast.Whitespace())

	sep := regexast.Whitespace() + `,` + regexast.Whitespace()
	wroteAny := false
	for _, frag := range prefix {
		if wroteAny {
			b.WriteString(sep)
		}
		b.WriteString(frag)
		wroteAny = true
	}

	if tail != "" {
		remainingMin := min - len(prefix)
		if remainingMin < 0 {
			remainingMin = 0
		}
		remainingMax := adjustMax(max, len(prefix))

		// Emit the required occurrences literally so a required first
		// element never picks up a stray leading separator from a
		// quantified group, then a bounded-repeat tail for the rest.
		for i := 0; i < remainingMin; i++ {
			if wroteAny {
				b.WriteString(sep)
			}
			b.WriteString(tail)
			wroteAny = true
		}
		extraMax := -1
		if remainingMax >= 0 {
			extraMax = remainingMax - remainingMin
		}
		if extraMax != 0 {
			if wroteAny {
				b.WriteString(`(?:` + sep + tail + `)` + repeatQuantifier(0, extraMax))
			} else {
				b.WriteString(`(?:` + tail + `(?:` + sep + tail + `)` + repeatQuantifier(0, extraMax-1) + `)?`)
			}
			wroteAny = true
		}
	}

	b.WriteString(regexast.Whitespace())
	b.WriteString(`\]`)
	return b.String(), nil
}

func adjustMax(max, already int) int {
	if max < 0 {
		return -1
	}
	remaining := max - already
	if remaining < 0 {
		return 0
	}
	return remaining
}

// repeatQuantifier renders {min,max}-style bounds, omitting the upper bound
// when max is unbounded (-1).
func repeatQuantifier(min, max int) string {
	switch {
	case min == 0 && max < 0:
		return "*"
	case min == 1 && max < 0:
		return "+"
	case max < 0:
		return fmt.Sprintf("{%d,}", min)
	case min == max:
		return fmt.Sprintf("{%d}", min)
	default:
		return fmt.Sprintf("{%d,%d}", min, max)
	}
}

func (c *compiler) compileAllOf(n *Node, path string, depth int) (string, error) {
	// Merging allOf by concatenating every member's compiled pattern is
	// unsound in general: matching several alternatives simultaneously is
	// undecidable for regex. The conservative reading implemented here
	// compiles the first member and treats the rest as additional
	// non-regex-checkable constraints, a documented best-effort stance.
	if len(n.AllOf) == 0 {
		return c.compileAny(depth), nil
	}
	return c.compile(n.AllOf[0], path+"/allOf:0", depth+1)
}

func (c *compiler) compileAnyOf(n *Node, path string, depth int) (string, error) {
	branches := n.AnyOf
	label := "anyOf"
	if len(branches) == 0 {
		branches = n.OneOf
		label = "oneOf"
	}
	var alts []string
	for i, b := range branches {
		frag, ok, err := c.compileOptional(b, fmt.Sprintf("%s/%s:%d", path, label, i), depth+1)
		if err != nil {
			return "", err
		}
		if ok {
			alts = append(alts, frag)
		}
	}
	if len(alts) == 0 {
		return "", &ecode.RefRecursionLimit{Fragment: path, Depth: c.maxRefDepth}
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return `(?:` + strings.Join(alts, `|`) + `)`, nil
}

func (c *compiler) compileEnum(n *Node, path string) (string, error) {
	var alts []string
	for _, raw := range n.Enum {
		alts = append(alts, regexpQuoteJSON(raw))
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return `(?:` + strings.Join(alts, `|`) + `)`, nil
}

func (c *compiler) compileConst(n *Node, path string) (string, error) {
	return regexpQuoteJSON(n.Const), nil
}

// compileType dispatches on the (possibly multi-valued) "type" keyword. An
// absent type with no other governing keyword compiles to compileAny: the
// schema accepts any JSON value.
func (c *compiler) compileType(n *Node, path string, depth int) (string, error) {
	if len(n.Type) == 0 {
		return c.compileAny(depth), nil
	}
	var alts []string
	for _, t := range n.Type {
		frag, err := c.compileScalarType(n, t, path, depth)
		if err != nil {
			return "", err
		}
		alts = append(alts, frag)
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return `(?:` + strings.Join(alts, `|`) + `)`, nil
}

func (c *compiler) compileScalarType(n *Node, t, path string, depth int) (string, error) {
	switch t {
	case "null":
		return regexast.NULL, nil
	case "boolean":
		return regexast.BOOLEAN, nil
	case "integer":
		c.noteBounds(n, path)
		return regexast.INTEGER, nil
	case "number":
		c.noteBounds(n, path)
		return regexast.NUMBER, nil
	case "string":
		if n.Format != "" {
			if frag, ok := regexast.Formats[n.Format]; ok {
				return frag, nil
			}
			return "", &ecode.UnsupportedSchema{Fragment: path, Reason: "unknown format " + n.Format}
		}
		if n.Pattern != "" {
			return `"` + stripAnchors(n.Pattern) + `"`, nil
		}
		return c.compileStringLength(n), nil
	case "object":
		return c.compileObject(n, path, depth)
	case "array":
		return c.compileArray(n, path, depth)
	default:
		return "", &ecode.UnsupportedSchema{Fragment: path, Reason: "unknown type " + t}
	}
}

func (c *compiler) compileStringLength(n *Node) string {
	if n.MinLength == nil && n.MaxLength == nil {
		return regexast.STRING
	}
	min, max := 0, -1
	if n.MinLength != nil {
		min = *n.MinLength
	}
	if n.MaxLength != nil {
		max = *n.MaxLength
	}
	return `"` + regexast.STRING_INNER[:len(regexast.STRING_INNER)-1] + repeatQuantifier(min, max) + `"`
}

func (c *compiler) noteBounds(n *Node, path string) {
	add := func(kw string, v *float64) {
		if v != nil {
			c.bounds = append(c.bounds, Bound{Path: path, Keyword: kw, Value: *v})
		}
	}
	add("minimum", n.Minimum)
	add("maximum", n.Maximum)
	add("exclusiveMinimum", n.ExclusiveMinimum)
	add("exclusiveMaximum", n.ExclusiveMaximum)
	add("multipleOf", n.MultipleOf)
}

// compileAny emits the regex for "any JSON value", used for a bare `{}`
// schema and for unconstrained additionalProperties expansion. It recurses
// into objects and arrays up to maxObjectDepth and then degrades to a
// scalar-only value, the depth-bounded recursive pattern this compiler uses
// in place of true unbounded recursion (regex cannot express the latter).
func (c *compiler) compileAny(depth int) string {
	scalar := `(?:` + regexast.STRING + `|` + regexast.NUMBER + `|` + regexast.BOOLEAN + `|` + regexast.NULL + `)`
	if depth >= c.maxObjectDepth {
		return scalar
	}
	obj := `\{` + regexast.Whitespace() + `(?:` + `"` + regexast.STRING_INNER + `"` + regexast.Whitespace() + `:` + regexast.Whitespace() + c.compileAny(depth+1) +
		`(?:` + regexast.Whitespace() + `,` + regexast.Whitespace() + `"` + regexast.STRING_INNER + `"` + regexast.Whitespace() + `:` + regexast.Whitespace() + c.compileAny(depth+1) + `)*` + `)?` + regexast.Whitespace() + `\}`
	arr := `\[` + regexast.Whitespace() + `(?:` + c.compileAny(depth+1) + `(?:` + regexast.Whitespace() + `,` + regexast.Whitespace() + c.compileAny(depth+1) + `)*` + `)?` + regexast.Whitespace() + `\]`
	return `(?:` + scalar + `|` + obj + `|` + arr + `)`
}

// stripAnchors drops a leading `^` and trailing `$` from a user-supplied
// "pattern" keyword, since the regex this compiler produces is always
// spliced inside a larger fully-anchored expression: a caller's own
// anchors would otherwise double-anchor the body they wrap.
func stripAnchors(pattern string) string {
	pattern = strings.TrimPrefix(pattern, "^")
	pattern = strings.TrimSuffix(pattern, "$")
	return pattern
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"', '\\', '.', '+', '*', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// regexpQuoteJSON renders a JSON literal (from "const" or an "enum" member)
// as a regex fragment matching exactly that literal's canonical encoding.
func regexpQuoteJSON(raw json.RawMessage) string {
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return escapeLiteral(string(raw))
	}
	return escapeLiteral(compact.String())
}
