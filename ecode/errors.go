// Package ecode defines the typed errors raised across the constrained
// decoding engine. Every error carries a kind tag and, where applicable, the
// failing fragment (a regex substring or a JSON Schema path) so a caller can
// report a precise, user-visible failure without re-deriving context.
package ecode

import "fmt"

// InvalidInput signals malformed JSON Schema text, a DSL term with an
// arity violation, or a quantifier/bound where max < min.
type InvalidInput struct {
	Fragment string
	Reason   string
}

func (e *InvalidInput) Error() string {
	return fmt.Sprintf("invalid input at %q: %s", e.Fragment, e.Reason)
}

func (e *InvalidInput) Kind() string { return "InvalidInput" }

// PatternMismatch signals that Validate found a candidate string outside
// the language a Term's lowered regex describes.
type PatternMismatch struct {
	Regex     string
	Candidate string
}

func (e *PatternMismatch) Error() string {
	return fmt.Sprintf("%q does not match pattern %q", e.Candidate, e.Regex)
}

func (e *PatternMismatch) Kind() string { return "PatternMismatch" }

// RecursionLimit signals that native-type ingestion (dsl.FromGoValue)
// exceeded its depth cap.
type RecursionLimit struct {
	Depth int
}

func (e *RecursionLimit) Error() string {
	return fmt.Sprintf("recursion limit (%d) exceeded while converting native value", e.Depth)
}

func (e *RecursionLimit) Kind() string { return "RecursionLimit" }

// UnsupportedSchema signals a schema keyword combination outside the
// compiler's stated grammar, an unknown format, or a type value that is
// neither a string nor an array of strings.
type UnsupportedSchema struct {
	Fragment string
	Reason   string
}

func (e *UnsupportedSchema) Error() string {
	return fmt.Sprintf("unsupported schema at %q: %s", e.Fragment, e.Reason)
}

func (e *UnsupportedSchema) Kind() string { return "UnsupportedSchema" }

// RefRecursionLimit signals that $ref traversal exceeded max_recursion_depth.
type RefRecursionLimit struct {
	Fragment string
	Depth    int
}

func (e *RefRecursionLimit) Error() string {
	return fmt.Sprintf("$ref recursion limit (%d) exceeded at %q", e.Depth, e.Fragment)
}

func (e *RefRecursionLimit) Kind() string { return "RefRecursionLimit" }

// ExternalRef signals a $ref targeting a document other than the root.
type ExternalRef struct {
	Ref string
}

func (e *ExternalRef) Error() string {
	return fmt.Sprintf("external $ref not supported: %q", e.Ref)
}

func (e *ExternalRef) Kind() string { return "ExternalRef" }

// EOSDisallowed signals an attempt to insert the EOS byte sequence into a
// Vocabulary as an ordinary token.
type EOSDisallowed struct {
	Token string
}

func (e *EOSDisallowed) Error() string {
	return fmt.Sprintf("cannot insert EOS token %q as an ordinary vocabulary entry", e.Token)
}

func (e *EOSDisallowed) Kind() string { return "EOSDisallowed" }

// IndexBuildError signals that a regex uses features the DFA compiler
// cannot handle, or that it produces an empty language.
type IndexBuildError struct {
	Regex  string
	Reason string
}

func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("failed to build index for %q: %s", e.Regex, e.Reason)
}

func (e *IndexBuildError) Kind() string { return "IndexBuildError" }

// InvalidTransition signals a Guide.Advance(id) call where next_state is
// undefined for the current state.
type InvalidTransition struct {
	State   int
	TokenID uint32
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("no transition from state %d on token %d", e.State, e.TokenID)
}

func (e *InvalidTransition) Kind() string { return "InvalidTransition" }

// InvalidRollback signals a Guide.Rollback(k) call where k exceeds the
// number of cached prior states.
type InvalidRollback struct {
	Requested int
	Available int
}

func (e *InvalidRollback) Error() string {
	return fmt.Sprintf("cannot roll back %d states, only %d available", e.Requested, e.Available)
}

func (e *InvalidRollback) Kind() string { return "InvalidRollback" }

// ShapeMismatch signals that a logits processor's inputs disagree on batch
// size.
type ShapeMismatch struct {
	Reason string
}

func (e *ShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch: %s", e.Reason)
}

func (e *ShapeMismatch) Kind() string { return "ShapeMismatch" }

// BackendUnavailable signals that no tensor adapter is registered for the
// named backend.
type BackendUnavailable struct {
	Backend string
}

func (e *BackendUnavailable) Error() string {
	return fmt.Sprintf("tensor backend %q is not available", e.Backend)
}

func (e *BackendUnavailable) Kind() string { return "BackendUnavailable" }
