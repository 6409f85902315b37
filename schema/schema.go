// Package schema compiles a JSON Schema value into the canonical regex
// string the rest of the engine consumes. It is a recursive-descent
// compiler keyed on which schema keywords are present, grounded on the
// visitor shape of format.schemaConverter and x/grammar/schema, but emitting
// raw regex fragments (package regexast) instead of GBNF/EBNF rules, and
// preserving JSON object key order via a custom decoder the way
// grammar/jsonschema.props does.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errInvalidPropertiesShape = errors.New(`schema: "properties" must be a JSON object`)

// Node is the decoded form of a JSON Schema value. Unlike a generic
// map[string]any walk, Properties preserves declaration order (spec's
// open question: "the schema compiler...enforces declaration order") and
// Type normalizes both the single-string and array-of-strings forms.
type Node struct {
	Type []string

	Properties           []PropertyNode
	Required             []string
	AdditionalProperties *Node // nil when absent; &Node{} when bare `true`
	AdditionalPropsBool  *bool // tri-state for `false` vs `true` vs absent
	PatternProperties    map[string]*Node `json:"patternProperties"`

	MinProperties *int
	MaxProperties *int

	Items       *Node
	PrefixItems []*Node
	MinItems    *int
	MaxItems    *int

	Pattern string
	Format  string

	MinLength *int
	MaxLength *int

	MinDigitsInteger *int
	MaxDigitsInteger *int
	MinDigitsFrac    *int
	MaxDigitsFrac    *int
	MinDigitsExp     *int
	MaxDigitsExp     *int

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64

	Enum  []json.RawMessage
	Const json.RawMessage

	AllOf []*Node `json:"allOf"`
	AnyOf []*Node `json:"anyOf"`
	OneOf []*Node `json:"oneOf"`

	Ref  string           `json:"$ref"`
	Defs map[string]*Node `json:"$defs"`

	raw map[string]json.RawMessage
}

// PropertyNode is one entry of an object schema's "properties", in source
// order.
type PropertyNode struct {
	Name   string
	Schema *Node
}

// UnmarshalJSON decodes a schema object, preserving property order and
// normalizing "type" and "additionalProperties" polymorphism.
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node
	aux := struct {
		Type                 json.RawMessage `json:"type"`
		Properties           json.RawMessage `json:"properties"`
		AdditionalProperties json.RawMessage `json:"additionalProperties"`
		*alias
	}{alias: (*alias)(n)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.Type) > 0 {
		types, err := decodeTypes(aux.Type)
		if err != nil {
			return err
		}
		n.Type = types
	}

	if len(aux.Properties) > 0 {
		props, err := decodeOrderedProperties(aux.Properties)
		if err != nil {
			return err
		}
		n.Properties = props
	}

	if len(aux.AdditionalProperties) > 0 {
		switch aux.AdditionalProperties[0] {
		case 't':
			b := true
			n.AdditionalPropsBool = &b
			n.AdditionalProperties = &Node{}
		case 'f':
			b := false
			n.AdditionalPropsBool = &b
		default:
			var sub Node
			if err := json.Unmarshal(aux.AdditionalProperties, &sub); err != nil {
				return err
			}
			n.AdditionalProperties = &sub
		}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		n.raw = raw
	}

	return nil
}

func decodeTypes(data json.RawMessage) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, err
	}
	return arr, nil
}

// decodeOrderedProperties decodes a JSON object preserving the order its
// keys appear in the source text, the same trick grammar/jsonschema.props
// uses via json.Decoder.Token.
func decodeOrderedProperties(data json.RawMessage) ([]PropertyNode, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errInvalidPropertiesShape
	}

	var out []PropertyNode
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, errInvalidPropertiesShape
		}
		var sub Node
		if err := dec.Decode(&sub); err != nil {
			return nil, err
		}
		out = append(out, PropertyNode{Name: name, Schema: &sub})
	}
	return out, nil
}
