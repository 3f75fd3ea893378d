package tree

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind is one of the four fixed tag kinds.
type Kind int

const (
	// KindPrimary starts a new top-level branch and resets the context.
	KindPrimary Kind = iota
	// KindSubA attaches under the current context without changing it.
	KindSubA
	// KindSubB attaches under the current context without changing it.
	KindSubB
	// KindNested opens a new context one level under the current one.
	KindNested
)

// kindRoot marks the synthetic root node. It is never produced by a row.
const kindRoot Kind = -1

// Kinds lists every tag kind in schema order.
var Kinds = []Kind{KindPrimary, KindSubA, KindSubB, KindNested}

func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindSubA:
		return "sub_a"
	case KindSubB:
		return "sub_b"
	case KindNested:
		return "nested"
	case kindRoot:
		return "root"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind converts a kind name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary":
		return KindPrimary, nil
	case "sub_a", "sub-a", "suba":
		return KindSubA, nil
	case "sub_b", "sub-b", "subb":
		return KindSubB, nil
	case "nested":
		return KindNested, nil
	default:
		return 0, fmt.Errorf("unknown tag kind %q (expected primary|sub_a|sub_b|nested)", s)
	}
}

// TagSpec describes how rows of one kind are recognized and labelled.
type TagSpec struct {
	Kind   Kind     `json:"kind" yaml:"kind"`
	Code   string   `json:"code" yaml:"code"`
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"fields"`
}

// DefaultRoot is the name of the synthetic root node.
const DefaultRoot = "people"

// Schema maps tag codes to tag specs. It is immutable once built.
type Schema struct {
	root   string
	specs  [4]TagSpec
	byCode map[string]Kind
}

// DefaultSchema returns the person/address/phone/family schema.
func DefaultSchema() *Schema {
	s, err := NewSchema(DefaultRoot, DefaultSpecs()...)
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultSpecs returns a fresh copy of the default tag specs.
func DefaultSpecs() []TagSpec {
	return []TagSpec{
		{Kind: KindPrimary, Code: "P", Name: "person", Fields: []string{"firstname", "lastname"}},
		{Kind: KindSubA, Code: "A", Name: "address", Fields: []string{"street", "city", "zipcode"}},
		{Kind: KindSubB, Code: "T", Name: "phone", Fields: []string{"mobile", "landline"}},
		{Kind: KindNested, Code: "F", Name: "family", Fields: []string{"name", "born"}},
	}
}

// NewSchema validates specs and builds a Schema. Every kind must be
// described exactly once, codes must be distinct, and node and field names
// must be usable as element names.
func NewSchema(root string, specs ...TagSpec) (*Schema, error) {
	if !validName(root) {
		return nil, fmt.Errorf("invalid root name %q", root)
	}

	s := &Schema{root: root, byCode: make(map[string]Kind, len(specs))}
	seen := make(map[Kind]bool, len(specs))
	for _, spec := range specs {
		if spec.Kind < KindPrimary || spec.Kind > KindNested {
			return nil, fmt.Errorf("invalid tag kind %d", int(spec.Kind))
		}
		if seen[spec.Kind] {
			return nil, fmt.Errorf("tag kind %s described more than once", spec.Kind)
		}
		seen[spec.Kind] = true

		if spec.Code == "" {
			return nil, fmt.Errorf("tag kind %s: empty code", spec.Kind)
		}
		if other, ok := s.byCode[spec.Code]; ok {
			return nil, fmt.Errorf("tag code %q used by both %s and %s", spec.Code, other, spec.Kind)
		}
		if !validName(spec.Name) {
			return nil, fmt.Errorf("tag kind %s: invalid name %q", spec.Kind, spec.Name)
		}
		for _, field := range spec.Fields {
			if !validName(field) {
				return nil, fmt.Errorf("tag kind %s: invalid field name %q", spec.Kind, field)
			}
		}

		spec.Fields = append([]string(nil), spec.Fields...)
		s.specs[spec.Kind] = spec
		s.byCode[spec.Code] = spec.Kind
	}
	for _, k := range Kinds {
		if !seen[k] {
			return nil, fmt.Errorf("tag kind %s not described", k)
		}
	}
	return s, nil
}

// Root returns the root node name.
func (s *Schema) Root() string { return s.root }

// Spec returns the tag spec for k.
func (s *Schema) Spec(k Kind) TagSpec { return s.specs[k] }

// Specs returns the tag specs in kind order.
func (s *Schema) Specs() []TagSpec {
	out := make([]TagSpec, len(s.specs))
	copy(out, s.specs[:])
	return out
}

// Classify returns the tag spec for a row's leading code.
func (s *Schema) Classify(code string) (TagSpec, error) {
	k, ok := s.byCode[code]
	if !ok {
		return TagSpec{}, &UnknownTagKindError{Code: code}
	}
	return s.specs[k], nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
