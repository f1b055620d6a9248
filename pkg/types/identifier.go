package types

import "strings"

// IdentifierKind classifies the sigil on an SDL token. Raw prefixes are
// inspected once at the boundary; resolved values never carry them.
type IdentifierKind string

const (
	IdentifierDefinition IdentifierKind = "definition" // _name
	IdentifierVariable   IdentifierKind = "variable"   // $name
	IdentifierReference  IdentifierKind = "reference"  // @path
	IdentifierLiteral    IdentifierKind = "literal"
)

// ClassifyIdentifier reports the kind of a raw SDL token and the token with
// its sigil stripped. Literals are returned unchanged.
func ClassifyIdentifier(raw string) (IdentifierKind, string) {
	switch {
	case strings.HasPrefix(raw, "_"):
		return IdentifierDefinition, raw[1:]
	case strings.HasPrefix(raw, "$"):
		return IdentifierVariable, raw[1:]
	case strings.HasPrefix(raw, "@"):
		return IdentifierReference, raw[1:]
	default:
		return IdentifierLiteral, raw
	}
}

// IsReference reports whether a raw value is an @reference
func IsReference(raw string) bool {
	return strings.HasPrefix(raw, "@")
}
