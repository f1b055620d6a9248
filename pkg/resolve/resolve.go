// Package resolve implements @path reference resolution over a document
package resolve

import (
	"strings"

	"github.com/storyboard/storyboard/pkg/symtab"
	"github.com/storyboard/storyboard/pkg/types"
)

// Context carries the structural position of the referencing node so that
// relative references can be resolved. Chain lists the ancestors from the
// document root down to the referencing node itself; @parent addresses the
// node immediately above the referencing one.
type Context struct {
	Chain []types.Node
}

// WithChild returns a context one level deeper
func (c Context) WithChild(n types.Node) Context {
	chain := make([]types.Node, 0, len(c.Chain)+1)
	chain = append(chain, c.Chain...)
	chain = append(chain, n)
	return Context{Chain: chain}
}

func (c Context) parent() (types.Node, bool) {
	if len(c.Chain) < 2 {
		return nil, false
	}
	return c.Chain[len(c.Chain)-2], true
}

// Resolver resolves @references against the symbol table. The table and
// document are read-only; resolved values are never mutated, so they are
// safe to share between referencing sites.
type Resolver struct {
	table *symtab.Table
}

// New creates a resolver over a built symbol table
func New(table *symtab.Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve resolves a reference path (with or without the leading @) to its
// value: a string for leaf fields, or a typed node for whole objects.
// Resolution is depth-first; an in-progress set detects cycles before any
// generation work can depend on them.
func (r *Resolver) Resolve(path string, ctx Context) (interface{}, error) {
	return r.resolve(path, ctx, newVisit())
}

// ResolveValue resolves a raw binding value: @references go through the
// resolver, everything else is returned as a literal.
func (r *Resolver) ResolveValue(raw string, ctx Context) (interface{}, error) {
	if !types.IsReference(raw) {
		return raw, nil
	}
	return r.Resolve(raw, ctx)
}

func (r *Resolver) resolve(path string, ctx Context, v *visit) (interface{}, error) {
	ref := strings.TrimPrefix(path, "@")
	if ref == "" {
		return nil, &UnresolvedReferenceError{Path: path, Segment: "@"}
	}
	if err := v.enter(ref); err != nil {
		return nil, err
	}
	defer v.leave(ref)

	parts := strings.Split(ref, ".")

	var current interface{}
	var rest []string

	switch parts[0] {
	case "parent":
		p, ok := ctx.parent()
		if !ok {
			return nil, &UnresolvedReferenceError{Path: path, Segment: "parent"}
		}
		current = p
		rest = parts[1:]
	case "self":
		if len(ctx.Chain) == 0 {
			return nil, &UnresolvedReferenceError{Path: path, Segment: "self"}
		}
		current = ctx.Chain[len(ctx.Chain)-1]
		rest = parts[1:]
	default:
		if len(parts) < 2 {
			return nil, &UnresolvedReferenceError{Path: path, Segment: parts[0]}
		}
		key := parts[0] + "." + definitionKey(parts[1])
		node, ok := r.table.Lookup(key)
		if !ok {
			return nil, &UnresolvedReferenceError{Path: path, Segment: parts[1]}
		}
		current = node
		rest = parts[2:]
	}

	return r.walk(current, rest, path, ctx, v)
}

// walk performs repeated property lookup from a starting value. A string
// field that itself holds an @reference is resolved in place, still under
// the same in-progress set.
func (r *Resolver) walk(current interface{}, parts []string, full string, ctx Context, v *visit) (interface{}, error) {
	for i, part := range parts {
		node, ok := current.(types.Node)
		if !ok {
			// A leaf was reached with path segments remaining; the leaf may
			// be a reference to something deeper.
			s, isStr := current.(string)
			if isStr && types.IsReference(s) {
				deeper, err := r.resolve(s, ctx, v)
				if err != nil {
					return nil, err
				}
				return r.walk(deeper, parts[i:], full, ctx, v)
			}
			return nil, &UnresolvedReferenceError{Path: full, Segment: part}
		}
		val, ok := node.Property(bareSegment(part))
		if !ok {
			return nil, &UnresolvedReferenceError{Path: full, Segment: part}
		}
		current = val
	}

	// The terminal value may itself be a reference.
	if s, ok := current.(string); ok && types.IsReference(s) {
		return r.resolve(s, ctx, v)
	}
	return current, nil
}

// definitionKey keeps the sigil form that symbol table keys carry, so both
// @characters._nick and @characters.nick address the same definition.
func definitionKey(segment string) string {
	_, name := types.ClassifyIdentifier(segment)
	return "_" + name
}

// bareSegment strips a definition sigil for property navigation; node
// properties and nested ids are stored without it.
func bareSegment(segment string) string {
	if kind, name := types.ClassifyIdentifier(segment); kind == types.IdentifierDefinition {
		return name
	}
	return segment
}

// visit tracks in-progress resolutions for cycle detection
type visit struct {
	active map[string]bool
	stack  []string
}

func newVisit() *visit {
	return &visit{active: make(map[string]bool)}
}

func (v *visit) enter(ref string) error {
	if v.active[ref] {
		cycle := append(append([]string{}, v.stack...), ref)
		return &CyclicReferenceError{Cycle: cycle}
	}
	v.active[ref] = true
	v.stack = append(v.stack, ref)
	return nil
}

func (v *visit) leave(ref string) {
	delete(v.active, ref)
	if n := len(v.stack); n > 0 && v.stack[n-1] == ref {
		v.stack = v.stack[:n-1]
	}
}
