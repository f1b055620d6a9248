package template

import (
	"fmt"
	"sort"
	"strings"

	"github.com/storyboard/storyboard/pkg/resolve"
	"github.com/storyboard/storyboard/pkg/types"
)

// UnboundVariableError reports a template variable with no binding supplied
// at the call site.
type UnboundVariableError struct {
	Name      string
	Available []string
}

func (e *UnboundVariableError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unbound template variable %q (no bindings supplied)", e.Name)
	}
	return fmt.Sprintf("unbound template variable %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Bindings maps variable names to their resolved values: plain strings for
// leaf fields, typed nodes for whole objects (allowing dotted access in
// {$var.field} markers).
type Bindings map[string]interface{}

// names returns the bound variable names, sorted for stable error messages
func (b Bindings) names() []string {
	out := make([]string, 0, len(b))
	for k := range b {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Expander turns templates plus call-site bindings into fully resolved part
// sequences. Binding values that are @references run through the resolver
// first, under the same cycle-tracking context as every other reference.
type Expander struct {
	resolver *resolve.Resolver
}

// NewExpander creates an expander over a resolver
func NewExpander(r *resolve.Resolver) *Expander {
	return &Expander{resolver: r}
}

// BuildBindings resolves every value supplied at an asset spec call site
func (e *Expander) BuildBindings(spec *types.AssetSpec, ctx resolve.Context) (Bindings, error) {
	bindings := make(Bindings, len(spec.Vars))
	for name, raw := range spec.Vars {
		v, err := e.resolver.ResolveValue(raw, ctx)
		if err != nil {
			return nil, err
		}
		bindings[name] = v
	}
	return bindings, nil
}

// Expand renders a parsed template against bindings, producing the ordered
// ResolvedPart sequence. Output order mirrors template order exactly;
// identical inputs always produce the identical sequence.
func (e *Expander) Expand(parts []types.TemplatePart, bindings Bindings) ([]types.ResolvedPart, error) {
	out := make([]types.ResolvedPart, 0, len(parts))
	for _, p := range parts {
		if p.Key == "" {
			out = append(out, types.ResolvedPart{Kind: p.Kind, Value: p.Content})
			continue
		}
		val, err := e.lookup(p.Key, bindings)
		if err != nil {
			return nil, err
		}
		out = append(out, types.ResolvedPart{Kind: p.Kind, Value: val})
	}
	return out, nil
}

// ExpandString renders {$var} markers inside a plain string field, as used
// by tts templates for voice_id and prompt.
func (e *Expander) ExpandString(text string, bindings Bindings) (string, error) {
	var expandErr error
	out := varMarker.ReplaceAllStringFunc(text, func(marker string) string {
		if expandErr != nil {
			return marker
		}
		key := varMarker.FindStringSubmatch(marker)[1]
		val, err := e.lookup(key, bindings)
		if err != nil {
			expandErr = err
			return marker
		}
		return val
	})
	return out, expandErr
}

// lookup fetches a binding, walking dotted tails through typed nodes
func (e *Expander) lookup(key string, bindings Bindings) (string, error) {
	segments := strings.Split(key, ".")
	val, ok := bindings[segments[0]]
	if !ok {
		return "", &UnboundVariableError{Name: segments[0], Available: bindings.names()}
	}
	for _, seg := range segments[1:] {
		node, ok := val.(types.Node)
		if !ok {
			return "", &UnboundVariableError{Name: key, Available: bindings.names()}
		}
		val, ok = node.Property(seg)
		if !ok {
			return "", &UnboundVariableError{Name: key, Available: bindings.names()}
		}
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("template variable %q resolves to an object; reference one of its fields", key)
	}
	return s, nil
}
