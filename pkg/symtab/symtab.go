// Package symtab builds the flat registry of identifier definitions
package symtab

import (
	"fmt"

	"github.com/storyboard/storyboard/pkg/types"
)

// DuplicateIdentifierError reports two definitions with the same identifier
// in the same mapping.
type DuplicateIdentifierError struct {
	Path string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate identifier: %s", e.Path)
}

// Table is the read-only registry of every _identifier definition in a
// document, keyed by its full dotted path (e.g. "characters._nick").
// It is built once per run and performs no reference resolution itself.
type Table struct {
	entries map[string]types.Node
	order   []string
}

// Build walks the document's top-level mappings and registers each
// definition at its point of definition. Frames register under their scene
// so frame ids only need to be unique within the scene.
func Build(doc *types.Document) (*Table, error) {
	t := &Table{entries: make(map[string]types.Node)}

	for _, c := range doc.Characters {
		if err := t.register("characters._"+c.ID, c); err != nil {
			return nil, err
		}
	}
	for _, tmpl := range doc.ImageTemplates {
		if err := t.register("templates._"+tmpl.ID, tmpl); err != nil {
			return nil, err
		}
	}
	for _, tmpl := range doc.TTSTemplates {
		if err := t.register("templates._"+tmpl.ID, tmpl); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.Scenes {
		if err := t.register("scenes._"+s.ID, s); err != nil {
			return nil, err
		}
		for _, f := range s.Frames {
			if err := t.register(fmt.Sprintf("scenes._%s._%s", s.ID, f.ID), f); err != nil {
				return nil, err
			}
		}
	}

	return t, nil
}

func (t *Table) register(path string, node types.Node) error {
	if _, exists := t.entries[path]; exists {
		return &DuplicateIdentifierError{Path: path}
	}
	t.entries[path] = node
	t.order = append(t.order, path)
	return nil
}

// Lookup returns the definition registered at the given full path
func (t *Table) Lookup(path string) (types.Node, bool) {
	n, ok := t.entries[path]
	return n, ok
}

// Paths lists every registered definition path in insertion order
func (t *Table) Paths() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len reports the number of registered definitions
func (t *Table) Len() int { return len(t.entries) }
