package resolve

import (
	"fmt"
	"strings"
)

// UnresolvedReferenceError reports an @path that does not name exactly one
// definition or property. Segment is the first path element that failed.
type UnresolvedReferenceError struct {
	Path    string
	Segment string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q: segment %q not found", e.Path, e.Segment)
}

// CyclicReferenceError reports a definition that depends, directly or
// transitively, on itself. Cycle lists the reference chain in traversal
// order, ending with the repeated entry.
type CyclicReferenceError struct {
	Cycle []string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic reference: %s", strings.Join(e.Cycle, " -> "))
}
