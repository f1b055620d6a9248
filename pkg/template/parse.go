// Package template parses instruction text and expands it into resolved
// prompt parts.
package template

import (
	"regexp"

	"github.com/storyboard/storyboard/pkg/types"
)

// Instruction text carries two inline markers:
//
//	{image $var}      reference image bound at the call site
//	{image ./path}    literal reference image
//	{$var}            inline text substitution (dotted tails allowed)
var (
	imageMarker = regexp.MustCompile(`\{image\s+(\$[\w-]+|\.?[\w/.\-]+)\}`)
	varMarker   = regexp.MustCompile(`\{\$([\w-]+(?:\.[\w-]+)*)\}`)
)

// ParseInstructions splits raw instruction text into an ordered sequence of
// typed template parts. Static text, variable slots, and image markers keep
// their original order; identical input always yields the identical
// sequence.
func ParseInstructions(text string) []types.TemplatePart {
	var parts []types.TemplatePart

	idx := imageMarker.FindAllStringSubmatchIndex(text, -1)
	pos := 0
	for _, m := range idx {
		if m[0] > pos {
			parts = append(parts, parseTextSegment(text[pos:m[0]])...)
		}
		ref := text[m[2]:m[3]]
		if kind, name := types.ClassifyIdentifier(ref); kind == types.IdentifierVariable {
			parts = append(parts, types.TemplatePart{Kind: types.PartImageRef, Key: name})
		} else {
			parts = append(parts, types.TemplatePart{Kind: types.PartImageRef, Content: ref})
		}
		pos = m[1]
	}
	if pos < len(text) {
		parts = append(parts, parseTextSegment(text[pos:])...)
	}

	return parts
}

// parseTextSegment splits a text run on {$var} markers
func parseTextSegment(text string) []types.TemplatePart {
	var parts []types.TemplatePart

	idx := varMarker.FindAllStringSubmatchIndex(text, -1)
	pos := 0
	for _, m := range idx {
		if m[0] > pos {
			parts = append(parts, types.TemplatePart{Kind: types.PartText, Content: text[pos:m[0]]})
		}
		parts = append(parts, types.TemplatePart{Kind: types.PartText, Key: text[m[2]:m[3]]})
		pos = m[1]
	}
	if pos < len(text) {
		parts = append(parts, types.TemplatePart{Kind: types.PartText, Content: text[pos:]})
	}

	return parts
}
