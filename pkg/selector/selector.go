// Package selector maps dotted target strings to specific frame assets for
// forced regeneration.
package selector

import (
	"fmt"
	"strings"

	"github.com/storyboard/storyboard/pkg/types"
)

// UnknownTargetError reports a target path segment that does not exist.
// Available lists the valid ids at the failing position.
type UnknownTargetError struct {
	Target    string
	Segment   string
	Available []string
}

func (e *UnknownTargetError) Error() string {
	msg := fmt.Sprintf("unknown target %q: segment %q not found", e.Target, e.Segment)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(e.Available, ", "))
	}
	return msg
}

// AmbiguousTargetError reports a selector that could name either a frame or
// an asset type. It occurs when a frame shares its id with an asset-type
// keyword and the selector omits the third segment.
type AmbiguousTargetError struct {
	Target  string
	Segment string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("ambiguous target %q: segment %q names both a frame and an asset type; "+
		"use the full scene.frame.asset form", e.Target, e.Segment)
}

// Selection addresses one asset of one frame
type Selection struct {
	Scene *types.Scene
	Frame *types.Frame
	Type  types.AssetType
}

// assetTypeKeywords maps selector spellings to asset types; tts is an alias
// for the audio asset.
var assetTypeKeywords = map[string]types.AssetType{
	"image": types.AssetTypeImage,
	"tts":   types.AssetTypeAudio,
	"audio": types.AssetTypeAudio,
}

// Select parses a target of the form scene_id.frame_id[.asset_type] and
// returns the frame assets it addresses, in document order. Omitting the
// asset type selects every asset the frame defines.
func Select(target string, doc *types.Document) ([]Selection, error) {
	parts := strings.Split(target, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("invalid target format %q: expected scene_id.frame_id[.asset_type]", target)
	}

	scene, ok := doc.Scene(stripSigil(parts[0]))
	if !ok {
		return nil, &UnknownTargetError{Target: target, Segment: parts[0], Available: sceneIDs(doc)}
	}

	frameSegment := stripSigil(parts[1])
	frame, frameOK := scene.Frame(frameSegment)
	_, isKeyword := assetTypeKeywords[frameSegment]
	if frameOK && isKeyword && len(parts) == 2 {
		return nil, &AmbiguousTargetError{Target: target, Segment: parts[1]}
	}
	if !frameOK {
		return nil, &UnknownTargetError{Target: target, Segment: parts[1], Available: frameIDs(scene)}
	}

	wanted := []types.AssetType{types.AssetTypeImage, types.AssetTypeAudio}
	if len(parts) == 3 {
		at, ok := assetTypeKeywords[parts[2]]
		if !ok {
			return nil, &UnknownTargetError{Target: target, Segment: parts[2], Available: []string{"image", "tts"}}
		}
		wanted = []types.AssetType{at}
	}

	var out []Selection
	for _, at := range wanted {
		switch at {
		case types.AssetTypeImage:
			if frame.Image != nil {
				out = append(out, Selection{Scene: scene, Frame: frame, Type: at})
			} else if len(parts) == 3 {
				return nil, &UnknownTargetError{Target: target, Segment: parts[2], Available: frameAssets(frame)}
			}
		case types.AssetTypeAudio:
			if frame.TTS != nil {
				out = append(out, Selection{Scene: scene, Frame: frame, Type: at})
			} else if len(parts) == 3 {
				return nil, &UnknownTargetError{Target: target, Segment: parts[2], Available: frameAssets(frame)}
			}
		}
	}
	if len(out) == 0 {
		return nil, &UnknownTargetError{Target: target, Segment: parts[1], Available: frameAssets(frame)}
	}

	return out, nil
}

func stripSigil(segment string) string {
	if kind, name := types.ClassifyIdentifier(segment); kind == types.IdentifierDefinition {
		return name
	}
	return segment
}

func sceneIDs(doc *types.Document) []string {
	out := make([]string, 0, len(doc.Scenes))
	for _, s := range doc.Scenes {
		out = append(out, s.ID)
	}
	return out
}

func frameIDs(scene *types.Scene) []string {
	out := make([]string, 0, len(scene.Frames))
	for _, f := range scene.Frames {
		out = append(out, f.ID)
	}
	return out
}

func frameAssets(frame *types.Frame) []string {
	var out []string
	if frame.Image != nil {
		out = append(out, "image")
	}
	if frame.TTS != nil {
		out = append(out, "tts")
	}
	return out
}
