package sdl

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/storyboard/storyboard/pkg/template"
	"github.com/storyboard/storyboard/pkg/types"
)

// ParseError reports a malformed document with the path of the offending
// node.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func parseErrorf(path, format string, args ...interface{}) error {
	return &ParseError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// definitionID validates a mapping key carries the definition sigil and
// returns the bare id.
func definitionID(path, key string) (string, error) {
	kind, id := types.ClassifyIdentifier(key)
	if kind != types.IdentifierDefinition {
		return "", parseErrorf(path, "key %q must be prefixed with '_'", key)
	}
	if id == "" {
		return "", parseErrorf(path, "definition key has no name")
	}
	return id, nil
}

// eachMappingEntry walks a YAML mapping node in document order
func eachMappingEntry(node *yaml.Node, path string, fn func(key string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return parseErrorf(path, "expected a mapping, got %s", nodeKindName(node.Kind))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func nodeKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}

func parseCharacters(node *yaml.Node) ([]*types.Character, error) {
	var characters []*types.Character
	err := eachMappingEntry(node, "characters", func(key string, value *yaml.Node) error {
		id, err := definitionID("characters", key)
		if err != nil {
			return err
		}
		var c types.Character
		if err := value.Decode(&c); err != nil {
			return parseErrorf("characters._"+id, "%v", err)
		}
		c.ID = id
		if c.Name == "" {
			return parseErrorf("characters._"+id, "name is required")
		}
		if c.ReferencePhoto == "" {
			return parseErrorf("characters._"+id, "reference_photo is required")
		}
		characters = append(characters, &c)
		return nil
	})
	return characters, err
}

func parseImageTemplates(node *yaml.Node) ([]*types.ImageTemplate, error) {
	var templates []*types.ImageTemplate
	err := eachMappingEntry(node, "templates", func(key string, value *yaml.Node) error {
		id, err := definitionID("templates", key)
		if err != nil {
			return err
		}
		var raw struct {
			Instructions string `yaml:"instructions"`
			Prompt       string `yaml:"prompt"`
		}
		if err := value.Decode(&raw); err != nil {
			return parseErrorf("templates._"+id, "%v", err)
		}
		text := strings.TrimSpace(raw.Instructions)
		if text == "" {
			text = strings.TrimSpace(raw.Prompt)
		}
		if text == "" {
			return parseErrorf("templates._"+id, "instructions are required")
		}
		templates = append(templates, &types.ImageTemplate{
			ID:    id,
			Parts: template.ParseInstructions(text),
		})
		return nil
	})
	return templates, err
}

func parseTTSTemplates(node *yaml.Node) ([]*types.TTSTemplate, error) {
	var templates []*types.TTSTemplate
	err := eachMappingEntry(node, "templates", func(key string, value *yaml.Node) error {
		id, err := definitionID("templates", key)
		if err != nil {
			return err
		}
		var t types.TTSTemplate
		if err := value.Decode(&t); err != nil {
			return parseErrorf("templates._"+id, "%v", err)
		}
		t.ID = id
		if t.VoiceID == "" {
			return parseErrorf("templates._"+id, "voice_id is required")
		}
		if t.Prompt == "" {
			return parseErrorf("templates._"+id, "prompt is required")
		}
		templates = append(templates, &t)
		return nil
	})
	return templates, err
}

// parseAssetSpec parses a call-site spec: a template reference plus $var
// bindings. Every key except "template" must carry the variable sigil.
func parseAssetSpec(node *yaml.Node, path string) (*types.AssetSpec, error) {
	spec := &types.AssetSpec{Vars: make(map[string]string)}
	err := eachMappingEntry(node, path, func(key string, value *yaml.Node) error {
		if value.Kind != yaml.ScalarNode {
			return parseErrorf(path, "value for %q must be a scalar", key)
		}
		if key == "template" {
			_, ref := types.ClassifyIdentifier(value.Value)
			spec.Template = ref
			return nil
		}
		kind, name := types.ClassifyIdentifier(key)
		if kind != types.IdentifierVariable {
			return parseErrorf(path,
				"key %q must be prefixed with '$' (should be '$%s'); only 'template' is allowed without it", key, key)
		}
		spec.Vars[name] = value.Value
		spec.VarOrder = append(spec.VarOrder, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if spec.Template == "" {
		return nil, parseErrorf(path, "template reference is required")
	}
	return spec, nil
}

func parseScenes(node *yaml.Node) ([]*types.Scene, error) {
	var scenes []*types.Scene
	err := eachMappingEntry(node, "scenes", func(key string, value *yaml.Node) error {
		sceneID, err := definitionID("scenes", key)
		if err != nil {
			return err
		}
		scenePath := "scenes._" + sceneID

		scene := &types.Scene{ID: sceneID}
		var framesNode *yaml.Node
		err = eachMappingEntry(value, scenePath, func(field string, fieldValue *yaml.Node) error {
			switch field {
			case "name":
				scene.Name = fieldValue.Value
			case "frames":
				framesNode = fieldValue
			}
			return nil
		})
		if err != nil {
			return err
		}
		if scene.Name == "" {
			return parseErrorf(scenePath, "name is required")
		}

		if framesNode != nil {
			err = eachMappingEntry(framesNode, scenePath+".frames", func(frameKey string, frameValue *yaml.Node) error {
				frame, err := parseFrame(sceneID, frameKey, frameValue)
				if err != nil {
					return err
				}
				scene.Frames = append(scene.Frames, frame)
				return nil
			})
			if err != nil {
				return err
			}
		}
		scenes = append(scenes, scene)
		return nil
	})
	return scenes, err
}

func parseFrame(sceneID, key string, node *yaml.Node) (*types.Frame, error) {
	framePath := fmt.Sprintf("scenes._%s.frames", sceneID)
	frameID, err := definitionID(framePath, key)
	if err != nil {
		return nil, err
	}
	framePath = fmt.Sprintf("scenes._%s._%s", sceneID, frameID)

	frame := &types.Frame{SceneID: sceneID, ID: frameID}
	err = eachMappingEntry(node, framePath, func(field string, value *yaml.Node) error {
		switch field {
		case "image":
			spec, err := parseAssetSpec(value, framePath+".image")
			if err != nil {
				return err
			}
			frame.Image = spec
		case "tts":
			spec, err := parseAssetSpec(value, framePath+".tts")
			if err != nil {
				return err
			}
			frame.TTS = spec
		default:
			return parseErrorf(framePath, "unknown frame field %q", field)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if frame.Image == nil {
		return nil, parseErrorf(framePath, "frame requires an image spec")
	}
	return frame, nil
}

// parseConfig decodes the config block over the defaults so omitted fields
// keep their documented values.
func parseConfig(node *yaml.Node) (*types.Config, error) {
	cfg := types.DefaultConfig()
	if node != nil {
		if err := node.Decode(cfg); err != nil {
			return nil, parseErrorf("config", "%v", err)
		}
	}
	return cfg, nil
}
