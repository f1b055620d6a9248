// Package types provides the core document model and configuration for Storyboard
package types

import (
	"fmt"
)

// AssetType distinguishes the two kinds of generated media
type AssetType string

const (
	AssetTypeImage AssetType = "image"
	AssetTypeAudio AssetType = "audio"
)

// ImageVendor represents supported image generation vendors
type ImageVendor string

const (
	ImageVendorGemini ImageVendor = "gemini"
)

// TTSVendor represents supported speech generation vendors
type TTSVendor string

const (
	TTSVendorGemini TTSVendor = "gemini"
)

// TaskStatus represents the state of a generation task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusAttempting TaskStatus = "attempting"
	TaskStatusRetryWait  TaskStatus = "retry-wait"
	TaskStatusCached     TaskStatus = "cached"
	TaskStatusComplete   TaskStatus = "complete"
	TaskStatusFailed     TaskStatus = "failed"
)

// PartKind tags a resolved prompt part
type PartKind string

const (
	PartText     PartKind = "text"
	PartImageRef PartKind = "image"
)

// ResolvedPart is one typed unit of a fully expanded generation request.
// Text holds prompt text; ImageRef holds a reference image path. A rendered
// request is an ordered sequence of these plus a model identifier, and the
// ordering is significant for cache key computation.
type ResolvedPart struct {
	Kind  PartKind `json:"kind"`
	Value string   `json:"value"`
}

// TextPart builds a text part
func TextPart(s string) ResolvedPart { return ResolvedPart{Kind: PartText, Value: s} }

// ImagePart builds an image reference part
func ImagePart(path string) ResolvedPart { return ResolvedPart{Kind: PartImageRef, Value: path} }

// CharacterVoice holds per-character speech synthesis settings
type CharacterVoice struct {
	Style string `json:"style" yaml:"style"`
	Voice string `json:"voice" yaml:"voice"`
}

// Character is a named participant that frames can reference
type Character struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name" yaml:"name"`
	ReferencePhoto string          `json:"reference_photo" yaml:"reference_photo"`
	TTS            *CharacterVoice `json:"tts,omitempty" yaml:"tts,omitempty"`
}

// TemplatePart is one unit of an image template's instruction text after
// marker parsing. A part either carries static content or names a variable
// key to be bound at the call site.
type TemplatePart struct {
	Kind    PartKind `json:"kind"`
	Content string   `json:"content"`
	Key     string   `json:"key,omitempty"`
}

// ImageTemplate is a reusable, parameterized image prompt
type ImageTemplate struct {
	ID    string         `json:"id" yaml:"id"`
	Parts []TemplatePart `json:"parts"`
}

// Variables returns the variable keys the template requires, in
// first-appearance order.
func (t *ImageTemplate) Variables() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, p := range t.Parts {
		if p.Key != "" && !seen[p.Key] {
			seen[p.Key] = true
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// TTSTemplate is a reusable, parameterized speech prompt. Both fields may
// contain {$var} markers.
type TTSTemplate struct {
	ID      string `json:"id" yaml:"id"`
	VoiceID string `json:"voice_id" yaml:"voice_id"`
	Prompt  string `json:"prompt" yaml:"prompt"`
}

// AssetSpec is a frame's request for one asset: a template id plus the
// variable bindings supplied at the call site. Binding values may be
// literals or @references.
type AssetSpec struct {
	Template string            `json:"template" yaml:"template"`
	Vars     map[string]string `json:"vars,omitempty" yaml:"vars,omitempty"`
	// VarOrder preserves call-site insertion order for deterministic listing.
	VarOrder []string `json:"-" yaml:"-"`
}

// Frame is one storyboard panel: an image spec and an optional tts spec
type Frame struct {
	SceneID string     `json:"scene_id" yaml:"scene_id"`
	ID      string     `json:"id" yaml:"id"`
	Image   *AssetSpec `json:"image" yaml:"image"`
	TTS     *AssetSpec `json:"tts,omitempty" yaml:"tts,omitempty"`
}

// Scene is an ordered sequence of frames
type Scene struct {
	ID     string   `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	Frames []*Frame `json:"frames" yaml:"frames"`
}

// Document is the fully parsed scene description: the top-level mappings
// plus configuration. Insertion order of definitions is preserved for
// listing; lookups go through the symbol table.
type Document struct {
	Characters     []*Character     `json:"characters"`
	ImageTemplates []*ImageTemplate `json:"image_templates"`
	TTSTemplates   []*TTSTemplate   `json:"tts_templates"`
	Scenes         []*Scene         `json:"scenes"`
	Config         *Config          `json:"config"`
	// BasePath anchors relative file paths referenced by the document.
	BasePath string `json:"base_path"`
}

// Scene returns the scene with the given id
func (d *Document) Scene(id string) (*Scene, bool) {
	for _, s := range d.Scenes {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// ImageTemplate returns the image template with the given id
func (d *Document) ImageTemplate(id string) (*ImageTemplate, bool) {
	for _, t := range d.ImageTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// TTSTemplate returns the tts template with the given id
func (d *Document) TTSTemplate(id string) (*TTSTemplate, bool) {
	for _, t := range d.TTSTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Frame returns the frame with the given id inside the scene
func (s *Scene) Frame(id string) (*Frame, bool) {
	for _, f := range s.Frames {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// Node is any document object addressable by an @path segment. The resolver
// walks nested paths through typed nodes instead of reflecting over raw maps;
// each node exposes exactly the fields a reference may legally touch.
type Node interface {
	Property(name string) (interface{}, bool)
}

func (c *Character) Property(name string) (interface{}, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "reference_photo":
		return c.ReferencePhoto, true
	case "tts":
		if c.TTS == nil {
			return nil, false
		}
		return c.TTS, true
	}
	return nil, false
}

func (v *CharacterVoice) Property(name string) (interface{}, bool) {
	switch name {
	case "style":
		return v.Style, true
	case "voice":
		return v.Voice, true
	}
	return nil, false
}

func (t *ImageTemplate) Property(name string) (interface{}, bool) {
	if name == "id" {
		return t.ID, true
	}
	return nil, false
}

func (t *TTSTemplate) Property(name string) (interface{}, bool) {
	switch name {
	case "id":
		return t.ID, true
	case "voice_id":
		return t.VoiceID, true
	case "prompt":
		return t.Prompt, true
	}
	return nil, false
}

// Property exposes the template id and the call-site bindings as sibling
// fields, so @parent.tts.content can reach a binding on the same frame.
func (a *AssetSpec) Property(name string) (interface{}, bool) {
	if name == "template" {
		return a.Template, true
	}
	v, ok := a.Vars[name]
	return v, ok
}

func (f *Frame) Property(name string) (interface{}, bool) {
	switch name {
	case "id":
		return f.ID, true
	case "scene_id":
		return f.SceneID, true
	case "image":
		if f.Image == nil {
			return nil, false
		}
		return f.Image, true
	case "tts":
		if f.TTS == nil {
			return nil, false
		}
		return f.TTS, true
	}
	return nil, false
}

// Property exposes scene fields; frames are addressable by id.
func (s *Scene) Property(name string) (interface{}, bool) {
	switch name {
	case "id":
		return s.ID, true
	case "name":
		return s.Name, true
	}
	if f, ok := s.Frame(name); ok {
		return f, true
	}
	return nil, false
}

// RenderPrompt flattens a part sequence into a display string for reports
// and logs. It is not used for cache keys.
func RenderPrompt(parts []ResolvedPart) string {
	out := ""
	for _, p := range parts {
		if p.Kind == PartText {
			out += p.Value
		} else {
			out += fmt.Sprintf("[image %s]", p.Value)
		}
	}
	return out
}
