// Package validation provides document validation functionality
package validation

import (
	"fmt"

	"github.com/storyboard/storyboard/pkg/types"
)

// ValidationLevel represents finding severity
type ValidationLevel string

const (
	ValidationLevelError   ValidationLevel = "error"
	ValidationLevelWarning ValidationLevel = "warning"
)

// ValidationError represents a single validation finding
type ValidationError struct {
	Path    string
	Field   string
	Message string
	Level   ValidationLevel
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s.%s: %s", e.Level, e.Path, e.Field, e.Message)
}

// ValidationResult contains validation findings
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// AddError adds a finding to the result
func (r *ValidationResult) AddError(path, field, message string, level ValidationLevel) {
	r.Errors = append(r.Errors, ValidationError{
		Path:    path,
		Field:   field,
		Message: message,
		Level:   level,
	})
	if level == ValidationLevelError {
		r.Valid = false
	}
}

// DocumentValidator validates a parsed document before resolution
type DocumentValidator struct{}

// NewDocumentValidator creates a document validator
func NewDocumentValidator() *DocumentValidator {
	return &DocumentValidator{}
}

// Validate checks structural document problems that can be found without
// resolving references: duplicate identifiers, dangling template ids,
// bindings missing for variables a template requires, and config bounds.
func (v *DocumentValidator) Validate(doc *types.Document) *ValidationResult {
	result := &ValidationResult{Valid: true}

	v.validateCharacters(doc, result)
	v.validateTemplates(doc, result)
	v.validateScenes(doc, result)

	if doc.Config != nil {
		if err := doc.Config.Validate(); err != nil {
			result.AddError("config", "", err.Error(), ValidationLevelError)
		}
	}

	return result
}

func (v *DocumentValidator) validateCharacters(doc *types.Document, result *ValidationResult) {
	seen := make(map[string]bool)
	for _, c := range doc.Characters {
		path := "characters._" + c.ID
		if seen[c.ID] {
			result.AddError(path, "id", "duplicate identifier", ValidationLevelError)
		}
		seen[c.ID] = true

		if c.Name == "" {
			result.AddError(path, "name", "character name is required", ValidationLevelError)
		}
		if c.ReferencePhoto == "" {
			result.AddError(path, "reference_photo", "reference photo is required", ValidationLevelError)
		}
	}
}

func (v *DocumentValidator) validateTemplates(doc *types.Document, result *ValidationResult) {
	seen := make(map[string]bool)
	for _, t := range doc.ImageTemplates {
		path := "templates._" + t.ID
		if seen[t.ID] {
			result.AddError(path, "id", "duplicate identifier", ValidationLevelError)
		}
		seen[t.ID] = true

		if len(t.Parts) == 0 {
			result.AddError(path, "instructions", "template has no instructions", ValidationLevelError)
		}
	}
	for _, t := range doc.TTSTemplates {
		path := "templates._" + t.ID
		if seen[t.ID] {
			result.AddError(path, "id", "duplicate identifier", ValidationLevelError)
		}
		seen[t.ID] = true

		if t.VoiceID == "" {
			result.AddError(path, "voice_id", "voice id is required", ValidationLevelError)
		}
		if t.Prompt == "" {
			result.AddError(path, "prompt", "prompt is required", ValidationLevelError)
		}
	}
}

func (v *DocumentValidator) validateScenes(doc *types.Document, result *ValidationResult) {
	seenScenes := make(map[string]bool)
	for _, s := range doc.Scenes {
		scenePath := "scenes._" + s.ID
		if seenScenes[s.ID] {
			result.AddError(scenePath, "id", "duplicate identifier", ValidationLevelError)
		}
		seenScenes[s.ID] = true

		if len(s.Frames) == 0 {
			result.AddError(scenePath, "frames", "scene has no frames", ValidationLevelWarning)
		}

		seenFrames := make(map[string]bool)
		for _, f := range s.Frames {
			framePath := fmt.Sprintf("%s._%s", scenePath, f.ID)
			if seenFrames[f.ID] {
				result.AddError(framePath, "id", "duplicate identifier", ValidationLevelError)
			}
			seenFrames[f.ID] = true

			if f.Image == nil {
				result.AddError(framePath, "image", "frame requires an image spec", ValidationLevelError)
			} else {
				v.validateImageSpec(doc, framePath, f.Image, result)
			}
			if f.TTS != nil {
				v.validateTTSSpec(doc, framePath, f.TTS, result)
			}
		}
	}
}

func (v *DocumentValidator) validateImageSpec(doc *types.Document, framePath string, spec *types.AssetSpec, result *ValidationResult) {
	if spec.Template == "" {
		result.AddError(framePath, "image.template", "template reference is required", ValidationLevelError)
		return
	}
	tmpl, ok := doc.ImageTemplate(spec.Template)
	if !ok {
		result.AddError(framePath, "image.template",
			fmt.Sprintf("unknown image template %q", spec.Template), ValidationLevelError)
		return
	}
	// Unbound variables are fatal at expansion time too; surfacing them here
	// gives a complete report in one pass.
	for _, name := range tmpl.Variables() {
		if _, ok := spec.Vars[name]; !ok {
			result.AddError(framePath, "image.$"+name,
				fmt.Sprintf("template %q requires a binding for $%s", spec.Template, name), ValidationLevelError)
		}
	}
}

func (v *DocumentValidator) validateTTSSpec(doc *types.Document, framePath string, spec *types.AssetSpec, result *ValidationResult) {
	if spec.Template == "" {
		result.AddError(framePath, "tts.template", "template reference is required", ValidationLevelError)
		return
	}
	if _, ok := doc.TTSTemplate(spec.Template); !ok {
		result.AddError(framePath, "tts.template",
			fmt.Sprintf("unknown tts template %q", spec.Template), ValidationLevelError)
	}
}
