package engine

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/storyboard/storyboard/pkg/cache"
	"github.com/storyboard/storyboard/pkg/queue"
	"github.com/storyboard/storyboard/pkg/resolve"
	"github.com/storyboard/storyboard/pkg/types"
)

// Plan builds the full task list: every frame's image, plus audio where the
// frame carries a tts spec. Resolution and expansion happen here, before any
// task is handed to the orchestrator, so a single unresolvable reference or
// unbound variable aborts the run with zero provider calls.
func (e *Engine) Plan() ([]*queue.Task, error) {
	var tasks []*queue.Task
	for _, scene := range e.doc.Scenes {
		sceneCtx := resolve.Context{}.WithChild(scene)
		for _, frame := range scene.Frames {
			frameCtx := sceneCtx.WithChild(frame)

			task, err := e.planImage(scene, frame, frameCtx)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)

			if frame.TTS != nil {
				task, err := e.planAudio(scene, frame, frameCtx)
				if err != nil {
					return nil, err
				}
				tasks = append(tasks, task)
			}
		}
	}
	return tasks, nil
}

func (e *Engine) planImage(scene *types.Scene, frame *types.Frame, frameCtx resolve.Context) (*queue.Task, error) {
	tmpl, ok := e.doc.ImageTemplate(frame.Image.Template)
	if !ok {
		return nil, &resolve.UnresolvedReferenceError{
			Path:    "templates._" + frame.Image.Template,
			Segment: frame.Image.Template,
		}
	}

	bindings, err := e.expander.BuildBindings(frame.Image, frameCtx.WithChild(frame.Image))
	if err != nil {
		return nil, err
	}
	parts, err := e.expander.Expand(tmpl.Parts, bindings)
	if err != nil {
		return nil, err
	}
	// Missing reference images fail the run here, before any key is
	// computed, so keys always fingerprint file content.
	for _, part := range parts {
		if part.Kind != types.PartImageRef {
			continue
		}
		if _, err := os.Stat(part.Value); err != nil {
			return nil, fmt.Errorf("frame %s.%s references image %s: %w", scene.ID, frame.ID, part.Value, err)
		}
	}

	req := types.Request{
		Kind:  types.AssetTypeImage,
		Parts: parts,
		Model: e.doc.Config.Image.DefaultModel,
	}
	return e.newTask(scene, frame, types.AssetTypeImage, req), nil
}

func (e *Engine) planAudio(scene *types.Scene, frame *types.Frame, frameCtx resolve.Context) (*queue.Task, error) {
	tmpl, ok := e.doc.TTSTemplate(frame.TTS.Template)
	if !ok {
		return nil, &resolve.UnresolvedReferenceError{
			Path:    "templates._" + frame.TTS.Template,
			Segment: frame.TTS.Template,
		}
	}

	bindings, err := e.expander.BuildBindings(frame.TTS, frameCtx.WithChild(frame.TTS))
	if err != nil {
		return nil, err
	}
	voice, err := e.expander.ExpandString(tmpl.VoiceID, bindings)
	if err != nil {
		return nil, err
	}
	prompt, err := e.expander.ExpandString(tmpl.Prompt, bindings)
	if err != nil {
		return nil, err
	}

	req := types.Request{
		Kind:  types.AssetTypeAudio,
		Parts: []types.ResolvedPart{types.TextPart(prompt)},
		Model: e.doc.Config.TTS.DefaultModel,
		Voice: voice,
	}
	return e.newTask(scene, frame, types.AssetTypeAudio, req), nil
}

func (e *Engine) newTask(scene *types.Scene, frame *types.Frame, at types.AssetType, req types.Request) *queue.Task {
	return &queue.Task{
		ID:        uuid.NewString(),
		SceneID:   scene.ID,
		FrameID:   frame.ID,
		AssetType: at,
		Request:   req,
		Key:       cache.ComputeKey(req),
	}
}
