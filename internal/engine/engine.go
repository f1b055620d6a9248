// Package engine wires document loading, resolution, and generation into
// complete runs.
package engine

import (
	"context"
	"fmt"

	"github.com/storyboard/storyboard/pkg/cache"
	"github.com/storyboard/storyboard/pkg/interfaces"
	"github.com/storyboard/storyboard/pkg/logger"
	"github.com/storyboard/storyboard/pkg/queue"
	"github.com/storyboard/storyboard/pkg/resolve"
	"github.com/storyboard/storyboard/pkg/selector"
	"github.com/storyboard/storyboard/pkg/symtab"
	"github.com/storyboard/storyboard/pkg/template"
	"github.com/storyboard/storyboard/pkg/types"
	"github.com/storyboard/storyboard/pkg/validation"
)

// Dependencies are the engine's injectable collaborators. Nil stores fall
// back to disk-backed stores at the configured cache directories; a nil
// clock falls back to the system clock.
type Dependencies struct {
	Provider interfaces.Provider
	Logger   logger.Logger
	Notifier interfaces.RunNotifier
	Clock    interfaces.Clock
	Images   interfaces.ArtifactStore
	Audio    interfaces.ArtifactStore
}

// Engine drives a loaded document through validation, planning, and
// generation. The document and symbol table are immutable once built.
type Engine struct {
	doc      *types.Document
	table    *symtab.Table
	resolver *resolve.Resolver
	expander *template.Expander
	provider interfaces.Provider
	images   interfaces.ArtifactStore
	audio    interfaces.ArtifactStore
	clock    interfaces.Clock
	notifier interfaces.RunNotifier
	logger   logger.Logger
}

// New validates the document, builds the symbol table, and assembles the
// resolution pipeline. Every error here is a resolution-phase error: it
// fails the run before any generation work is dispatched.
func New(doc *types.Document, deps Dependencies) (*Engine, error) {
	if doc.Config == nil {
		doc.Config = types.DefaultConfig()
	}
	if err := doc.Config.Validate(); err != nil {
		return nil, err
	}

	result := validation.NewDocumentValidator().Validate(doc)
	for _, e := range result.Errors {
		if deps.Logger != nil && e.Level == validation.ValidationLevelWarning {
			deps.Logger.Warn(e.Message, logger.WithField("path", e.Path))
		}
	}
	if !result.Valid {
		return nil, validationError(result)
	}

	table, err := symtab.Build(doc)
	if err != nil {
		return nil, err
	}
	resolver := resolve.New(table)

	e := &Engine{
		doc:      doc,
		table:    table,
		resolver: resolver,
		expander: template.NewExpander(resolver),
		provider: deps.Provider,
		images:   deps.Images,
		audio:    deps.Audio,
		clock:    deps.Clock,
		notifier: deps.Notifier,
		logger:   deps.Logger,
	}
	if e.images == nil {
		e.images = cache.NewStore(doc.Config.Output.Cache.Images, "image", "png", deps.Logger)
	}
	if e.audio == nil {
		e.audio = cache.NewStore(doc.Config.Output.Cache.Audio, "tts", "wav", deps.Logger)
	}
	return e, nil
}

// Document returns the engine's document
func (e *Engine) Document() *types.Document { return e.doc }

// Generate plans every asset in the document and runs the full pipeline.
// Successful artifacts are published to the output layout even when sibling
// tasks fail; the report carries both.
func (e *Engine) Generate(ctx context.Context) (*queue.Report, error) {
	tasks, err := e.Plan()
	if err != nil {
		return nil, err
	}
	return e.run(ctx, tasks)
}

// Update plans the full document with the targeted assets marked for forced
// regeneration. Forced tasks skip the cache lookup and overwrite their
// entries; everything else resolves as usual and hits cache.
func (e *Engine) Update(ctx context.Context, target string) (*queue.Report, error) {
	selections, err := selector.Select(target, e.doc)
	if err != nil {
		return nil, err
	}

	tasks, err := e.Plan()
	if err != nil {
		return nil, err
	}
	forced := 0
	for _, task := range tasks {
		for _, sel := range selections {
			if task.SceneID == sel.Scene.ID && task.FrameID == sel.Frame.ID && task.AssetType == sel.Type {
				task.Force = true
				forced++
			}
		}
	}
	if e.logger != nil {
		e.logger.Info("Forcing regeneration",
			logger.WithField("target", target),
			logger.WithField("assets", forced))
	}
	return e.run(ctx, tasks)
}

func (e *Engine) run(ctx context.Context, tasks []*queue.Task) (*queue.Report, error) {
	cfg := e.doc.Config
	if e.notifier != nil {
		e.notifier.NotifyRunStart(e.doc.BasePath, len(tasks))
	}

	orch := queue.New(e.provider, e.images, e.audio, e.clock, e.logger, queue.Options{
		Concurrency: cfg.Generation.MaxConcurrent,
		Timeout:     cfg.Generation.Timeout(),
		Retry:       cfg.Generation.Retry,
	})
	report, err := orch.Run(ctx, tasks)
	if err != nil {
		return nil, err
	}

	if err := e.publish(report); err != nil {
		return report, err
	}

	failed := report.Failed()
	if e.notifier != nil {
		e.notifier.NotifyRunComplete(len(report.Results)-len(failed), len(failed), report.Elapsed)
		for _, res := range failed {
			e.notifier.NotifyAssetFailure(res.Task.SceneID, res.Task.FrameID, res.Task.AssetType, res.Err)
		}
	}
	return report, nil
}

func validationError(result *validation.ValidationResult) error {
	for _, e := range result.Errors {
		if e.Level == validation.ValidationLevelError {
			err := e
			return fmt.Errorf("invalid document: %w", &err)
		}
	}
	return fmt.Errorf("invalid document")
}
