package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/storyboard/storyboard/internal/engine"
	"github.com/storyboard/storyboard/pkg/logger"
	"github.com/storyboard/storyboard/pkg/metadata"
	"github.com/storyboard/storyboard/pkg/notifier"
	"github.com/storyboard/storyboard/pkg/provider"
	"github.com/storyboard/storyboard/pkg/queue"
	"github.com/storyboard/storyboard/pkg/sdl"
	"github.com/storyboard/storyboard/pkg/symtab"
	"github.com/storyboard/storyboard/pkg/timeline"
	"github.com/storyboard/storyboard/pkg/types"
	"github.com/storyboard/storyboard/pkg/validation"
)

// timeRounding keeps elapsed times readable in summaries
const timeRounding = 10 * time.Millisecond

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate all assets described by the document",
		Long: `Resolve the scene description and generate every image and audio asset.
Assets already present in the cache are reused; only missing work hits the
generation provider. Resolution errors abort before any generation starts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate()
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <scene.frame[.asset]>",
		Short: "Force regeneration of specific assets",
		Long: `Regenerate the targeted assets even when valid cache entries exist.
The target names a scene and frame, optionally narrowed to one asset type
(image or tts). Untargeted assets resolve normally and reuse the cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(args[0])
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the scene description without generating",
		Long: `Load the document and run every static check: structure, duplicate
identifiers, template references, variable bindings, and configuration
bounds. Exits non-zero when the document would fail a generation run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate()
		},
	}
}

func newScenesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes",
		Short: "List scenes and frames in the document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenes()
		},
	}
}

func newTimelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Show the movie timeline computed from generated assets",
		Long: `Compute per-frame display timing from the generated output: each frame
lasts as long as its audio, or the configured no_audio_length default when
the frame has no audio asset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("🎬 Storyboard v%s\n", version)
		},
	}
}

// buildEngine loads the document and assembles the engine with the standard
// collaborator set.
func buildEngine() (*engine.Engine, error) {
	doc, err := sdl.Load(documentPath())
	if err != nil {
		return nil, err
	}

	log := logger.CreateLogger(logFile, verbosity)
	return engine.New(doc, engine.Dependencies{
		Provider: provider.NewPlaceholder(),
		Logger:   log,
		Notifier: notifier.New(notifier.Config{Enabled: notify}, log),
	})
}

func runGenerate() error {
	eng, err := buildEngine()
	if err != nil {
		printError(err.Error())
		return err
	}

	report, err := eng.Generate(context.Background())
	if err != nil {
		printError(err.Error())
		return err
	}
	return summarize(report)
}

func runUpdate(target string) error {
	eng, err := buildEngine()
	if err != nil {
		printError(err.Error())
		return err
	}

	report, err := eng.Update(context.Background(), target)
	if err != nil {
		printError(err.Error())
		return err
	}
	return summarize(report)
}

// summarize prints the run report and returns an error when any task failed,
// so partial runs exit non-zero while keeping every success on disk.
func summarize(report *queue.Report) error {
	cached, generated := 0, 0
	for _, res := range report.Results {
		switch res.Status {
		case types.TaskStatusCached:
			cached++
		case types.TaskStatusComplete:
			generated++
		}
	}
	printInfo(fmt.Sprintf("%d generated, %d cached, %d failed in %s",
		generated, cached, len(report.Failed()), report.Elapsed.Round(timeRounding)))

	failed := report.Failed()
	if len(failed) == 0 {
		printSuccess("All assets up to date")
		return nil
	}
	for _, res := range failed {
		printError(fmt.Sprintf("%s: %v", res.Task.Coordinates(), res.Err))
	}
	return fmt.Errorf("%d of %d assets failed", len(failed), len(report.Results))
}

func runValidate() error {
	doc, err := sdl.Load(documentPath())
	if err != nil {
		printError(err.Error())
		return err
	}

	result := validation.NewDocumentValidator().Validate(doc)
	for _, e := range result.Errors {
		if e.Level == validation.ValidationLevelError {
			printError(e.Error())
		} else {
			printWarning(e.Error())
		}
	}
	if !result.Valid {
		return fmt.Errorf("document is invalid")
	}

	// Symbol table construction catches cross-section duplicates.
	if _, err := symtab.Build(doc); err != nil {
		printError(err.Error())
		return err
	}

	printSuccess("Document is valid")
	return nil
}

func runScenes() error {
	doc, err := sdl.Load(documentPath())
	if err != nil {
		printError(err.Error())
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tNAME\tFRAMES\tAUDIO")
	for _, s := range doc.Scenes {
		withAudio := 0
		for _, f := range s.Frames {
			if f.TTS != nil {
				withAudio++
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.ID, s.Name, len(s.Frames), withAudio)
	}
	return w.Flush()
}

func runTimeline() error {
	doc, err := sdl.Load(documentPath())
	if err != nil {
		printError(err.Error())
		return err
	}

	outputDir := doc.Config.Output.Directory
	idx, err := metadata.LoadIndex(outputDir)
	if err != nil {
		printError("No generated output found; run 'storyboard generate' first")
		return err
	}

	var scenes []*metadata.SceneMetadata
	for _, entry := range idx.Scenes {
		scene, err := metadata.LoadScene(outputDir, entry)
		if err != nil {
			return err
		}
		scenes = append(scenes, scene)
	}

	tl := timeline.Build(scenes, doc.Config.Composite.Movie.NoAudioLength)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tFRAME\tSTART\tDURATION")
	for _, e := range tl.Entries {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.2fs\n", e.SceneID, e.FrameID, e.Start, e.Duration)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printInfo(fmt.Sprintf("Total duration: %.2fs over %d frames", tl.TotalDuration(), len(tl.Entries)))
	return nil
}
