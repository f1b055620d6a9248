package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/storyboard/storyboard/internal/engine"
	"github.com/storyboard/storyboard/pkg/metadata"
	"github.com/storyboard/storyboard/pkg/mocks"
	"github.com/storyboard/storyboard/pkg/provider"
	"github.com/storyboard/storyboard/pkg/resolve"
	"github.com/storyboard/storyboard/pkg/template"
	"github.com/storyboard/storyboard/pkg/types"
)

// testDocument builds the _nick / _oblivion_dialogue scenario with output
// and cache directories under a fresh temp root.
func testDocument(t *testing.T) *types.Document {
	t.Helper()
	root := t.TempDir()

	photo := filepath.Join(root, "nick_photo.png")
	if err := os.WriteFile(photo, []byte("photo bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := types.DefaultConfig()
	cfg.Output.Directory = filepath.Join(root, "output")
	cfg.Output.Cache.Images = filepath.Join(root, "cache", "images")
	cfg.Output.Cache.Audio = filepath.Join(root, "cache", "audio")

	return &types.Document{
		BasePath: root,
		Config:   cfg,
		Characters: []*types.Character{
			{
				ID:             "nick",
				Name:           "Nick",
				ReferencePhoto: photo,
				TTS:            &types.CharacterVoice{Style: "gruff", Voice: "Fenrir"},
			},
		},
		ImageTemplates: []*types.ImageTemplate{
			{ID: "oblivion_dialogue", Parts: template.ParseInstructions(
				"{image $character_reference}A dialogue close-up of '{$character_name}'.")},
		},
		TTSTemplates: []*types.TTSTemplate{
			{ID: "dialogue", VoiceID: "{$voice}", Prompt: "Say in a {$style} tone: {$line}"},
		},
		Scenes: []*types.Scene{
			{
				ID:   "inn",
				Name: "The Inn",
				Frames: []*types.Frame{
					{
						SceneID: "inn",
						ID:      "inventory",
						Image: &types.AssetSpec{
							Template: "oblivion_dialogue",
							Vars: map[string]string{
								"character_reference": "@characters._nick.reference_photo",
								"character_name":      "@characters._nick.name",
							},
						},
						TTS: &types.AssetSpec{
							Template: "dialogue",
							Vars: map[string]string{
								"voice": "@characters._nick.tts.voice",
								"style": "@characters._nick.tts.style",
								"line":  "Check your inventory.",
							},
						},
					},
				},
			},
		},
	}
}

func newEngine(t *testing.T, doc *types.Document, p *mocks.MockProvider) *engine.Engine {
	t.Helper()
	eng, err := engine.New(doc, engine.Dependencies{
		Provider: p,
		Clock:    mocks.NewFakeClock(),
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng
}

func TestPlanRendersTheScenario(t *testing.T) {
	doc := testDocument(t)
	eng := newEngine(t, doc, mocks.NewMockProvider())

	tasks, err := eng.Plan()
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("planned %d tasks, want image and audio", len(tasks))
	}

	image := tasks[0]
	wantParts := []types.ResolvedPart{
		types.ImagePart(doc.Characters[0].ReferencePhoto),
		types.TextPart("A dialogue close-up of '"),
		types.TextPart("Nick"),
		types.TextPart("'."),
	}
	if !reflect.DeepEqual(image.Request.Parts, wantParts) {
		t.Fatalf("image parts\n%+v\nwant\n%+v", image.Request.Parts, wantParts)
	}

	audio := tasks[1]
	if audio.Request.Voice != "Fenrir" {
		t.Fatalf("voice = %q, want Fenrir", audio.Request.Voice)
	}
	want := "Say in a gruff tone: Check your inventory."
	if audio.Request.Parts[0].Value != want {
		t.Fatalf("prompt = %q, want %q", audio.Request.Parts[0].Value, want)
	}
}

func TestGenerateWritesOutputAndMetadata(t *testing.T) {
	doc := testDocument(t)
	p := mocks.NewMockProvider()
	eng := newEngine(t, doc, p)

	report, err := eng.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !report.Succeeded() {
		t.Fatalf("run failed: %+v", report.Failed())
	}

	outputDir := doc.Config.Output.Directory
	for _, name := range []string{"image.png", "tts.wav"} {
		path := filepath.Join(outputDir, "scenes", "inn", "inventory", name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing published asset %s: %v", name, err)
		}
	}

	idx, err := metadata.LoadIndex(outputDir)
	if err != nil {
		t.Fatalf("index unreadable: %v", err)
	}
	if len(idx.Scenes) != 1 || idx.Scenes[0].ID != "inn" || idx.Scenes[0].FrameCount != 1 {
		t.Fatalf("index = %+v", idx)
	}
	scene, err := metadata.LoadScene(outputDir, idx.Scenes[0])
	if err != nil {
		t.Fatalf("scene metadata unreadable: %v", err)
	}
	assets := scene.Frames[0].Assets
	if assets["image"] == nil || assets["audio"] == nil {
		t.Fatalf("assets = %+v", assets)
	}
	if assets["image"].Path != "scenes/inn/inventory/image.png" {
		t.Fatalf("image path = %q", assets["image"].Path)
	}
}

func TestSecondRunIsAllCacheHits(t *testing.T) {
	doc := testDocument(t)
	p := mocks.NewMockProvider()

	eng := newEngine(t, doc, p)
	if _, err := eng.Generate(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	first := p.CallCount()
	if first == 0 {
		t.Fatal("first run never called the provider")
	}

	// A fresh engine over the same document and cache directories.
	report, err := newEngine(t, doc, p).Generate(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if p.CallCount() != first {
		t.Fatalf("second run made %d new provider calls, want 0", p.CallCount()-first)
	}
	for _, res := range report.Results {
		if res.Status != types.TaskStatusCached {
			t.Errorf("task %s status = %s, want cached", res.Task.Coordinates(), res.Status)
		}
	}
}

func TestForcedUpdateMakesExactlyOneCall(t *testing.T) {
	doc := testDocument(t)
	p := mocks.NewMockProvider()

	if _, err := newEngine(t, doc, p).Generate(context.Background()); err != nil {
		t.Fatalf("initial run failed: %v", err)
	}
	before := p.CallCount()

	report, err := newEngine(t, doc, p).Update(context.Background(), "inn.inventory.image")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := p.CallCount() - before; got != 1 {
		t.Fatalf("forced update made %d provider calls, want exactly 1", got)
	}

	// The untargeted audio asset stays a cache hit.
	for _, res := range report.Results {
		switch res.Task.AssetType {
		case types.AssetTypeImage:
			if res.Status != types.TaskStatusComplete {
				t.Errorf("forced image status = %s, want complete", res.Status)
			}
		case types.AssetTypeAudio:
			if res.Status != types.TaskStatusCached {
				t.Errorf("audio status = %s, want cached", res.Status)
			}
		}
	}
}

func TestCycleFailsBeforeAnyGeneration(t *testing.T) {
	doc := testDocument(t)
	frame := doc.Scenes[0].Frames[0]
	frame.Image.Vars["character_name"] = "@scenes._inn._inventory.image.character_reference"
	frame.Image.Vars["character_reference"] = "@scenes._inn._inventory.image.character_name"

	p := mocks.NewMockProvider()
	eng := newEngine(t, doc, p)

	_, err := eng.Generate(context.Background())
	var cyclic *resolve.CyclicReferenceError
	if !errors.As(err, &cyclic) {
		t.Fatalf("error = %v, want CyclicReferenceError", err)
	}
	if p.CallCount() != 0 {
		t.Fatalf("provider called %d times despite the cycle", p.CallCount())
	}
	if _, err := os.Stat(doc.Config.Output.Cache.Images); !os.IsNotExist(err) {
		t.Fatal("cache directory created despite the failed run")
	}
}

func TestUnboundVariableFailsBeforeDispatch(t *testing.T) {
	doc := testDocument(t)
	delete(doc.Scenes[0].Frames[0].Image.Vars, "character_name")

	p := mocks.NewMockProvider()
	_, err := engine.New(doc, engine.Dependencies{Provider: p, Clock: mocks.NewFakeClock()})
	if err == nil {
		t.Fatal("missing binding accepted")
	}
	if !strings.Contains(err.Error(), "character_name") {
		t.Fatalf("error %q does not name the unbound variable", err)
	}
	if p.CallCount() != 0 {
		t.Fatalf("provider called %d times", p.CallCount())
	}
}

func TestMissingReferenceImageFailsBeforeDispatch(t *testing.T) {
	doc := testDocument(t)
	doc.Characters[0].ReferencePhoto = filepath.Join(doc.BasePath, "missing.png")

	p := mocks.NewMockProvider()
	eng := newEngine(t, doc, p)

	_, err := eng.Generate(context.Background())
	if err == nil {
		t.Fatal("missing reference image accepted")
	}
	if !strings.Contains(err.Error(), "missing.png") {
		t.Fatalf("error %q does not name the missing file", err)
	}
	if p.CallCount() != 0 {
		t.Fatalf("provider called %d times despite the missing image", p.CallCount())
	}
}

func TestRunNotificationsAreSent(t *testing.T) {
	doc := testDocument(t)
	p := mocks.NewMockProvider()
	n := mocks.NewMockNotifier()

	eng, err := engine.New(doc, engine.Dependencies{
		Provider: p,
		Clock:    mocks.NewFakeClock(),
		Notifier: n,
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if _, err := eng.Generate(context.Background()); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if len(n.Starts) != 1 || n.Starts[0] != doc.BasePath+":2" {
		t.Fatalf("starts = %v", n.Starts)
	}
	if len(n.Completes) != 1 || n.Completes[0] != "2/0" {
		t.Fatalf("completes = %v", n.Completes)
	}
	if len(n.Failures) != 0 {
		t.Fatalf("failures = %v", n.Failures)
	}
}

func TestFailedAssetsAreReportedToTheNotifier(t *testing.T) {
	doc := testDocument(t)
	p := mocks.NewMockProvider()
	p.Script("Say in a gruff tone: Check your inventory.",
		mocks.ProviderResponse{Err: provider.Fatal(errors.New("voice rejected"))})
	n := mocks.NewMockNotifier()

	eng, err := engine.New(doc, engine.Dependencies{
		Provider: p,
		Clock:    mocks.NewFakeClock(),
		Notifier: n,
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if _, err := eng.Generate(context.Background()); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if len(n.Completes) != 1 || n.Completes[0] != "1/1" {
		t.Fatalf("completes = %v", n.Completes)
	}
	if len(n.Failures) != 1 || !strings.Contains(n.Failures[0], "inn.inventory.audio") {
		t.Fatalf("failures = %v", n.Failures)
	}
}

func TestDuplicateIdentifierRejectedAtConstruction(t *testing.T) {
	doc := testDocument(t)
	doc.Characters = append(doc.Characters, &types.Character{
		ID: "nick", Name: "Imposter", ReferencePhoto: doc.Characters[0].ReferencePhoto,
	})

	_, err := engine.New(doc, engine.Dependencies{Provider: mocks.NewMockProvider()})
	if err == nil {
		t.Fatal("duplicate identifier accepted")
	}
}

func TestSharedRequestsCoalesce(t *testing.T) {
	doc := testDocument(t)
	scene := doc.Scenes[0]
	// A second frame with byte-identical bindings renders to the same key.
	twin := &types.Frame{
		SceneID: "inn",
		ID:      "twin",
		Image: &types.AssetSpec{
			Template: "oblivion_dialogue",
			Vars: map[string]string{
				"character_reference": "@characters._nick.reference_photo",
				"character_name":      "@characters._nick.name",
			},
		},
	}
	scene.Frames = append(scene.Frames, twin)

	p := mocks.NewMockProvider()
	eng := newEngine(t, doc, p)

	tasks, err := eng.Plan()
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	var imageKeys []string
	for _, task := range tasks {
		if task.AssetType == types.AssetTypeImage {
			imageKeys = append(imageKeys, string(task.Key))
		}
	}
	if len(imageKeys) != 2 || imageKeys[0] != imageKeys[1] {
		t.Fatalf("identical requests got keys %v", imageKeys)
	}

	report, err := eng.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !report.Succeeded() {
		t.Fatalf("run failed: %+v", report.Failed())
	}
	// Two image tasks share one generation; the audio task adds one more.
	if p.CallCount() != 2 {
		t.Fatalf("provider called %d times, want 2", p.CallCount())
	}

	var paths []string
	for _, res := range report.Results {
		if res.Task.AssetType == types.AssetTypeImage {
			if res.Entry == nil {
				t.Fatalf("image task %s has no cache entry", res.Task.Coordinates())
			}
			paths = append(paths, res.Entry.Path)
		}
	}
	if len(paths) != 2 || paths[0] != paths[1] {
		t.Fatalf("coalesced tasks resolved to different entries: %v", paths)
	}
}
