package timeline_test

import (
	"math"
	"testing"

	"github.com/storyboard/storyboard/pkg/metadata"
	"github.com/storyboard/storyboard/pkg/timeline"
)

func frame(id string, audioSeconds float64) *metadata.FrameMetadata {
	fm := &metadata.FrameMetadata{
		ID:     id,
		Assets: map[string]*metadata.AssetInfo{"image": {Path: "scenes/x/" + id + "/image.png"}},
	}
	if audioSeconds > 0 {
		fm.Assets["audio"] = &metadata.AssetInfo{
			Path:            "scenes/x/" + id + "/tts.wav",
			DurationSeconds: audioSeconds,
		}
	}
	return fm
}

func TestBuildSequentialNoGaps(t *testing.T) {
	scenes := []*metadata.SceneMetadata{
		{SceneID: "inn", SceneName: "The Inn", Frames: []*metadata.FrameMetadata{
			frame("a", 2.0),
			frame("b", 0), // no audio, falls back to the default
		}},
		{SceneID: "forest", SceneName: "The Forest", Frames: []*metadata.FrameMetadata{
			frame("c", 1.5),
		}},
	}

	tl := timeline.Build(scenes, 3.0)
	if len(tl.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(tl.Entries))
	}

	wantStarts := []float64{0, 2.0, 5.0}
	wantDurations := []float64{2.0, 3.0, 1.5}
	for i, e := range tl.Entries {
		if math.Abs(e.Start-wantStarts[i]) > 1e-9 {
			t.Errorf("entry %d starts at %f, want %f", i, e.Start, wantStarts[i])
		}
		if math.Abs(e.Duration-wantDurations[i]) > 1e-9 {
			t.Errorf("entry %d lasts %f, want %f", i, e.Duration, wantDurations[i])
		}
	}

	// Order follows document order: inn frames then forest frames.
	if tl.Entries[0].SceneID != "inn" || tl.Entries[2].SceneID != "forest" {
		t.Fatalf("scene order not preserved: %+v", tl.Entries)
	}
	if math.Abs(tl.TotalDuration()-6.5) > 1e-9 {
		t.Fatalf("total = %f, want 6.5", tl.TotalDuration())
	}
}

func TestBuildEmpty(t *testing.T) {
	tl := timeline.Build(nil, 3.0)
	if len(tl.Entries) != 0 || tl.TotalDuration() != 0 {
		t.Fatalf("empty input produced %+v", tl)
	}
}
