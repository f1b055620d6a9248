// Package timeline computes per-frame display timing for video assembly
package timeline

import (
	"github.com/storyboard/storyboard/pkg/metadata"
)

// Entry places one frame on the movie timeline. Start and Duration are in
// seconds.
type Entry struct {
	SceneID  string  `json:"scene_id"`
	FrameID  string  `json:"frame_id"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Timeline is the ordered frame layout
type Timeline struct {
	Entries []Entry `json:"entries"`
}

// TotalDuration returns the movie length in seconds
func (t *Timeline) TotalDuration() float64 {
	if len(t.Entries) == 0 {
		return 0
	}
	last := t.Entries[len(t.Entries)-1]
	return last.Start + last.Duration
}

// Build lays frames out sequentially with no gaps, preserving scene order
// and frame order within each scene. A frame's duration is its audio
// asset's measured playback length when present, else noAudioLength.
func Build(scenes []*metadata.SceneMetadata, noAudioLength float64) *Timeline {
	tl := &Timeline{}
	cursor := 0.0
	for _, scene := range scenes {
		for _, frame := range scene.Frames {
			duration := noAudioLength
			if audio, ok := frame.Assets["audio"]; ok && audio != nil && audio.DurationSeconds > 0 {
				duration = audio.DurationSeconds
			}
			tl.Entries = append(tl.Entries, Entry{
				SceneID:  scene.SceneID,
				FrameID:  frame.ID,
				Start:    cursor,
				Duration: duration,
			})
			cursor += duration
		}
	}
	return tl
}
