package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/storyboard/storyboard/pkg/logger"
	"github.com/storyboard/storyboard/pkg/media"
	"github.com/storyboard/storyboard/pkg/metadata"
	"github.com/storyboard/storyboard/pkg/queue"
	"github.com/storyboard/storyboard/pkg/types"
)

// assetFilename maps an asset type to its fixed per-frame output name
func assetFilename(at types.AssetType) string {
	if at == types.AssetTypeAudio {
		return "tts.wav"
	}
	return "image.png"
}

// publish copies every successful artifact out of the cache into the output
// layout (scenes/<scene>/<frame>/<asset>) and writes the metadata index.
// Failed assets simply stay absent; a rerun fills them in from cache hits of
// the completed siblings.
func (e *Engine) publish(report *queue.Report) error {
	outputDir := e.doc.Config.Output.Directory

	frames := make(map[string]*metadata.FrameMetadata)
	for _, res := range report.Results {
		if res.Entry == nil {
			continue
		}
		task := res.Task

		frameDir := filepath.Join(outputDir, "scenes", task.SceneID, task.FrameID)
		if err := os.MkdirAll(frameDir, 0o755); err != nil {
			return fmt.Errorf("failed to create frame directory: %w", err)
		}
		dest := filepath.Join(frameDir, assetFilename(task.AssetType))
		if err := copyFile(res.Entry.Path, dest); err != nil {
			return fmt.Errorf("failed to publish %s: %w", task.Coordinates(), err)
		}

		info := &metadata.AssetInfo{
			Path:   filepath.ToSlash(filepath.Join("scenes", task.SceneID, task.FrameID, assetFilename(task.AssetType))),
			Hash:   string(task.Key),
			Format: filepath.Ext(dest)[1:],
		}
		if task.AssetType == types.AssetTypeAudio {
			if dur, err := media.WAVDuration(dest); err == nil {
				info.DurationSeconds = dur
			} else if e.logger != nil {
				e.logger.Warn("Could not measure audio duration",
					logger.WithField("path", dest),
					logger.WithField("error", err))
			}
		}

		fk := task.SceneID + "/" + task.FrameID
		fm, ok := frames[fk]
		if !ok {
			fm = &metadata.FrameMetadata{ID: task.FrameID, Assets: make(map[string]*metadata.AssetInfo)}
			frames[fk] = fm
		}
		fm.Assets[string(task.AssetType)] = info
	}

	// Scene and frame ordering in the index follows the document.
	writer := metadata.NewWriter(outputDir, e.logger)
	var scenes []*metadata.SceneMetadata
	for _, scene := range e.doc.Scenes {
		sm := &metadata.SceneMetadata{SceneID: scene.ID, SceneName: scene.Name}
		for _, frame := range scene.Frames {
			if fm, ok := frames[scene.ID+"/"+frame.ID]; ok {
				sm.Frames = append(sm.Frames, fm)
			}
		}
		if len(sm.Frames) == 0 {
			continue
		}
		if _, err := writer.WriteScene(sm); err != nil {
			return err
		}
		scenes = append(scenes, sm)
	}
	return writer.WriteIndex(scenes)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".publish.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
