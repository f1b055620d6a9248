// Package metadata writes the output index consumed by the viewer and
// compositor.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/storyboard/storyboard/pkg/logger"
)

// AssetInfo describes one generated artifact. Paths are relative to the
// output directory root so the layout is relocatable.
type AssetInfo struct {
	Path            string  `json:"path"`
	Hash            string  `json:"hash"`
	Format          string  `json:"format"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// FrameMetadata holds a frame's generated assets keyed by asset type
// ("image", "audio").
type FrameMetadata struct {
	ID     string                `json:"id"`
	Assets map[string]*AssetInfo `json:"assets"`
}

// SceneMetadata is the per-scene output record
type SceneMetadata struct {
	SceneID   string           `json:"scene_id"`
	SceneName string           `json:"scene_name"`
	Frames    []*FrameMetadata `json:"frames"`
}

// IndexScene is one entry of the root index
type IndexScene struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FrameCount   int    `json:"frame_count"`
	MetadataPath string `json:"metadata_path"`
}

// Index is the root metadata document enumerating every scene
type Index struct {
	Scenes []IndexScene `json:"scenes"`
}

// Writer persists metadata under <outputDir>/scenes
type Writer struct {
	dir    string
	logger logger.Logger
}

// NewWriter creates a writer rooted at the output directory
func NewWriter(outputDir string, log logger.Logger) *Writer {
	return &Writer{dir: filepath.Join(outputDir, "scenes"), logger: log}
}

// Dir returns the scenes directory the writer manages
func (w *Writer) Dir() string { return w.dir }

// WriteScene writes a scene's metadata file and returns its path relative
// to the scenes directory.
func (w *Writer) WriteScene(scene *SceneMetadata) (string, error) {
	sceneDir := filepath.Join(w.dir, scene.SceneID)
	if err := os.MkdirAll(sceneDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scene directory: %w", err)
	}

	path := filepath.Join(sceneDir, "metadata.json")
	if err := writeJSON(path, scene); err != nil {
		return "", err
	}
	if w.logger != nil {
		w.logger.Debug("Wrote scene metadata", logger.WithField("path", path))
	}
	return filepath.Join(scene.SceneID, "metadata.json"), nil
}

// WriteIndex writes the root metadata.json enumerating all scenes
func (w *Writer) WriteIndex(scenes []*SceneMetadata) error {
	idx := Index{Scenes: make([]IndexScene, 0, len(scenes))}
	for _, s := range scenes {
		idx.Scenes = append(idx.Scenes, IndexScene{
			ID:           s.SceneID,
			Name:         s.SceneName,
			FrameCount:   len(s.Frames),
			MetadataPath: filepath.ToSlash(filepath.Join(s.SceneID, "metadata.json")),
		})
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scenes directory: %w", err)
	}
	return writeJSON(filepath.Join(w.dir, "metadata.json"), idx)
}

// LoadIndex reads the root index back from an output directory
func LoadIndex(outputDir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, "scenes", "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse metadata index: %w", err)
	}
	return &idx, nil
}

// LoadScene reads one scene's metadata given its index entry
func LoadScene(outputDir string, entry IndexScene) (*SceneMetadata, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, "scenes", filepath.FromSlash(entry.MetadataPath)))
	if err != nil {
		return nil, fmt.Errorf("failed to read scene metadata: %w", err)
	}
	var scene SceneMetadata
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("failed to parse scene metadata: %w", err)
	}
	return &scene, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit metadata: %w", err)
	}
	return nil
}
