// Package sdl loads scene description documents from YAML into the typed
// document model. A main file names the section files (characters, image
// templates, tts templates, scenes) and carries the config block; sections
// are ordered mappings keyed by _identifier.
package sdl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/storyboard/storyboard/pkg/types"
)

// knownImageExtensions marks frame binding values that are file paths and
// need resolving against the document directory.
var knownImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".webp": true, ".gif": true, ".bmp": true,
}

// mainFile is the top-level document: section file references plus config
type mainFile struct {
	Characters     string    `yaml:"characters"`
	ImageTemplates string    `yaml:"image_templates"`
	TTSTemplates   string    `yaml:"tts_templates"`
	Scenes         string    `yaml:"scenes"`
	Config         yaml.Node `yaml:"config"`
}

// Load reads the main document file and every section file it references,
// producing a fully typed document. Relative asset paths are resolved
// against the directory containing the main file.
func Load(path string) (*types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	var main mainFile
	if err := yaml.Unmarshal(data, &main); err != nil {
		return nil, parseErrorf(path, "%v", err)
	}

	basePath, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	doc := &types.Document{BasePath: basePath}

	if main.Characters != "" {
		node, err := loadSection(basePath, main.Characters)
		if err != nil {
			return nil, err
		}
		if doc.Characters, err = parseCharacters(node); err != nil {
			return nil, err
		}
	}
	if main.ImageTemplates != "" {
		node, err := loadSection(basePath, main.ImageTemplates)
		if err != nil {
			return nil, err
		}
		if doc.ImageTemplates, err = parseImageTemplates(node); err != nil {
			return nil, err
		}
	}
	if main.TTSTemplates != "" {
		node, err := loadSection(basePath, main.TTSTemplates)
		if err != nil {
			return nil, err
		}
		if doc.TTSTemplates, err = parseTTSTemplates(node); err != nil {
			return nil, err
		}
	}
	if main.Scenes != "" {
		node, err := loadSection(basePath, main.Scenes)
		if err != nil {
			return nil, err
		}
		if doc.Scenes, err = parseScenes(node); err != nil {
			return nil, err
		}
	}

	var configNode *yaml.Node
	if main.Config.Kind != 0 {
		configNode = &main.Config
	}
	if doc.Config, err = parseConfig(configNode); err != nil {
		return nil, err
	}

	resolveFilePaths(doc)
	return doc, nil
}

// Parse builds a document from already-decoded section nodes. Tests and
// single-file documents use this path.
func Parse(sections map[string]*yaml.Node, basePath string) (*types.Document, error) {
	doc := &types.Document{BasePath: basePath}
	var err error

	if node, ok := sections["characters"]; ok {
		if doc.Characters, err = parseCharacters(node); err != nil {
			return nil, err
		}
	}
	if node, ok := sections["image_templates"]; ok {
		if doc.ImageTemplates, err = parseImageTemplates(node); err != nil {
			return nil, err
		}
	}
	if node, ok := sections["tts_templates"]; ok {
		if doc.TTSTemplates, err = parseTTSTemplates(node); err != nil {
			return nil, err
		}
	}
	if node, ok := sections["scenes"]; ok {
		if doc.Scenes, err = parseScenes(node); err != nil {
			return nil, err
		}
	}
	if doc.Config, err = parseConfig(sections["config"]); err != nil {
		return nil, err
	}

	resolveFilePaths(doc)
	return doc, nil
}

func loadSection(basePath, ref string) (*yaml.Node, error) {
	sectionPath := ref
	if !filepath.IsAbs(sectionPath) {
		sectionPath = filepath.Join(basePath, sectionPath)
	}
	data, err := os.ReadFile(sectionPath)
	if err != nil {
		return nil, fmt.Errorf("reading section %s: %w", ref, err)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, parseErrorf(ref, "%v", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, parseErrorf(ref, "empty document")
	}
	return root.Content[0], nil
}

// resolveFilePaths rewrites relative file paths in the document to absolute
// paths anchored at the document directory. Reference values and variables
// are left alone; they resolve later.
func resolveFilePaths(doc *types.Document) {
	for _, c := range doc.Characters {
		c.ReferencePhoto = resolvePath(c.ReferencePhoto, doc.BasePath)
	}
	for _, t := range doc.ImageTemplates {
		for i := range t.Parts {
			p := &t.Parts[i]
			if p.Kind == types.PartImageRef && p.Key == "" && p.Content != "" {
				p.Content = resolvePath(p.Content, doc.BasePath)
			}
		}
	}
	for _, s := range doc.Scenes {
		for _, f := range s.Frames {
			if f.Image == nil {
				continue
			}
			for name, value := range f.Image.Vars {
				if looksLikePath(value) {
					f.Image.Vars[name] = resolvePath(value, doc.BasePath)
				}
			}
		}
	}
}

func resolvePath(p, basePath string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, strings.TrimPrefix(p, "./"))
}

// looksLikePath reports whether a binding value names a file rather than a
// literal or reference.
func looksLikePath(value string) bool {
	if types.IsReference(value) {
		return false
	}
	if strings.Contains(value, "/") {
		return true
	}
	return knownImageExtensions[strings.ToLower(filepath.Ext(value))]
}
