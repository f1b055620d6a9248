package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new Storyboard project",
		Long: `Create a starter scene description in the current directory: a main file,
one character, one image template, one tts template, and a single scene.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing files")

	return cmd
}

var scaffoldFiles = map[string]string{
	"storyboard.yaml": `characters: characters.yaml
image_templates: image_templates.yaml
tts_templates: tts_templates.yaml
scenes: scenes.yaml

config:
  output:
    directory: ./output
  generation:
    max_concurrent: 10
    timeout_seconds: 120
    retry:
      enabled: true
      max_attempts: 3
      delay_seconds: 2
  composite:
    movie:
      no_audio_length: 3.0
`,
	"characters.yaml": `_hero:
  name: Hero
  reference_photo: ./assets/hero.png
  tts:
    style: calm and confident
    voice: Kore
`,
	"image_templates.yaml": `_portrait:
  instructions: |
    A cinematic portrait of {$character_name}.
    {image $character_reference}
    Soft lighting, shallow depth of field.
`,
	"tts_templates.yaml": `_dialogue:
  voice_id: "{$voice}"
  prompt: "Say in a {$style} tone: {$line}"
`,
	"scenes.yaml": `_opening:
  name: Opening
  frames:
    _introduction:
      image:
        template: _portrait
        $character_name: "@characters._hero.name"
        $character_reference: "@characters._hero.reference_photo"
      tts:
        template: _dialogue
        $voice: "@characters._hero.tts.voice"
        $style: "@characters._hero.tts.style"
        $line: Every story starts somewhere.
`,
}

func runInit(force bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	if !force {
		for name := range scaffoldFiles {
			if _, err := os.Stat(filepath.Join(wd, name)); err == nil {
				return fmt.Errorf("%s already exists. Use --force to overwrite", name)
			}
		}
	}

	for name, content := range scaffoldFiles {
		if err := os.WriteFile(filepath.Join(wd, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := os.MkdirAll(filepath.Join(wd, "assets"), 0o755); err != nil {
		return err
	}

	printSuccess("Created starter project")
	printInfo("Add a reference photo at assets/hero.png, then run 'storyboard generate'")

	return nil
}
