package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// settle is how long the watcher waits after the last change before a run,
// so editors that write multiple files trigger a single regeneration.
const settle = 500 * time.Millisecond

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate assets whenever the document changes",
		Long: `Watch the scene description files and rerun generation on every change.
Unchanged assets stay cached, so a typical edit only regenerates the frames
it touches. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchLoop()
		},
	}
}

func runWatchLoop() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(documentPath())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	printInfo(fmt.Sprintf("Watching %s", dir))

	// Initial run; failures keep watching so the next edit can fix them.
	if err := runGenerate(); err != nil {
		printWarning("Initial run failed; waiting for changes")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var timer *time.Timer
	timerCh := make(<-chan time.Time)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantChange(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(settle)
			timerCh = timer.C

		case <-timerCh:
			printInfo("Change detected, regenerating")
			if err := runGenerate(); err != nil {
				printWarning("Run failed; waiting for changes")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printWarning(fmt.Sprintf("Watch error: %v", err))

		case <-sigCh:
			printInfo("Stopping watch")
			return nil
		}
	}
}

// relevantChange filters watcher noise: only YAML writes and creates matter,
// and generated output must never retrigger a run.
func relevantChange(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
