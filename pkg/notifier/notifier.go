// Package notifier provides run completion notifications
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/storyboard/storyboard/pkg/logger"
	"github.com/storyboard/storyboard/pkg/types"
)

// RunNotifier surfaces generation progress through desktop notifications
type RunNotifier struct {
	enabled bool
	logger  logger.Logger
}

// Config represents notification configuration
type Config struct {
	Enabled bool
}

// New creates a run notifier
func New(config Config, log logger.Logger) *RunNotifier {
	return &RunNotifier{
		enabled: config.Enabled,
		logger:  log,
	}
}

// NotifyRunStart notifies that a generation run has started
func (n *RunNotifier) NotifyRunStart(document string, tasks int) {
	if !n.enabled {
		return
	}
	title := "🎬 Storyboard"
	message := fmt.Sprintf("Generating %d assets from %s...", tasks, document)
	n.send(title, message)
}

// NotifyAssetFailure notifies that one asset exhausted its attempts
func (n *RunNotifier) NotifyAssetFailure(sceneID, frameID string, assetType types.AssetType, err error) {
	if !n.enabled {
		return
	}
	title := "❌ Asset Failed"
	message := fmt.Sprintf("%s.%s.%s: %v", sceneID, frameID, assetType, err)
	n.send(title, message)
}

// NotifyRunComplete notifies that the run finished
func (n *RunNotifier) NotifyRunComplete(succeeded, failed int, duration time.Duration) {
	if !n.enabled {
		return
	}
	var title string
	if failed == 0 {
		title = "✅ Generation Complete"
	} else {
		title = "⚠️ Generation Finished With Failures"
	}
	message := fmt.Sprintf("%d succeeded, %d failed in %s", succeeded, failed, formatDuration(duration))
	n.send(title, message)
}

func (n *RunNotifier) send(title, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		if n.logger != nil {
			n.logger.Debug("Failed to send notification", logger.WithField("error", err))
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
