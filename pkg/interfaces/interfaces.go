// Package interfaces provides abstractions for dependency injection and testability
package interfaces

import (
	"context"
	"time"

	"github.com/storyboard/storyboard/pkg/cache"
	"github.com/storyboard/storyboard/pkg/provider"
	"github.com/storyboard/storyboard/pkg/types"
)

// Provider is the external generation collaborator. It accepts a fully
// rendered request and returns raw artifact bytes or a classified error
// (provider.TransientError, provider.FatalError, provider.TimeoutError).
type Provider interface {
	Generate(ctx context.Context, req types.Request) (*provider.Artifact, error)
}

// ArtifactStore is the content-addressed store the orchestrator writes
// through. Implementations must coalesce concurrent identical keys.
type ArtifactStore interface {
	Lookup(key cache.Key) (*cache.Entry, error)
	Put(key cache.Key, data []byte, overwrite bool) (*cache.Entry, error)
	GetOrGenerate(
		ctx context.Context,
		key cache.Key,
		force bool,
		generate func(ctx context.Context) ([]byte, error),
	) (*cache.Entry, bool, error)
}

// Clock abstracts time for the retry state machine so attempt counts and
// delays are testable without timing the real clock.
type Clock interface {
	Now() time.Time
	// Sleep pauses for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RunNotifier surfaces run-level progress to the user
type RunNotifier interface {
	NotifyRunStart(document string, tasks int)
	NotifyAssetFailure(sceneID, frameID string, assetType types.AssetType, err error)
	NotifyRunComplete(succeeded, failed int, duration time.Duration)
}
