package queue

import (
	"context"
	"time"
)

// RealClock is the wall-clock implementation of interfaces.Clock
type RealClock struct{}

// SystemClock returns the real wall clock
func SystemClock() RealClock { return RealClock{} }

func (RealClock) Now() time.Time { return time.Now() }

// Sleep pauses for d or until the context is done
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
