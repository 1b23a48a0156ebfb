package monitor

import (
	"context"
	"time"

	"github.com/vishwakarma-31/jarvis/internal/tts"
)

// Dispatch reads alerts and speaks them. When idleFor is non-nil, a spoken
// alert waits until the user has been idle for at least quiet, so a health
// warning does not talk over an exchange in progress. Returns when the
// alerts channel closes or ctx is cancelled.
func Dispatch(ctx context.Context, alerts <-chan Alert, speaker tts.Speaker, idleFor func() time.Duration, quiet time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert, ok := <-alerts:
			if !ok {
				return
			}
			if !waitForQuiet(ctx, idleFor, quiet) {
				return
			}
			speaker.Say(alert.Message())
		}
	}
}

func waitForQuiet(ctx context.Context, idleFor func() time.Duration, quiet time.Duration) bool {
	if idleFor == nil || quiet <= 0 {
		return true
	}
	for {
		remaining := quiet - idleFor()
		if remaining <= 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(remaining):
		}
	}
}
