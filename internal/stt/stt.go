// Package stt wraps speech-to-text as an opaque capability: audio in,
// text out, may fail or time out.
package stt

import (
	"context"

	"github.com/vishwakarma-31/jarvis/internal/audio"
)

// Transcriber converts an audio buffer to text.
type Transcriber interface {
	Transcribe(ctx context.Context, buf audio.Buffer) (string, error)
}
