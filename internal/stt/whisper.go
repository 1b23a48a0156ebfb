package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/vishwakarma-31/jarvis/internal/audio"
)

// Whisper is a whisper.cpp-backed transcriber. The model is loaded once and
// a fresh context is created per call, so one Whisper is safe to share
// across the gate and the trigger detector (calls are already serialized by
// the device lock).
type Whisper struct {
	model whisper.Model
}

// NewWhisper loads a ggml model from disk.
func NewWhisper(modelPath string) (*Whisper, error) {
	if modelPath == "" {
		return nil, errors.New("whisper model path is empty")
	}
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}
	return &Whisper{model: model}, nil
}

// Close releases the model.
func (w *Whisper) Close() error {
	if w.model == nil {
		return nil
	}
	return w.model.Close()
}

// Transcribe runs the model over the buffer and returns the joined segment
// text. Audio must be mono 16kHz float32, which is what the capture layer
// produces.
func (w *Whisper) Transcribe(ctx context.Context, buf audio.Buffer) (string, error) {
	if buf.Empty() {
		return "", errors.New("no audio samples provided")
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new whisper context: %w", err)
	}

	if err := wctx.SetLanguage("en"); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	wctx.SetThreads(uint(runtime.NumCPU()))

	if err := wctx.Process(buf.Samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	var parts []string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}

		text := strings.TrimSpace(segment.Text)
		// whisper emits bracketed annotations like [BLANK_AUDIO]; drop them
		if text == "" || text[0] == '[' || text[0] == '(' {
			continue
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, " "), nil
}
