package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

const chunkSize = 1024

// Recorder captures a fixed-duration buffer from a microphone.
type Recorder interface {
	Record(ctx context.Context, duration time.Duration) (Buffer, error)
}

// ChunkSource streams raw int16 chunks from a microphone. The callback
// returns false to stop the stream.
type ChunkSource interface {
	Stream(ctx context.Context, fn func(chunk []int16) bool) error
}

// Microphone is the portaudio-backed capture device. One Microphone maps to
// the default input device; callers serialize access through Device.
type Microphone struct {
	initialized bool
}

// NewMicrophone initializes portaudio. Close must be called to release it.
func NewMicrophone() (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize audio: %w", err)
	}
	return &Microphone{initialized: true}, nil
}

// Close terminates portaudio.
func (m *Microphone) Close() error {
	if !m.initialized {
		return nil
	}
	m.initialized = false
	return portaudio.Terminate()
}

// Record captures exactly duration of audio. Recording is time-bounded, not
// content-bounded: it always runs to the full window and never stops early
// on silence. Cancellation is honored only between chunk reads so a partial
// chunk is never returned.
func (m *Microphone) Record(ctx context.Context, duration time.Duration) (Buffer, error) {
	in := make([]int16, chunkSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(SampleRate), len(in), in)
	if err != nil {
		return Buffer{}, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return Buffer{}, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	chunks := int(float64(SampleRate)/float64(chunkSize)*duration.Seconds() + 0.5)
	frames := make([]int16, 0, chunks*chunkSize)

	for i := 0; i < chunks; i++ {
		if err := ctx.Err(); err != nil {
			return Buffer{}, err
		}
		if err := stream.Read(); err != nil {
			return Buffer{}, fmt.Errorf("read stream: %w", err)
		}
		frames = append(frames, in...)
	}

	return FromInt16(frames, SampleRate), nil
}

// Stream reads chunks until fn returns false, the context is done, or the
// stream errors.
func (m *Microphone) Stream(ctx context.Context, fn func(chunk []int16) bool) error {
	in := make([]int16, chunkSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(SampleRate), len(in), in)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stream.Read(); err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
		chunk := make([]int16, len(in))
		copy(chunk, in)
		if !fn(chunk) {
			return nil
		}
	}
}
