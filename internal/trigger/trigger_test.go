package trigger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vishwakarma-31/jarvis/internal/audio"
)

// fakeSource streams fixed-size chunks until stopped.
type fakeSource struct {
	chunks int
}

func (f *fakeSource) Stream(ctx context.Context, fn func([]int16) bool) error {
	chunk := make([]int16, 1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.chunks++
		if !fn(chunk) {
			return nil
		}
	}
}

// scriptedSTT returns queued transcripts in order, repeating the last.
type scriptedSTT struct {
	transcripts []string
	calls       int
	err         error
}

func (s *scriptedSTT) Transcribe(_ context.Context, _ audio.Buffer) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	idx := s.calls
	if idx >= len(s.transcripts) {
		idx = len(s.transcripts) - 1
	}
	s.calls++
	if idx < 0 {
		return "", nil
	}
	return s.transcripts[idx], nil
}

func newSpotter(src audio.ChunkSource, transcriber *scriptedSTT) *KeywordSpotter {
	k := NewKeywordSpotter(src, transcriber)
	k.Interval = 100 * time.Millisecond // few chunks per pass
	return k
}

func TestDetectsKeyword(t *testing.T) {
	transcriber := &scriptedSTT{transcripts: []string{"some noise", "hey Jarvis please"}}
	k := newSpotter(&fakeSource{}, transcriber)

	chimed := false
	k.Chime = func() { chimed = true }

	detected, err := k.Detect(context.Background(), 10*time.Second)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !detected {
		t.Fatal("expected detection")
	}
	if !chimed {
		t.Error("expected chime on detection")
	}
	if transcriber.calls != 2 {
		t.Errorf("expected detection on second pass, got %d calls", transcriber.calls)
	}
}

func TestKeywordMatchIsCaseInsensitive(t *testing.T) {
	transcriber := &scriptedSTT{transcripts: []string{"JARVIS open the door"}}
	k := newSpotter(&fakeSource{}, transcriber)

	detected, err := k.Detect(context.Background(), 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !detected {
		t.Error("expected case-insensitive match")
	}
}

func TestTimeoutReturnsFalseNil(t *testing.T) {
	transcriber := &scriptedSTT{transcripts: []string{"nothing relevant"}}
	k := newSpotter(&fakeSource{}, transcriber)

	detected, err := k.Detect(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if detected {
		t.Error("expected no detection on timeout")
	}
}

func TestTranscriberFailurePropagates(t *testing.T) {
	wantErr := errors.New("model exploded")
	transcriber := &scriptedSTT{err: wantErr}
	k := newSpotter(&fakeSource{}, transcriber)

	_, err := k.Detect(context.Background(), 10*time.Second)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected transcriber error, got %v", err)
	}
}
