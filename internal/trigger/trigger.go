// Package trigger listens for the wake phrase that arms the authorization
// gate.
package trigger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vishwakarma-31/jarvis/internal/audio"
	"github.com/vishwakarma-31/jarvis/internal/stt"
)

// DefaultKeyword is the wake phrase.
const DefaultKeyword = "jarvis"

// Detector waits for a positive wake-phrase detection within the window.
// It returns (false, nil) when the window elapses without a detection.
type Detector interface {
	Detect(ctx context.Context, window time.Duration) (bool, error)
}

// KeywordSpotter detects the wake phrase by transcribing a sliding window
// of microphone audio and matching the keyword as a case-insensitive
// substring. A ring buffer holds the most recent audio so the phrase is
// never split across reads.
type KeywordSpotter struct {
	Source  audio.ChunkSource
	STT     stt.Transcriber
	Keyword string

	// WindowLength is how much trailing audio each spotting pass sees.
	WindowLength time.Duration
	// Interval is how much fresh audio accumulates between passes.
	Interval time.Duration

	// Chime, when set, is played once on a positive detection.
	Chime func()
}

// NewKeywordSpotter returns a spotter with a 3s analysis window refreshed
// every second.
func NewKeywordSpotter(source audio.ChunkSource, transcriber stt.Transcriber) *KeywordSpotter {
	return &KeywordSpotter{
		Source:       source,
		STT:          transcriber,
		Keyword:      DefaultKeyword,
		WindowLength: 3 * time.Second,
		Interval:     time.Second,
	}
}

// Detect implements Detector. The window is a hard wall-clock bound; on
// expiry detection stops between chunk reads, never mid-read.
func (k *KeywordSpotter) Detect(ctx context.Context, window time.Duration) (bool, error) {
	keyword := strings.ToLower(k.Keyword)
	if keyword == "" {
		return false, errors.New("empty wake keyword")
	}

	deadline := time.Now().Add(window)
	ring := audio.NewRing(int(k.WindowLength.Seconds() * float64(audio.SampleRate)))
	sinceLastPass := 0
	passSamples := int(k.Interval.Seconds() * float64(audio.SampleRate))

	detected := false
	var sttErr error

	err := k.Source.Stream(ctx, func(chunk []int16) bool {
		if time.Now().After(deadline) {
			return false
		}

		ring.Add(chunk)
		sinceLastPass += len(chunk)
		if sinceLastPass < passSamples {
			return true
		}
		sinceLastPass = 0

		buf := audio.FromInt16(ring.Read(), audio.SampleRate)
		text, err := k.STT.Transcribe(ctx, buf)
		if err != nil {
			sttErr = err
			return false
		}
		if strings.Contains(strings.ToLower(text), keyword) {
			detected = true
			return false
		}
		return true
	})

	if sttErr != nil {
		return false, sttErr
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return false, err
	}
	if detected && k.Chime != nil {
		k.Chime()
	}
	return detected, nil
}
