// Package vad isolates voiced speech from raw microphone audio.
//
// The segmenter is a deterministic RMS-energy detector over fixed frames.
// It never errors: silence in, empty utterance out. An empty utterance is a
// normal value that callers must check, not a failure of segmentation.
package vad

import (
	"math"

	"github.com/vishwakarma-31/jarvis/internal/audio"
)

const (
	// frameDurationMs matches the 30ms frames the verifier was tuned on.
	frameDurationMs = 30

	// defaultThreshold is the RMS level separating speech from room noise
	// for a 16kHz close microphone.
	defaultThreshold = 0.015
)

// Utterance is audio known to contain only voiced frames.
type Utterance struct {
	audio.Buffer
	VoicedFrames int
}

// Segmenter extracts voiced sub-segments from a buffer.
type Segmenter struct {
	Threshold float64
}

// New returns a segmenter with the default energy threshold.
func New() *Segmenter {
	return &Segmenter{Threshold: defaultThreshold}
}

// Segment walks the buffer in fixed frames and keeps the ones whose RMS
// energy clears the threshold. A trailing partial frame is discarded.
func (s *Segmenter) Segment(buf audio.Buffer) Utterance {
	rate := buf.Rate
	if rate <= 0 {
		rate = audio.SampleRate
	}
	frameLen := rate * frameDurationMs / 1000
	if frameLen <= 0 || len(buf.Samples) < frameLen {
		return Utterance{Buffer: audio.Buffer{Rate: rate}}
	}

	voiced := make([]float32, 0, len(buf.Samples))
	frames := 0
	for i := 0; i+frameLen <= len(buf.Samples); i += frameLen {
		frame := buf.Samples[i : i+frameLen]
		if rms(frame) > s.Threshold {
			voiced = append(voiced, frame...)
			frames++
		}
	}

	return Utterance{
		Buffer:       audio.Buffer{Samples: voiced, Rate: rate},
		VoicedFrames: frames,
	}
}

func rms(frame []float32) float64 {
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
