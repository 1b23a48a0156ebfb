package voiceprint

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/vishwakarma-31/jarvis/internal/audio"
	"github.com/vishwakarma-31/jarvis/internal/feature"
	"github.com/vishwakarma-31/jarvis/internal/vad"
)

// ErrInsufficientSamples means enrollment could not collect the requested
// number of voiced samples within the retry budget.
var ErrInsufficientSamples = errors.New("insufficient voiced samples for enrollment")

// StorageError wraps a failure to persist the voiceprint.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("voiceprint storage failed: %v", e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Prompter announces enrollment progress to the user. Optional.
type Prompter func(text string)

// Enroller records utterances, extracts features, and stores their mean as
// the new voiceprint.
type Enroller struct {
	Recorder  audio.Recorder
	Segmenter *vad.Segmenter
	Store     *Store
	Prompt    Prompter

	// SampleWindow is the fixed recording length per sample.
	SampleWindow time.Duration

	// RetriesPerSample bounds how often one silent sample slot is retried
	// before enrollment gives up, so a hostile or silent environment cannot
	// block forever.
	RetriesPerSample int

	// SampleFS and SampleDir, when set, archive each accepted recording as
	// sample_N.wav so the audio behind a voiceprint can be replayed and
	// inspected later. Only accepted samples are kept; retried silence is
	// discarded.
	SampleFS  afero.Fs
	SampleDir string
}

// NewEnroller returns an enroller with the standard 5s window and 3 retries
// per sample slot.
func NewEnroller(rec audio.Recorder, seg *vad.Segmenter, store *Store) *Enroller {
	return &Enroller{
		Recorder:         rec,
		Segmenter:        seg,
		Store:            store,
		SampleWindow:     5 * time.Second,
		RetriesPerSample: 3,
	}
}

// Enroll collects sampleCount voiced utterances and replaces any previous
// voiceprint with the mean of their feature vectors. A sample with zero
// voiced frames is retried, not silently skipped; running out of retries
// fails the whole enrollment with ErrInsufficientSamples.
func (e *Enroller) Enroll(ctx context.Context, sampleCount int) error {
	if sampleCount < 1 {
		return ErrInsufficientSamples
	}
	if e.SampleFS != nil {
		if err := e.SampleFS.MkdirAll(e.SampleDir, 0o700); err != nil {
			return &StorageError{Err: fmt.Errorf("sample dir: %w", err)}
		}
	}

	vectors := make([][]float64, 0, sampleCount)
	for i := 0; i < sampleCount; i++ {
		vec, err := e.collectSample(ctx, i+1, sampleCount)
		if err != nil {
			return err
		}
		vectors = append(vectors, vec)
	}

	vp := VoicePrint{
		Vector:    meanVector(vectors),
		Samples:   sampleCount,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.Store.Save(vp); err != nil {
		return &StorageError{Err: err}
	}
	return nil
}

func (e *Enroller) collectSample(ctx context.Context, n, total int) ([]float64, error) {
	for attempt := 0; attempt <= e.RetriesPerSample; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.say(fmt.Sprintf("Recording sample %d of %d. Speak now.", n, total))

		buf, err := e.Recorder.Record(ctx, e.SampleWindow)
		if err != nil {
			return nil, fmt.Errorf("record sample %d: %w", n, err)
		}

		utt := e.Segmenter.Segment(buf)
		if utt.Empty() {
			e.say("No speech detected, try again.")
			continue
		}

		vec, err := feature.Extract(utt.Buffer)
		if err != nil {
			e.say("No speech detected, try again.")
			continue
		}
		if err := e.archiveSample(n, buf); err != nil {
			return nil, &StorageError{Err: err}
		}
		return vec, nil
	}
	return nil, ErrInsufficientSamples
}

func (e *Enroller) archiveSample(n int, buf audio.Buffer) error {
	if e.SampleFS == nil {
		return nil
	}
	path := filepath.Join(e.SampleDir, fmt.Sprintf("sample_%d.wav", n))
	if err := audio.WriteWAV(e.SampleFS, path, buf); err != nil {
		return fmt.Errorf("archive sample %d: %w", n, err)
	}
	return nil
}

func (e *Enroller) say(text string) {
	if e.Prompt != nil {
		e.Prompt(text)
	}
}

func meanVector(vectors [][]float64) []float64 {
	mean := make([]float64, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vectors))
	}
	return mean
}
