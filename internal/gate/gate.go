// Package gate composes audio capture, trigger detection, speech
// segmentation, speaker verification, and transcription into one operation:
// capture an authorized instruction. It is the only producer of
// Instructions with OriginAuthenticated set.
package gate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vishwakarma-31/jarvis/internal/audio"
	"github.com/vishwakarma-31/jarvis/internal/feature"
	"github.com/vishwakarma-31/jarvis/internal/model"
	"github.com/vishwakarma-31/jarvis/internal/stt"
	"github.com/vishwakarma-31/jarvis/internal/trigger"
	"github.com/vishwakarma-31/jarvis/internal/vad"
	"github.com/vishwakarma-31/jarvis/internal/verify"
	"github.com/vishwakarma-31/jarvis/internal/voiceprint"
)

// State names the gate's position in one authorization attempt.
type State string

const (
	Idle            State = "idle"
	AwaitingTrigger State = "awaiting_trigger"
	Recording       State = "recording"
	Segmenting      State = "segmenting"
	Verifying       State = "verifying"
	Transcribing    State = "transcribing"
	Authorized      State = "authorized"
	Denied          State = "denied"
)

// Config holds the gate's timing bounds. All are hard wall-clock limits.
type Config struct {
	// TriggerWindow bounds how long one attempt listens for the wake phrase.
	TriggerWindow time.Duration
	// CommandWindow is the fixed command recording length. Recording always
	// runs the full window; there is no early stop on silence.
	CommandWindow time.Duration
}

// DefaultConfig returns the standard 60s trigger window and 5s recording.
func DefaultConfig() Config {
	return Config{
		TriggerWindow: 60 * time.Second,
		CommandWindow: 5 * time.Second,
	}
}

// Gate is the authorization state machine. One Gate guards one microphone;
// concurrent attempts fail fast with DeviceBusy instead of interleaving
// audio frames.
type Gate struct {
	device    *audio.Device
	detector  trigger.Detector
	recorder  audio.Recorder
	segmenter *vad.Segmenter
	verifier  *verify.Verifier
	prints    *voiceprint.Store
	stt       stt.Transcriber
	cfg       Config

	mu    sync.Mutex
	state State
}

// New assembles a gate from its collaborators.
func New(detector trigger.Detector, recorder audio.Recorder, segmenter *vad.Segmenter,
	verifier *verify.Verifier, prints *voiceprint.Store, transcriber stt.Transcriber, cfg Config) *Gate {
	if cfg.TriggerWindow <= 0 {
		cfg.TriggerWindow = DefaultConfig().TriggerWindow
	}
	if cfg.CommandWindow <= 0 {
		cfg.CommandWindow = DefaultConfig().CommandWindow
	}
	return &Gate{
		device:    audio.NewDevice(),
		detector:  detector,
		recorder:  recorder,
		segmenter: segmenter,
		verifier:  verifier,
		prints:    prints,
		stt:       transcriber,
		cfg:       cfg,
		state:     Idle,
	}
}

// State returns the gate's current state for status reporting.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// Authorize runs one full attempt: wait for the wake phrase, record the
// command, segment, verify the speaker, transcribe. Expected outcomes are
// returned as *DenialError; anything else is a fatal-class fault for the
// caller to handle. Audio buffers and the device lock are released on every
// exit path before Authorize returns.
func (g *Gate) Authorize(ctx context.Context) (model.Instruction, error) {
	release, err := g.device.Acquire()
	if err != nil {
		g.setState(Denied)
		return model.Instruction{}, &DenialError{Reason: DeviceBusy}
	}
	defer release()
	defer g.setState(Idle)

	g.setState(AwaitingTrigger)
	detected, err := g.detector.Detect(ctx, g.cfg.TriggerWindow)
	if err != nil {
		// A detector fault is not a quiet room. Surface it so the caller
		// can log it instead of treating it as a routine timeout.
		g.setState(Denied)
		return model.Instruction{}, fmt.Errorf("trigger detection: %w", err)
	}
	if !detected {
		g.setState(Denied)
		return model.Instruction{}, &DenialError{Reason: NoTrigger}
	}

	return g.captureAndVerify(ctx, g.cfg.CommandWindow)
}

// CaptureVerified runs the constrained pass used by the confirmation
// protocol: the trigger step is skipped and recording starts immediately,
// but segmentation, speaker verification, and transcription all still run.
// A confirmation that did not pass verification is not a confirmation.
func (g *Gate) CaptureVerified(ctx context.Context, window time.Duration) (model.Instruction, error) {
	release, err := g.device.Acquire()
	if err != nil {
		g.setState(Denied)
		return model.Instruction{}, &DenialError{Reason: DeviceBusy}
	}
	defer release()
	defer g.setState(Idle)

	if window <= 0 {
		window = g.cfg.CommandWindow
	}
	return g.captureAndVerify(ctx, window)
}

// captureAndVerify is the Recording → Authorized tail of the state machine.
// Caller holds the device lock.
func (g *Gate) captureAndVerify(ctx context.Context, window time.Duration) (model.Instruction, error) {
	g.setState(Recording)
	buf, err := g.recorder.Record(ctx, window)
	if err != nil {
		g.setState(Denied)
		return model.Instruction{}, fmt.Errorf("record command: %w", err)
	}

	g.setState(Segmenting)
	utt := g.segmenter.Segment(buf)
	if utt.Empty() {
		g.setState(Denied)
		return model.Instruction{}, &DenialError{Reason: NoSpeech}
	}

	g.setState(Verifying)
	vp, enrolled := g.prints.Load()
	if !enrolled {
		g.setState(Denied)
		return model.Instruction{}, &DenialError{Reason: NotEnrolled}
	}

	features, err := feature.Extract(utt.Buffer)
	if err != nil {
		// Voiced but shorter than one analysis frame: treat as no speech.
		g.setState(Denied)
		return model.Instruction{}, &DenialError{Reason: NoSpeech, Detail: err.Error()}
	}

	result := g.verifier.Verify(features, vp.Vector)
	if !result.Accepted {
		g.setState(Denied)
		return model.Instruction{}, &DenialError{Reason: SpeakerMismatch, Detail: result.Reason}
	}

	g.setState(Transcribing)
	text, err := g.stt.Transcribe(ctx, utt.Buffer)
	if err != nil {
		g.setState(Denied)
		return model.Instruction{}, &DenialError{Reason: TranscriptionFailed, Detail: err.Error()}
	}

	g.setState(Authorized)
	return model.Instruction{
		Text:                strings.TrimSpace(text),
		OriginAuthenticated: true,
		AttemptID:           uuid.NewString(),
		Timestamp:           time.Now().UTC(),
	}, nil
}
