package gate

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/vishwakarma-31/jarvis/internal/audio"
	"github.com/vishwakarma-31/jarvis/internal/feature"
	"github.com/vishwakarma-31/jarvis/internal/vad"
	"github.com/vishwakarma-31/jarvis/internal/verify"
	"github.com/vishwakarma-31/jarvis/internal/voiceprint"
)

// fakeDetector reports a scripted trigger outcome.
type fakeDetector struct {
	detected bool
	err      error
	calls    int
	block    time.Duration
}

func (f *fakeDetector) Detect(_ context.Context, _ time.Duration) (bool, error) {
	f.calls++
	if f.block > 0 {
		time.Sleep(f.block)
	}
	return f.detected, f.err
}

// fakeRecorder returns a fixed buffer.
type fakeRecorder struct {
	buf   audio.Buffer
	err   error
	calls int
}

func (f *fakeRecorder) Record(_ context.Context, _ time.Duration) (audio.Buffer, error) {
	f.calls++
	return f.buf, f.err
}

// fakeSTT returns a fixed transcript.
type fakeSTT struct {
	text string
	err  error
}

func (f *fakeSTT) Transcribe(_ context.Context, _ audio.Buffer) (string, error) {
	return f.text, f.err
}

func speechBuffer(freq float64) audio.Buffer {
	samples := make([]float32, audio.SampleRate)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/audio.SampleRate))
	}
	return audio.Buffer{Samples: samples, Rate: audio.SampleRate}
}

func silentBuffer() audio.Buffer {
	return audio.Buffer{Samples: make([]float32, audio.SampleRate), Rate: audio.SampleRate}
}

// enrolledStore returns a store whose voiceprint matches speechBuffer(freq).
func enrolledStore(t *testing.T, freq float64) *voiceprint.Store {
	t.Helper()
	store := voiceprint.NewStore(afero.NewMemMapFs(), "/vp.json")
	utt := vad.New().Segment(speechBuffer(freq))
	vec, err := feature.Extract(utt.Buffer)
	if err != nil {
		t.Fatalf("build voiceprint: %v", err)
	}
	if err := store.Save(voiceprint.VoicePrint{Vector: vec, Samples: 1}); err != nil {
		t.Fatal(err)
	}
	return store
}

func emptyStore() *voiceprint.Store {
	return voiceprint.NewStore(afero.NewMemMapFs(), "/vp.json")
}

func newGate(det *fakeDetector, rec *fakeRecorder, store *voiceprint.Store, transcriber *fakeSTT) *Gate {
	return New(det, rec, vad.New(), verify.New(), store, transcriber, Config{
		TriggerWindow: time.Second,
		CommandWindow: time.Second,
	})
}

func denialReason(t *testing.T, err error) DenialReason {
	t.Helper()
	var denial *DenialError
	if !errors.As(err, &denial) {
		t.Fatalf("expected *DenialError, got %v", err)
	}
	return denial.Reason
}

func TestAuthorizeHappyPath(t *testing.T) {
	rec := &fakeRecorder{buf: speechBuffer(200)}
	g := newGate(&fakeDetector{detected: true}, rec, enrolledStore(t, 200), &fakeSTT{text: " open the browser "})

	instr, err := g.Authorize(context.Background())
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !instr.OriginAuthenticated {
		t.Error("instruction from the authorized path must be origin-authenticated")
	}
	if instr.Text != "open the browser" {
		t.Errorf("expected trimmed transcript, got %q", instr.Text)
	}
	if instr.AttemptID == "" {
		t.Error("expected attempt id")
	}
	if instr.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
}

func TestNoTriggerDeniesBeforeRecording(t *testing.T) {
	rec := &fakeRecorder{buf: speechBuffer(200)}
	g := newGate(&fakeDetector{detected: false}, rec, enrolledStore(t, 200), &fakeSTT{text: "x"})

	_, err := g.Authorize(context.Background())
	if got := denialReason(t, err); got != NoTrigger {
		t.Errorf("expected NoTrigger, got %s", got)
	}
	if rec.calls != 0 {
		t.Error("recording must never start when the trigger window times out")
	}
}

func TestDetectorFaultIsNotADenial(t *testing.T) {
	sentinel := errors.New("whisper model unusable")
	rec := &fakeRecorder{buf: speechBuffer(200)}
	g := newGate(&fakeDetector{err: sentinel}, rec, enrolledStore(t, 200), &fakeSTT{text: "x"})

	_, err := g.Authorize(context.Background())
	if err == nil {
		t.Fatal("expected error from broken detector")
	}
	var denial *DenialError
	if errors.As(err, &denial) {
		t.Fatalf("detector fault must not be reported as a denial, got reason %s", denial.Reason)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("detector fault must be wrapped for the caller, got %v", err)
	}
	if rec.calls != 0 {
		t.Error("recording must never start after a detector fault")
	}
}

func TestSilenceDeniesNoSpeech(t *testing.T) {
	g := newGate(&fakeDetector{detected: true}, &fakeRecorder{buf: silentBuffer()},
		enrolledStore(t, 200), &fakeSTT{text: "x"})

	_, err := g.Authorize(context.Background())
	if got := denialReason(t, err); got != NoSpeech {
		t.Errorf("expected NoSpeech, got %s", got)
	}
}

func TestNotEnrolledDenies(t *testing.T) {
	g := newGate(&fakeDetector{detected: true}, &fakeRecorder{buf: speechBuffer(200)},
		emptyStore(), &fakeSTT{text: "x"})

	_, err := g.Authorize(context.Background())
	if got := denialReason(t, err); got != NotEnrolled {
		t.Errorf("expected NotEnrolled, got %s", got)
	}
}

func TestSpeakerMismatchDenies(t *testing.T) {
	// Enroll the exact negation of the spoken utterance's features: cosine
	// similarity is -1, the hardest possible mismatch.
	utt := vad.New().Segment(speechBuffer(200))
	vec, err := feature.Extract(utt.Buffer)
	if err != nil {
		t.Fatal(err)
	}
	negated := make([]float64, len(vec))
	for i, v := range vec {
		negated[i] = -v
	}
	store := voiceprint.NewStore(afero.NewMemMapFs(), "/vp.json")
	if err := store.Save(voiceprint.VoicePrint{Vector: negated, Samples: 1}); err != nil {
		t.Fatal(err)
	}

	g := newGate(&fakeDetector{detected: true}, &fakeRecorder{buf: speechBuffer(200)}, store, &fakeSTT{text: "x"})

	_, err = g.Authorize(context.Background())
	if got := denialReason(t, err); got != SpeakerMismatch {
		t.Errorf("expected SpeakerMismatch, got %s", got)
	}
}

func TestTranscriptionFailureDenies(t *testing.T) {
	g := newGate(&fakeDetector{detected: true}, &fakeRecorder{buf: speechBuffer(200)},
		enrolledStore(t, 200), &fakeSTT{err: errors.New("model timeout")})

	_, err := g.Authorize(context.Background())
	if got := denialReason(t, err); got != TranscriptionFailed {
		t.Errorf("expected TranscriptionFailed, got %s", got)
	}
}

func TestConcurrentAttemptFailsFastDeviceBusy(t *testing.T) {
	det := &fakeDetector{detected: false, block: 200 * time.Millisecond}
	g := newGate(det, &fakeRecorder{buf: silentBuffer()}, emptyStore(), &fakeSTT{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = g.Authorize(context.Background())
	}()

	time.Sleep(50 * time.Millisecond) // let the first attempt take the device
	_, err := g.Authorize(context.Background())
	if got := denialReason(t, err); got != DeviceBusy {
		t.Errorf("expected DeviceBusy for concurrent attempt, got %s", got)
	}
	wg.Wait()
}

func TestCaptureVerifiedSkipsTrigger(t *testing.T) {
	det := &fakeDetector{detected: false}
	g := newGate(det, &fakeRecorder{buf: speechBuffer(200)}, enrolledStore(t, 200), &fakeSTT{text: "yes"})

	instr, err := g.CaptureVerified(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if det.calls != 0 {
		t.Error("constrained pass must not run trigger detection")
	}
	if !instr.OriginAuthenticated {
		t.Error("constrained pass still authenticates origin")
	}
}

func TestCaptureVerifiedStillVerifiesSpeaker(t *testing.T) {
	g := newGate(&fakeDetector{}, &fakeRecorder{buf: speechBuffer(200)}, emptyStore(), &fakeSTT{text: "yes"})

	_, err := g.CaptureVerified(context.Background(), time.Second)
	if got := denialReason(t, err); got != NotEnrolled {
		t.Errorf("expected NotEnrolled from constrained pass, got %s", got)
	}
}

func TestRepeatedAttemptsAreIndependent(t *testing.T) {
	store := enrolledStore(t, 200)
	g := newGate(&fakeDetector{detected: true}, &fakeRecorder{buf: speechBuffer(200)}, store, &fakeSTT{text: "cmd"})

	first, err := g.Authorize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Authorize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.AttemptID == second.AttemptID {
		t.Error("attempts must have independent ids")
	}
	if g.State() != Idle {
		t.Errorf("gate should return to Idle between attempts, got %s", g.State())
	}
}
