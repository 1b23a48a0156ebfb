// Package confirm obtains verified verbal consent for high-risk actions.
package confirm

import (
	"context"
	"strings"
	"time"

	"github.com/vishwakarma-31/jarvis/internal/model"
	"github.com/vishwakarma-31/jarvis/internal/tts"
)

// Capturer runs a constrained authorization pass: record immediately (no
// trigger step), verify the speaker, transcribe. The gate implements this.
type Capturer interface {
	CaptureVerified(ctx context.Context, window time.Duration) (model.Instruction, error)
}

// affirmative is the accepted consent vocabulary, matched case-insensitively
// as substrings of the verified transcript.
var affirmative = []string{"yes", "confirm"}

// Protocol asks the user to confirm out loud and checks the answer against
// the affirmative vocabulary.
type Protocol struct {
	capturer Capturer
	speaker  tts.Speaker

	// Window is the fixed confirmation recording length.
	Window time.Duration
}

// New returns a protocol with the standard 5s confirmation window.
func New(capturer Capturer, speaker tts.Speaker) *Protocol {
	return &Protocol{
		capturer: capturer,
		speaker:  speaker,
		Window:   5 * time.Second,
	}
}

// Confirm announces the prompt and listens for a verified affirmative.
// Silence, an unverified speaker, a transcription failure, and any
// non-affirmative answer are all not consent. Consent cannot
// bypass speaker verification: the constrained pass runs it in full.
func (p *Protocol) Confirm(ctx context.Context, prompt string) bool {
	p.speaker.Say(prompt)

	instr, err := p.capturer.CaptureVerified(ctx, p.Window)
	if err != nil {
		return false
	}
	if !instr.OriginAuthenticated {
		return false
	}

	answer := strings.ToLower(instr.Text)
	for _, word := range affirmative {
		if strings.Contains(answer, word) {
			return true
		}
	}
	return false
}
