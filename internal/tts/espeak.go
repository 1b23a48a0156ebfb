package tts

import (
	"fmt"
	"os"
	"os/exec"
)

// Espeak speaks through the espeak-ng binary. Synthesis runs synchronously
// so prompts finish before the confirmation recording starts; failures are
// reported to stderr and otherwise swallowed, keeping Say fire-and-forget.
type Espeak struct {
	// Binary overrides the espeak-ng executable name.
	Binary string
	// Voice selects the espeak voice, e.g. "en-us". Empty uses the default.
	Voice string
}

// NewEspeak returns a speaker using the system espeak-ng.
func NewEspeak() *Espeak {
	return &Espeak{Binary: "espeak-ng"}
}

// Say implements Speaker.
func (e *Espeak) Say(text string) {
	if text == "" {
		return
	}
	binary := e.Binary
	if binary == "" {
		binary = "espeak-ng"
	}

	args := []string{}
	if e.Voice != "" {
		args = append(args, "-v", e.Voice)
	}
	args = append(args, text)

	if err := exec.Command(binary, args...).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tts: %v\n", err)
	}
}
