// Package tts wraps speech output. The speaker is an injected dependency
// with explicit lifecycle, not process-global state: every component that
// talks to the user receives one.
package tts

// Speaker renders text as speech. Say is fire-and-forget: it completes or
// fails silently without affecting caller state.
type Speaker interface {
	Say(text string)
}

// Nop discards all output. Used in tests and headless modes.
type Nop struct{}

// Say implements Speaker.
func (Nop) Say(string) {}
