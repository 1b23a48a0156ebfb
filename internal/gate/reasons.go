package gate

import "fmt"

// DenialReason classifies why an authorization attempt ended in Denied.
// All reasons are expected, recoverable outcomes; none is crash-worthy.
type DenialReason string

const (
	NoTrigger           DenialReason = "no_trigger"
	NoSpeech            DenialReason = "no_speech"
	NotEnrolled         DenialReason = "not_enrolled"
	SpeakerMismatch     DenialReason = "speaker_mismatch"
	TranscriptionFailed DenialReason = "transcription_failed"
	DeviceBusy          DenialReason = "device_busy"
)

// DenialError is the typed result of a denied authorization attempt.
type DenialError struct {
	Reason DenialReason
	Detail string
}

func (e *DenialError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("authorization denied (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("authorization denied (%s)", e.Reason)
}

// Message returns a short user-speakable description of the denial. It
// derives only from the reason tag; internal detail never reaches the user.
func (e *DenialError) Message() string {
	switch e.Reason {
	case NoTrigger:
		return "No wake word detected."
	case NoSpeech:
		return "I didn't hear any speech."
	case NotEnrolled:
		return "No voiceprint is enrolled. Please enroll first."
	case SpeakerMismatch:
		return "Speaker not verified. Access denied."
	case TranscriptionFailed:
		return "I couldn't understand that."
	case DeviceBusy:
		return "The microphone is busy."
	default:
		return "Access denied."
	}
}
