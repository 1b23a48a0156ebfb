package daemon

import "strings"

// Correction markers recognized in a verified instruction. The phrase
// after a marker, when present, is the corrected answer.
var correctionMarkers = []string{
	"that was wrong",
	"that is wrong",
	"the correct answer is",
	"you got that wrong",
}

// Correction is a user statement that the previous response was wrong.
type Correction struct {
	// Text is the corrected answer when the user supplied one.
	Text string
}

// ParseCorrection reports whether the instruction is a correction of the
// previous response rather than a new command.
func ParseCorrection(instruction string) (Correction, bool) {
	lower := strings.ToLower(instruction)
	for _, marker := range correctionMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(instruction[idx+len(marker):])
		rest = strings.TrimPrefix(rest, ",")
		rest = strings.TrimPrefix(rest, ":")
		return Correction{Text: strings.TrimSpace(rest)}, true
	}
	return Correction{}, false
}
