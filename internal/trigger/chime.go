package trigger

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
)

// Chime plays a short acknowledgment tone so the user knows the wake phrase
// landed and the command recording is about to start. Playback errors are
// non-fatal; the gate does not depend on the chime being heard.
func Chime() {
	sr := beep.SampleRate(44100)
	tone, err := generators.SinTone(sr, 880)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chime: %v\n", err)
		return
	}

	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		fmt.Fprintf(os.Stderr, "chime: %v\n", err)
		return
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(beep.Take(sr.N(150*time.Millisecond), tone), beep.Callback(func() {
		close(done)
	})))
	<-done
}
