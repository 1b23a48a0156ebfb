package cli

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/vishwakarma-31/jarvis/internal/audio"
	"github.com/vishwakarma-31/jarvis/internal/gate"
	"github.com/vishwakarma-31/jarvis/internal/stt"
	"github.com/vishwakarma-31/jarvis/internal/trigger"
	"github.com/vishwakarma-31/jarvis/internal/vad"
	"github.com/vishwakarma-31/jarvis/internal/verify"
	"github.com/vishwakarma-31/jarvis/internal/voiceprint"
)

// voiceStack bundles the audio pipeline shared by enroll, listen, and run.
type voiceStack struct {
	mic    *audio.Microphone
	stt    *stt.Whisper
	seg    *vad.Segmenter
	prints *voiceprint.Store
	gate   *gate.Gate
}

func (s *voiceStack) Close() {
	if s.stt != nil {
		s.stt.Close()
	}
	if s.mic != nil {
		s.mic.Close()
	}
}

// whisperModelPath resolves the model file from the flag or environment.
func whisperModelPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("JARVIS_WHISPER_MODEL"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no whisper model: set --model or JARVIS_WHISPER_MODEL")
}

// buildVoiceStack opens the microphone, loads the whisper model, and
// assembles the authorization gate.
func buildVoiceStack(modelFlag string) (*voiceStack, error) {
	modelPath, err := whisperModelPath(modelFlag)
	if err != nil {
		return nil, err
	}

	mic, err := audio.NewMicrophone()
	if err != nil {
		return nil, fmt.Errorf("open microphone: %w", err)
	}

	transcriber, err := stt.NewWhisper(modelPath)
	if err != nil {
		mic.Close()
		return nil, fmt.Errorf("load whisper model: %w", err)
	}

	seg := vad.New()
	prints := voiceprint.NewStore(afero.NewOsFs(), voiceprint.DefaultPath())

	spotter := trigger.NewKeywordSpotter(mic, transcriber)
	spotter.Chime = trigger.Chime

	g := gate.New(spotter, mic, seg, verify.New(), prints, transcriber, gate.DefaultConfig())

	return &voiceStack{
		mic:    mic,
		stt:    transcriber,
		seg:    seg,
		prints: prints,
		gate:   g,
	}, nil
}
