package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/vishwakarma-31/jarvis/internal/audio"
	"github.com/vishwakarma-31/jarvis/internal/stt"
)

var transcribeModel string

func init() {
	rootCmd.AddCommand(transcribeCmd)
	transcribeCmd.Flags().StringVar(&transcribeModel, "model", "", "Path to whisper model file")
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file.wav>",
	Short: "Transcribe a WAV file with the whisper model",
	Long: "Decodes a mono 16kHz WAV file and runs it through the whisper model,\n" +
		"printing the transcript. Useful for checking archived enrollment\n" +
		"samples and for transcription without a microphone.",
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	modelPath, err := whisperModelPath(transcribeModel)
	if err != nil {
		return err
	}

	buf, err := audio.ReadWAV(afero.NewOsFs(), args[0])
	if err != nil {
		return err
	}
	if buf.Rate != audio.SampleRate {
		return fmt.Errorf("unsupported sample rate %d, expected %d", buf.Rate, audio.SampleRate)
	}

	transcriber, err := stt.NewWhisper(modelPath)
	if err != nil {
		return fmt.Errorf("load whisper model: %w", err)
	}
	defer transcriber.Close()

	text, err := transcriber.Transcribe(cmd.Context(), buf)
	if err != nil {
		return fmt.Errorf("transcribe %s: %w", args[0], err)
	}
	fmt.Println(text)
	return nil
}
