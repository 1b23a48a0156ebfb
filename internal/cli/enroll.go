package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/vishwakarma-31/jarvis/internal/tts"
	"github.com/vishwakarma-31/jarvis/internal/voiceprint"
)

var (
	enrollModel   string
	enrollSamples int
)

func init() {
	rootCmd.AddCommand(enrollCmd)
	enrollCmd.Flags().StringVar(&enrollModel, "model", "", "Path to whisper model file")
	enrollCmd.Flags().IntVar(&enrollSamples, "samples", 3, "Number of voice samples to record")
}

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Record voice samples and store a voiceprint",
	Long: "Records voice samples from the microphone, extracts their features, and\n" +
		"stores the averaged voiceprint. Enrollment replaces any existing\n" +
		"voiceprint wholesale.",
	RunE: runEnroll,
}

func runEnroll(cmd *cobra.Command, args []string) error {
	stack, err := buildVoiceStack(enrollModel)
	if err != nil {
		return err
	}
	defer stack.Close()

	speaker := tts.NewEspeak()
	enroller := voiceprint.NewEnroller(stack.mic, stack.seg, stack.prints)
	enroller.SampleFS = afero.NewOsFs()
	enroller.SampleDir = voiceprint.SamplesDir()
	enroller.Prompt = func(text string) {
		fmt.Println(text)
		speaker.Say(text)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := enroller.Enroll(ctx, enrollSamples); err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}
	fmt.Printf("Voiceprint stored at %s\n", voiceprint.DefaultPath())
	fmt.Printf("Samples archived under %s\n", voiceprint.SamplesDir())
	return nil
}
