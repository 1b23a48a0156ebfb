package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vishwakarma-31/jarvis/internal/gate"
)

var listenModel string

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().StringVar(&listenModel, "model", "", "Path to whisper model file")
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run one authorization attempt and print the result",
	Long: "Waits for the wake word, records a command, verifies the speaker, and\n" +
		"prints the verified instruction. Useful for testing the pipeline\n" +
		"without executing anything.",
	RunE: runListen,
}

func runListen(cmd *cobra.Command, args []string) error {
	stack, err := buildVoiceStack(listenModel)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Listening for the wake word...")
	instr, err := stack.gate.Authorize(ctx)
	if err != nil {
		var denial *gate.DenialError
		if errors.As(err, &denial) {
			fmt.Printf("denied: %s\n", denial.Message())
			return nil
		}
		return err
	}

	fmt.Printf("authorized: %q (attempt %s)\n", instr.Text, instr.AttemptID)
	return nil
}
