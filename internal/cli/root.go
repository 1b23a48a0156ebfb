// Package cli wires the assistant's commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jarvis",
	Short: "Voice-gated desktop assistant",
	Long: "A desktop assistant whose every command passes two gates: the speaker\n" +
		"must match the enrolled voiceprint, and the requested action must pass\n" +
		"policy mediation. Denials are spoken; every decision is audit-logged.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
