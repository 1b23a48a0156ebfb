package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/vishwakarma-31/jarvis/internal/voiceprint"
)

func init() {
	rootCmd.AddCommand(voiceprintCmd)
	voiceprintCmd.AddCommand(voiceprintStatusCmd)
	voiceprintCmd.AddCommand(voiceprintClearCmd)
}

var voiceprintCmd = &cobra.Command{
	Use:   "voiceprint",
	Short: "Voiceprint operations",
}

var voiceprintStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a voiceprint is enrolled",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := voiceprint.NewStore(afero.NewOsFs(), voiceprint.DefaultPath())
		vp, ok := store.Load()
		if !ok {
			fmt.Println("not enrolled")
			return nil
		}
		fmt.Printf("enrolled: %d samples, %d coefficients, created %s\n",
			vp.Samples, len(vp.Vector), vp.CreatedAt.Format("2006-01-02"))
		return nil
	},
}

var voiceprintClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored voiceprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := voiceprint.NewStore(afero.NewOsFs(), voiceprint.DefaultPath())
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("voiceprint cleared")
		return nil
	},
}
