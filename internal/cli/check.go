package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vishwakarma-31/jarvis/internal/model"
	"github.com/vishwakarma-31/jarvis/internal/policy"
)

var (
	checkPolicy string
	checkPath   string
	checkFormat string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkPolicy, "policy", "", "Path to policy YAML (default ~/.jarvis/policy.yaml)")
	checkCmd.Flags().StringVar(&checkPath, "path", "", "Path parameter for the action")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check <action>",
	Short: "Evaluate an action against policy without executing it",
	Long: "Runs one action name (plus an optional --path parameter) through the\n" +
		"policy engine and prints the decision. Nothing is executed.\n\n" +
		"Exit code 0 for allow, 2 for deny, 3 for require_confirmation.",
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	policyPath := checkPolicy
	if policyPath == "" {
		policyPath = policy.DefaultPath()
	}
	cfg, hash, err := policy.LoadConfigWithHash(policyPath)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	params := map[string]any{}
	if checkPath != "" {
		params["path"] = checkPath
	}
	result := policy.Evaluate(args[0], params, cfg)

	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(map[string]any{
			"decision":    result.Decision,
			"reason":      result.Reason,
			"policy_id":   result.PolicyID,
			"policy_hash": hash,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		fmt.Printf("decision: %s\nreason:   %s\n", result.Decision, result.Reason)
	}

	switch result.Decision {
	case model.Deny:
		os.Exit(2)
	case model.RequireConfirmation:
		os.Exit(3)
	}
	return nil
}
