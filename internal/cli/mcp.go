package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/vishwakarma-31/jarvis/internal/audit"
	"github.com/vishwakarma-31/jarvis/internal/capability"
	"github.com/vishwakarma-31/jarvis/internal/invoke"
	jarvismcp "github.com/vishwakarma-31/jarvis/internal/mcp"
	"github.com/vishwakarma-31/jarvis/internal/policy"
	"github.com/vishwakarma-31/jarvis/internal/voiceprint"
)

var mcpPolicy string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpPolicy, "policy", "", "Path to policy YAML (default ~/.jarvis/policy.yaml)")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs jarvis as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes policy-mediated tools: invoke, check, status. There is no\n" +
		"confirmation channel on this surface, so confirmation-requiring\n" +
		"actions are always refused.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	policyPath := mcpPolicy
	if policyPath == "" {
		policyPath = policy.DefaultPath()
	}
	cfg, policyHash, err := policy.LoadConfigWithHash(policyPath)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	auditPath, err := audit.DefaultPath()
	if err != nil {
		return err
	}
	log, err := audit.Open(auditPath)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer log.Close()

	registry := capability.NewRegistry()
	if err := capability.RegisterTelemetry(registry); err != nil {
		return err
	}

	// No confirmer: RequireConfirmation fails closed on this surface.
	invoker := invoke.New(cfg, policyHash, registry, nil, log)
	prints := voiceprint.NewStore(afero.NewOsFs(), voiceprint.DefaultPath())
	server := jarvismcp.New(jarvismcp.Config{Version: version}, invoker, nil, func() bool {
		_, ok := prints.Load()
		return ok
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}
