package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vishwakarma-31/jarvis/internal/audit"
	"github.com/vishwakarma-31/jarvis/internal/capability"
	"github.com/vishwakarma-31/jarvis/internal/confirm"
	"github.com/vishwakarma-31/jarvis/internal/daemon"
	"github.com/vishwakarma-31/jarvis/internal/feedback"
	"github.com/vishwakarma-31/jarvis/internal/invoke"
	"github.com/vishwakarma-31/jarvis/internal/memory"
	"github.com/vishwakarma-31/jarvis/internal/planner"
	"github.com/vishwakarma-31/jarvis/internal/policy"
	"github.com/vishwakarma-31/jarvis/internal/tts"
)

var (
	runModel      string
	runPolicy     string
	runPlannerLLM string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runModel, "model", "", "Path to whisper model file")
	runCmd.Flags().StringVar(&runPolicy, "policy", "", "Path to policy YAML (default ~/.jarvis/policy.yaml)")
	runCmd.Flags().StringVar(&runPlannerLLM, "planner-model", "", "Chat model for action planning")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the assistant loop",
	Long: "Starts the full assistant: listens for the wake word, verifies the\n" +
		"speaker, plans each instruction, and executes actions through policy\n" +
		"mediation. Runs until interrupted.",
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	policyPath := runPolicy
	if policyPath == "" {
		policyPath = policy.DefaultPath()
	}
	cfg, policyHash, err := policy.LoadConfigWithHash(policyPath)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	stack, err := buildVoiceStack(runModel)
	if err != nil {
		return err
	}
	defer stack.Close()

	auditPath, err := audit.DefaultPath()
	if err != nil {
		return err
	}
	log, err := audit.Open(auditPath)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer log.Close()

	memPath, err := memory.DefaultPath()
	if err != nil {
		return err
	}
	mem, err := memory.Open(memPath)
	if err != nil {
		return fmt.Errorf("open memory: %w", err)
	}
	defer mem.Close()

	fbPath, err := feedback.DefaultPath()
	if err != nil {
		return err
	}
	fb, err := feedback.NewLog(fbPath)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}

	registry := capability.NewRegistry()
	if err := capability.RegisterTelemetry(registry); err != nil {
		return err
	}
	if err := registry.Register(capability.NewFunc("recall_memory", func(ctx context.Context, params map[string]any) (any, error) {
		query, _ := params["query"].(string)
		interactions, err := mem.Recall(ctx, query, 5)
		if err != nil {
			return nil, err
		}
		if len(interactions) == 0 {
			return "I have no memory of that.", nil
		}
		return fmt.Sprintf("You asked %q and I answered %q.",
			interactions[0].Instruction, interactions[0].Response), nil
	})); err != nil {
		return err
	}

	speaker := tts.NewEspeak()
	confirmer := confirm.New(stack.gate, speaker)
	invoker := invoke.New(cfg, policyHash, registry, confirmer, log)
	pl := planner.NewOpenAI(apiKey, runPlannerLLM)

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	d := daemon.New(daemon.Config{
		StateDir: filepath.Join(home, ".jarvis"),
	}, stack.gate, pl, invoker, speaker, mem, fb)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("jarvis is listening. Press Ctrl-C to stop.")
	if err := d.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
