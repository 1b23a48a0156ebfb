// Package daemon runs the assistant loop: wait for an authorized
// instruction, plan it, push every resulting action through the secure
// invoker, and speak the outcome. Background goroutines sample host health
// and watch the correction log.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vishwakarma-31/jarvis/internal/feedback"
	"github.com/vishwakarma-31/jarvis/internal/gate"
	"github.com/vishwakarma-31/jarvis/internal/memory"
	"github.com/vishwakarma-31/jarvis/internal/model"
	"github.com/vishwakarma-31/jarvis/internal/monitor"
	"github.com/vishwakarma-31/jarvis/internal/planner"
	"github.com/vishwakarma-31/jarvis/internal/tts"
)

// Authorizer produces verified instructions. The gate implements this.
type Authorizer interface {
	Authorize(ctx context.Context) (model.Instruction, error)
}

// Invoker mediates planned actions. The secure invoker implements this.
type Invoker interface {
	Invoke(ctx context.Context, attemptID, action string, params map[string]any) (any, error)
	Capabilities() []string
}

// alertQuietPeriod is how long the user must have been idle before a
// spoken health alert is allowed to interrupt.
const alertQuietPeriod = 10 * time.Second

// Config holds assistant loop configuration.
type Config struct {
	// StateDir holds the PID file. Empty disables the lock (tests).
	StateDir string
	// HealthInterval is the telemetry sampling period. Zero defaults to
	// one minute.
	HealthInterval time.Duration
}

// Daemon is the assembled assistant.
type Daemon struct {
	cfg      Config
	auth     Authorizer
	planner  planner.Planner
	invoker  Invoker
	speaker  tts.Speaker
	memory   *memory.Store
	feedback *feedback.Log
	idle     *monitor.IdleTracker

	lastInstruction string
	lastResponse    string
}

// New assembles a daemon. memory and feedback may be nil to disable
// persistence.
func New(cfg Config, auth Authorizer, pl planner.Planner, inv Invoker, speaker tts.Speaker,
	mem *memory.Store, fb *feedback.Log) *Daemon {
	if speaker == nil {
		speaker = tts.Nop{}
	}
	return &Daemon{
		cfg:      cfg,
		auth:     auth,
		planner:  pl,
		invoker:  inv,
		speaker:  speaker,
		memory:   mem,
		feedback: fb,
		idle:     monitor.NewIdleTracker(),
	}
}

// Run blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if d.cfg.StateDir != "" {
		pidPath := filepath.Join(d.cfg.StateDir, "jarvis.pid")
		if err := acquirePIDLock(pidPath); err != nil {
			return fmt.Errorf("acquire PID lock: %w", err)
		}
		defer releasePIDLock(pidPath)
	}

	health := monitor.NewHealth(monitor.SystemProbes(), d.cfg.HealthInterval)
	go health.Run(ctx)
	go monitor.Dispatch(ctx, health.Alerts(), d.speaker, d.idle.IdleFor, alertQuietPeriod)

	if d.feedback != nil {
		scheduler := feedback.NewScheduler(d.feedback, feedback.RetrainThreshold, func(count int) {
			d.speaker.Say(fmt.Sprintf("I have collected %d corrections. Voice model retraining is due.", count))
		})
		go scheduler.Run(ctx)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.attempt(ctx)
	}
}

// attempt runs one full authorize-plan-invoke cycle. Attempts never abort
// the loop; every failure is spoken or logged and the next attempt starts.
func (d *Daemon) attempt(ctx context.Context) {
	instr, err := d.auth.Authorize(ctx)
	if err != nil {
		var denial *gate.DenialError
		if errors.As(err, &denial) {
			// A quiet room times out constantly; stay silent for that.
			if denial.Reason != gate.NoTrigger {
				d.speaker.Say(denial.Message())
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(os.Stderr, "jarvis: authorize: %v\n", err)
		return
	}

	d.idle.Touch()
	d.Handle(ctx, instr)
}

// Handle processes one verified instruction.
func (d *Daemon) Handle(ctx context.Context, instr model.Instruction) {
	if !instr.OriginAuthenticated {
		return
	}
	if instr.Text == "" {
		d.speaker.Say("I did not catch that.")
		return
	}

	if corr, ok := ParseCorrection(instr.Text); ok {
		d.recordCorrection(instr, corr)
		d.speaker.Say("Thanks, I have noted the correction.")
		return
	}

	response := d.execute(ctx, instr)
	if response != "" {
		d.speaker.Say(response)
	}

	d.lastInstruction = instr.Text
	d.lastResponse = response

	if d.memory != nil {
		if err := d.memory.Record(ctx, instr.AttemptID, instr.Text, response); err != nil {
			fmt.Fprintf(os.Stderr, "jarvis: memory: %v\n", err)
		}
	}
}

func (d *Daemon) execute(ctx context.Context, instr model.Instruction) string {
	actions, err := d.planner.Plan(ctx, instr, d.invoker.Capabilities())
	if err != nil {
		fmt.Fprintf(os.Stderr, "jarvis: plan: %v\n", err)
		return "I could not work out what to do with that."
	}
	if len(actions) == 0 {
		return "I have nothing to do for that."
	}

	var parts []string
	for _, action := range actions {
		if action.Name == "reply" || action.Name == "" {
			if action.Reply != "" {
				parts = append(parts, action.Reply)
			}
			continue
		}
		out, err := d.invoker.Invoke(ctx, instr.AttemptID, action.Name, action.Params)
		if err != nil {
			parts = append(parts, describeFailure(err))
			continue
		}
		parts = append(parts, formatResult(action.Name, out))
	}
	return strings.Join(parts, " ")
}

func (d *Daemon) recordCorrection(instr model.Instruction, corr Correction) {
	if d.feedback == nil {
		return
	}
	entry := feedback.Entry{
		Instruction: d.lastInstruction,
		Response:    d.lastResponse,
		Correction:  corr.Text,
		Context:     instr.Text,
	}
	if err := d.feedback.Record(entry); err != nil {
		fmt.Fprintf(os.Stderr, "jarvis: feedback: %v\n", err)
	}
}

// describeFailure phrases a mediation error for speech. The mediation
// error types carry their own user-appropriate wording.
func describeFailure(err error) string {
	return fmt.Sprintf("I could not do that: %v.", err)
}

func formatResult(action string, out any) string {
	switch v := out.(type) {
	case nil:
		return fmt.Sprintf("Done: %s.", action)
	case string:
		return v
	case map[string]any:
		if pct, ok := v["percent"].(float64); ok {
			return fmt.Sprintf("%s is at %.0f percent.", strings.ReplaceAll(action, "_", " "), pct)
		}
		return fmt.Sprintf("Done: %s.", action)
	default:
		return fmt.Sprintf("Done: %s.", action)
	}
}
