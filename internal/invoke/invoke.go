// Package invoke is the single chokepoint between planned actions and
// their execution. Every capability call passes through the Invoker: the
// policy verdict is computed first, confirmation is obtained when required,
// and the outcome is written to the audit log before the result returns.
package invoke

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vishwakarma-31/jarvis/internal/audit"
	"github.com/vishwakarma-31/jarvis/internal/capability"
	"github.com/vishwakarma-31/jarvis/internal/model"
	"github.com/vishwakarma-31/jarvis/internal/policy"
)

// Confirmer obtains explicit consent for a high-risk action. A nil
// Confirmer on the Invoker means confirmation can never be obtained, so
// every RequireConfirmation verdict is refused.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// PolicyViolationError reports an action refused by a hard policy deny.
type PolicyViolationError struct {
	Action   string
	Reason   string
	PolicyID string
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("action %q denied by policy: %s", e.Action, e.Reason)
}

// RejectedByUserError reports an action the policy allowed conditionally
// but the user did not confirm.
type RejectedByUserError struct {
	Action string
}

func (e *RejectedByUserError) Error() string {
	return fmt.Sprintf("action %q not confirmed by user", e.Action)
}

// ExecutionFailedError wraps a failure inside the capability itself. The
// action was authorized; the failure is operational, not a policy matter.
type ExecutionFailedError struct {
	Action string
	Err    error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("action %q failed: %v", e.Action, e.Err)
}

func (e *ExecutionFailedError) Unwrap() error { return e.Err }

// Invoker mediates every capability invocation.
type Invoker struct {
	cfg        *policy.Config
	policyHash string
	registry   *capability.Registry
	confirmer  Confirmer
	log        *audit.Log
}

// New builds an Invoker. log may be nil to disable auditing (tests);
// confirmer may be nil, in which case confirmation-requiring actions are
// always refused.
func New(cfg *policy.Config, policyHash string, registry *capability.Registry, confirmer Confirmer, log *audit.Log) *Invoker {
	return &Invoker{
		cfg:        cfg,
		policyHash: policyHash,
		registry:   registry,
		confirmer:  confirmer,
		log:        log,
	}
}

// Invoke runs the full mediation sequence for one action. attemptID ties
// the audit entry back to the authorization attempt that produced the
// request; if empty a fresh ID is generated.
func (inv *Invoker) Invoke(ctx context.Context, attemptID, action string, params map[string]any) (any, error) {
	if attemptID == "" {
		attemptID = uuid.NewString()
	}

	result := policy.Evaluate(action, params, inv.cfg)

	switch result.Decision {
	case model.Deny:
		inv.record(attemptID, action, params, result, false)
		return nil, &PolicyViolationError{Action: action, Reason: result.Reason, PolicyID: result.PolicyID}

	case model.RequireConfirmation:
		if inv.confirmer == nil || !inv.confirmer.Confirm(ctx, confirmPrompt(action)) {
			inv.record(attemptID, action, params, result, false)
			return nil, &RejectedByUserError{Action: action}
		}
		inv.record(attemptID, action, params, result, true)

	case model.Allow:
		inv.record(attemptID, action, params, result, false)

	default:
		// Unknown decisions fail closed.
		inv.record(attemptID, action, params, model.PolicyResult{
			Decision: model.Deny,
			Reason:   fmt.Sprintf("unknown decision %q", result.Decision),
		}, false)
		return nil, &PolicyViolationError{Action: action, Reason: fmt.Sprintf("unknown decision %q", result.Decision)}
	}

	cap, ok := inv.registry.Lookup(action)
	if !ok {
		return nil, &ExecutionFailedError{Action: action, Err: fmt.Errorf("unknown capability")}
	}

	out, err := safeInvoke(ctx, cap, params)
	if err != nil {
		return nil, &ExecutionFailedError{Action: action, Err: err}
	}
	return out, nil
}

// Check evaluates the policy for an action without executing anything.
func (inv *Invoker) Check(action string, params map[string]any) model.PolicyResult {
	return policy.Evaluate(action, params, inv.cfg)
}

// PolicyHash returns the pinned hash of the loaded policy configuration.
func (inv *Invoker) PolicyHash() string { return inv.policyHash }

// Capabilities lists the registered capability names.
func (inv *Invoker) Capabilities() []string { return inv.registry.Names() }

// safeInvoke contains capability panics so a misbehaving action cannot
// take the mediation loop down with it.
func safeInvoke(ctx context.Context, cap capability.Capability, params map[string]any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capability panicked: %v", r)
		}
	}()
	return cap.Invoke(ctx, params)
}

func confirmPrompt(action string) string {
	return fmt.Sprintf("This will %s. Are you sure? Say yes or confirm.", humanizeAction(action))
}

// humanizeAction turns "delete_file" into "delete file" for the spoken
// prompt.
func humanizeAction(action string) string {
	out := make([]byte, len(action))
	for i := 0; i < len(action); i++ {
		if action[i] == '_' {
			out[i] = ' '
		} else {
			out[i] = action[i]
		}
	}
	return string(out)
}

func (inv *Invoker) record(attemptID, action string, params map[string]any, result model.PolicyResult, confirmed bool) {
	if inv.log == nil {
		return
	}
	path, _ := params["path"].(string)
	entry := audit.Entry{
		Timestamp:  time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		AttemptID:  attemptID,
		Action:     audit.Action{Name: action, Path: path},
		Decision:   string(result.Decision),
		Reason:     result.Reason,
		Confirmed:  confirmed,
		PolicyHash: inv.policyHash,
	}
	// An audit write failure never changes the decision.
	_ = inv.log.Record(entry)
}
