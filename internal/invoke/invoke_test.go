package invoke

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vishwakarma-31/jarvis/internal/audit"
	"github.com/vishwakarma-31/jarvis/internal/capability"
	"github.com/vishwakarma-31/jarvis/internal/model"
	"github.com/vishwakarma-31/jarvis/internal/policy"
)

// countingCap records every time it is actually executed.
type countingCap struct {
	name  string
	calls int
	out   any
	err   error
	panic bool
}

func (c *countingCap) Name() string { return c.name }

func (c *countingCap) Invoke(context.Context, map[string]any) (any, error) {
	c.calls++
	if c.panic {
		panic("boom")
	}
	return c.out, c.err
}

type scriptedConfirmer struct {
	answer bool
	calls  int
	prompt string
}

func (s *scriptedConfirmer) Confirm(_ context.Context, prompt string) bool {
	s.calls++
	s.prompt = prompt
	return s.answer
}

func newTestInvoker(t *testing.T, cap *countingCap, confirmer Confirmer) *Invoker {
	t.Helper()
	reg := capability.NewRegistry()
	if cap != nil {
		if err := reg.Register(cap); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	return New(policy.DefaultConfig(), "sha256:testpolicy", reg, confirmer, nil)
}

func TestAllowedActionExecutes(t *testing.T) {
	cap := &countingCap{name: "read_file", out: "contents"}
	inv := newTestInvoker(t, cap, nil)

	out, err := inv.Invoke(context.Background(), "a-1", "read_file", map[string]any{"path": "/safe/notes.txt"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "contents" {
		t.Fatalf("Invoke = %v, want contents", out)
	}
	if cap.calls != 1 {
		t.Fatalf("capability called %d times, want 1", cap.calls)
	}
}

func TestDeniedActionNeverReachesCapability(t *testing.T) {
	cap := &countingCap{name: "read_file"}
	inv := newTestInvoker(t, cap, &scriptedConfirmer{answer: true})

	_, err := inv.Invoke(context.Background(), "a-2", "read_file", map[string]any{"path": "/system/passwd"})
	var pv *PolicyViolationError
	if !errors.As(err, &pv) {
		t.Fatalf("err = %v, want PolicyViolationError", err)
	}
	if pv.PolicyID != "blacklist.path" {
		t.Fatalf("PolicyID = %q, want blacklist.path", pv.PolicyID)
	}
	if cap.calls != 0 {
		t.Fatalf("capability called %d times on a denied action", cap.calls)
	}
}

// Deny means the capability is never executed, for any params shape.
func TestDenyBlocksExecutionAcrossParamShapes(t *testing.T) {
	cfg := policy.DefaultConfig()
	shapes := []map[string]any{
		{"path": "/system"},
		{"path": "/systemx"},
		{"path": "/root/.ssh/id_rsa"},
		{"path": "C:/Windows/System32"},
		{"path": "/system/a", "extra": map[string]any{"nested": true}},
	}
	for i, params := range shapes {
		result := policy.Evaluate("delete_file", params, cfg)
		if result.Decision != model.Deny {
			t.Fatalf("shape %d: precondition failed, decision = %s", i, result.Decision)
		}

		cap := &countingCap{name: "delete_file"}
		inv := newTestInvoker(t, cap, &scriptedConfirmer{answer: true})
		if _, err := inv.Invoke(context.Background(), "", "delete_file", params); err == nil {
			t.Fatalf("shape %d: denied action returned no error", i)
		}
		if cap.calls != 0 {
			t.Fatalf("shape %d: capability executed despite deny", i)
		}
	}
}

func TestConfirmationGatesExecution(t *testing.T) {
	for _, answer := range []bool{true, false} {
		t.Run(fmt.Sprintf("answer=%v", answer), func(t *testing.T) {
			cap := &countingCap{name: "delete_file", out: "done"}
			confirmer := &scriptedConfirmer{answer: answer}
			inv := newTestInvoker(t, cap, confirmer)

			out, err := inv.Invoke(context.Background(), "a-3", "delete_file", map[string]any{"path": "/safe/tmp.txt"})

			if confirmer.calls != 1 {
				t.Fatalf("confirmer called %d times, want 1", confirmer.calls)
			}
			if answer {
				if err != nil {
					t.Fatalf("confirmed action failed: %v", err)
				}
				if out != "done" || cap.calls != 1 {
					t.Fatalf("confirmed action did not execute (out=%v calls=%d)", out, cap.calls)
				}
			} else {
				var rej *RejectedByUserError
				if !errors.As(err, &rej) {
					t.Fatalf("err = %v, want RejectedByUserError", err)
				}
				if cap.calls != 0 {
					t.Fatalf("unconfirmed action executed %d times", cap.calls)
				}
			}
		})
	}
}

func TestNilConfirmerFailsClosed(t *testing.T) {
	cap := &countingCap{name: "delete_file"}
	inv := newTestInvoker(t, cap, nil)

	_, err := inv.Invoke(context.Background(), "", "delete_file", map[string]any{"path": "/safe/x"})
	var rej *RejectedByUserError
	if !errors.As(err, &rej) {
		t.Fatalf("err = %v, want RejectedByUserError", err)
	}
	if cap.calls != 0 {
		t.Fatalf("capability executed without any confirmer")
	}
}

func TestConfirmationDisabledAllowsHighRisk(t *testing.T) {
	cfg := policy.DefaultConfig()
	cfg.RequireConfirmation = false

	cap := &countingCap{name: "delete_file", out: "ok"}
	confirmer := &scriptedConfirmer{answer: false}
	reg := capability.NewRegistry()
	if err := reg.Register(cap); err != nil {
		t.Fatalf("register: %v", err)
	}
	inv := New(cfg, "sha256:testpolicy", reg, confirmer, nil)

	out, err := inv.Invoke(context.Background(), "", "delete_file", map[string]any{"path": "/safe/x"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "ok" || cap.calls != 1 {
		t.Fatalf("high-risk action with confirmation disabled did not execute")
	}
	if confirmer.calls != 0 {
		t.Fatalf("confirmer consulted despite being disabled by policy")
	}
}

func TestUnknownCapability(t *testing.T) {
	inv := newTestInvoker(t, nil, nil)

	_, err := inv.Invoke(context.Background(), "", "read_file", map[string]any{"path": "/safe/x"})
	var ex *ExecutionFailedError
	if !errors.As(err, &ex) {
		t.Fatalf("err = %v, want ExecutionFailedError", err)
	}
}

func TestCapabilityErrorWrapped(t *testing.T) {
	sentinel := errors.New("disk on fire")
	cap := &countingCap{name: "read_file", err: sentinel}
	inv := newTestInvoker(t, cap, nil)

	_, err := inv.Invoke(context.Background(), "", "read_file", map[string]any{"path": "/safe/x"})
	var ex *ExecutionFailedError
	if !errors.As(err, &ex) {
		t.Fatalf("err = %v, want ExecutionFailedError", err)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("ExecutionFailedError does not unwrap to the capability error")
	}
}

func TestCapabilityPanicContained(t *testing.T) {
	cap := &countingCap{name: "read_file", panic: true}
	inv := newTestInvoker(t, cap, nil)

	_, err := inv.Invoke(context.Background(), "", "read_file", map[string]any{"path": "/safe/x"})
	var ex *ExecutionFailedError
	if !errors.As(err, &ex) {
		t.Fatalf("panic not converted to ExecutionFailedError, got %v", err)
	}
}

func TestEveryDecisionIsAudited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log, err := audit.Open(path)
	if err != nil {
		t.Fatalf("open audit: %v", err)
	}

	cap := &countingCap{name: "delete_file", out: "ok"}
	readCap := &countingCap{name: "read_file", out: "data"}
	reg := capability.NewRegistry()
	for _, c := range []*countingCap{cap, readCap} {
		if err := reg.Register(c); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	inv := New(policy.DefaultConfig(), "sha256:testpolicy", reg, &scriptedConfirmer{answer: true}, log)

	ctx := context.Background()
	inv.Invoke(ctx, "a-allow", "read_file", map[string]any{"path": "/safe/x"})
	inv.Invoke(ctx, "a-deny", "read_file", map[string]any{"path": "/system/x"})
	inv.Invoke(ctx, "a-conf", "delete_file", map[string]any{"path": "/safe/x"})
	log.Close()

	result := audit.Verify(path)
	if !result.Valid {
		t.Fatalf("audit chain invalid: %s", result.Error)
	}
	if result.Lines != 3 {
		t.Fatalf("expected 3 audit entries, got %d", result.Lines)
	}
}

func TestConfirmPromptNamesTheAction(t *testing.T) {
	cap := &countingCap{name: "delete_file"}
	confirmer := &scriptedConfirmer{answer: false}
	inv := newTestInvoker(t, cap, confirmer)

	inv.Invoke(context.Background(), "", "delete_file", map[string]any{"path": "/safe/x"})
	if confirmer.prompt == "" {
		t.Fatal("confirmer received an empty prompt")
	}
	want := "delete file"
	if !strings.Contains(confirmer.prompt, want) {
		t.Fatalf("prompt %q does not mention %q", confirmer.prompt, want)
	}
}
