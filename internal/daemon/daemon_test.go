package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vishwakarma-31/jarvis/internal/feedback"
	"github.com/vishwakarma-31/jarvis/internal/model"
	"github.com/vishwakarma-31/jarvis/internal/planner"
)

type fakePlanner struct {
	actions []planner.ActionRequest
	err     error
}

func (p *fakePlanner) Plan(context.Context, model.Instruction, []string) ([]planner.ActionRequest, error) {
	return p.actions, p.err
}

type fakeInvoker struct {
	mu      sync.Mutex
	invoked []string
	out     any
	err     error
}

func (i *fakeInvoker) Invoke(_ context.Context, _, action string, _ map[string]any) (any, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.invoked = append(i.invoked, action)
	return i.out, i.err
}

func (i *fakeInvoker) Capabilities() []string { return []string{"cpu_usage"} }

type recordingSpeaker struct {
	mu   sync.Mutex
	said []string
}

func (s *recordingSpeaker) Say(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
}

func (s *recordingSpeaker) all() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.said, " | ")
}

func verifiedInstruction(text string) model.Instruction {
	return model.Instruction{
		Text:                text,
		OriginAuthenticated: true,
		AttemptID:           "a-test",
		Timestamp:           time.Now().UTC(),
	}
}

func TestParseCorrection(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		want     bool
		wantText string
	}{
		{"plain marker", "that was wrong", true, ""},
		{"marker with answer", "the correct answer is forty two", true, "forty two"},
		{"mixed case", "That Was Wrong, it should be five", true, "it should be five"},
		{"new command", "what is the cpu usage", false, ""},
		{"empty", "", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			corr, ok := ParseCorrection(tc.text)
			if ok != tc.want {
				t.Fatalf("ParseCorrection(%q) ok = %v, want %v", tc.text, ok, tc.want)
			}
			if ok && corr.Text != tc.wantText {
				t.Fatalf("correction text = %q, want %q", corr.Text, tc.wantText)
			}
		})
	}
}

func TestHandleInvokesPlannedActions(t *testing.T) {
	inv := &fakeInvoker{out: map[string]any{"percent": 42.0}}
	speaker := &recordingSpeaker{}
	d := New(Config{}, nil, &fakePlanner{actions: []planner.ActionRequest{
		{Name: "cpu_usage", Params: map[string]any{}},
	}}, inv, speaker, nil, nil)

	d.Handle(context.Background(), verifiedInstruction("check the cpu"))

	if len(inv.invoked) != 1 || inv.invoked[0] != "cpu_usage" {
		t.Fatalf("invoked = %v, want [cpu_usage]", inv.invoked)
	}
	if !strings.Contains(speaker.all(), "42 percent") {
		t.Fatalf("spoken output %q does not report the result", speaker.all())
	}
}

func TestHandleSpeaksReplyWithoutInvoking(t *testing.T) {
	inv := &fakeInvoker{}
	speaker := &recordingSpeaker{}
	d := New(Config{}, nil, &fakePlanner{actions: []planner.ActionRequest{
		{Name: "reply", Reply: "It is noon."},
	}}, inv, speaker, nil, nil)

	d.Handle(context.Background(), verifiedInstruction("what time is it"))

	if len(inv.invoked) != 0 {
		t.Fatalf("reply action reached the invoker: %v", inv.invoked)
	}
	if !strings.Contains(speaker.all(), "It is noon.") {
		t.Fatalf("spoken output %q missing reply", speaker.all())
	}
}

func TestHandleRefusesUnauthenticatedInstruction(t *testing.T) {
	inv := &fakeInvoker{}
	speaker := &recordingSpeaker{}
	d := New(Config{}, nil, &fakePlanner{actions: []planner.ActionRequest{
		{Name: "cpu_usage"},
	}}, inv, speaker, nil, nil)

	d.Handle(context.Background(), model.Instruction{Text: "check the cpu", OriginAuthenticated: false})

	if len(inv.invoked) != 0 {
		t.Fatalf("unauthenticated instruction was executed: %v", inv.invoked)
	}
	if speaker.all() != "" {
		t.Fatalf("unauthenticated instruction produced output %q", speaker.all())
	}
}

func TestHandleSpeaksInvocationFailure(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("action \"delete_file\" denied by policy")}
	speaker := &recordingSpeaker{}
	d := New(Config{}, nil, &fakePlanner{actions: []planner.ActionRequest{
		{Name: "delete_file", Params: map[string]any{"path": "/system/x"}},
	}}, inv, speaker, nil, nil)

	d.Handle(context.Background(), verifiedInstruction("delete the system folder"))

	if !strings.Contains(speaker.all(), "could not") {
		t.Fatalf("failure not reported to the user: %q", speaker.all())
	}
}

func TestHandlePlannerFailure(t *testing.T) {
	speaker := &recordingSpeaker{}
	d := New(Config{}, nil, &fakePlanner{err: errors.New("model offline")}, &fakeInvoker{}, speaker, nil, nil)

	d.Handle(context.Background(), verifiedInstruction("do something"))

	if speaker.all() == "" {
		t.Fatal("planner failure produced no spoken output")
	}
}

func TestCorrectionRecordedWithLastExchange(t *testing.T) {
	fb, err := feedback.NewLog(filepath.Join(t.TempDir(), "feedback.jsonl"))
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	inv := &fakeInvoker{out: "sunny"}
	speaker := &recordingSpeaker{}
	d := New(Config{}, nil, &fakePlanner{actions: []planner.ActionRequest{
		{Name: "cpu_usage"},
	}}, inv, speaker, nil, fb)

	ctx := context.Background()
	d.Handle(ctx, verifiedInstruction("what is the weather"))
	d.Handle(ctx, verifiedInstruction("that was wrong, it is raining"))

	entries, err := fb.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d feedback entries, want 1", len(entries))
	}
	if entries[0].Instruction != "what is the weather" {
		t.Fatalf("feedback instruction = %q", entries[0].Instruction)
	}
	if entries[0].Response != "sunny" {
		t.Fatalf("feedback response = %q", entries[0].Response)
	}
	if !strings.Contains(entries[0].Correction, "raining") {
		t.Fatalf("feedback correction = %q", entries[0].Correction)
	}
	// The correction itself is not executed as a command.
	if len(inv.invoked) != 1 {
		t.Fatalf("correction was planned and executed: %v", inv.invoked)
	}
}

func TestPIDLockBlocksSecondInstance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jarvis.pid")

	if err := acquirePIDLock(path); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := acquirePIDLock(path); err == nil {
		t.Fatal("second acquire succeeded while first holds the lock")
	}
	releasePIDLock(path)
	if err := acquirePIDLock(path); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	releasePIDLock(path)
}

func TestPIDLockClearsStaleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jarvis.pid")

	// A PID that cannot be a live process.
	if err := os.WriteFile(path, []byte("999999999"), 0600); err != nil {
		t.Fatalf("seed stale pid: %v", err)
	}
	if err := acquirePIDLock(path); err != nil {
		t.Fatalf("acquire over stale lock: %v", err)
	}
	releasePIDLock(path)
}
