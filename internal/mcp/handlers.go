package mcp

import (
	"context"
	"encoding/json"
	"errors"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vishwakarma-31/jarvis/internal/invoke"
)

// InvokeInput defines parameters for the jarvis_invoke tool.
type InvokeInput struct {
	Action string         `json:"action" jsonschema:"capability name to invoke"`
	Params map[string]any `json:"params,omitempty" jsonschema:"capability parameters"`
}

// InvokeOutput contains the capability result or refusal details.
type InvokeOutput struct {
	Result   json.RawMessage `json:"result,omitempty"`
	Blocked  bool            `json:"blocked,omitempty"`
	Decision string          `json:"decision,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

// CheckInput defines parameters for the jarvis_check tool.
type CheckInput struct {
	Action string         `json:"action" jsonschema:"capability name to evaluate"`
	Params map[string]any `json:"params,omitempty" jsonschema:"capability parameters"`
}

// CheckOutput contains the policy decision.
type CheckOutput struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
	PolicyID string `json:"policy_id,omitempty"`
}

// StatusInput is empty.
type StatusInput struct{}

// StatusOutput reports gate, enrollment, and policy state.
type StatusOutput struct {
	GateState    string   `json:"gate_state,omitempty"`
	Enrolled     bool     `json:"enrolled"`
	PolicyHash   string   `json:"policy_hash"`
	Capabilities []string `json:"capabilities"`
}

func (s *Server) handleInvoke(ctx context.Context, req *mcpsdk.CallToolRequest, input InvokeInput) (*mcpsdk.CallToolResult, InvokeOutput, error) {
	params := input.Params
	if params == nil {
		params = map[string]any{}
	}

	out, err := s.invoker.Invoke(ctx, "", input.Action, params)
	if err != nil {
		var pv *invoke.PolicyViolationError
		if errors.As(err, &pv) {
			return &mcpsdk.CallToolResult{IsError: true}, InvokeOutput{
				Blocked:  true,
				Decision: "deny",
				Reason:   pv.Reason,
			}, nil
		}
		var rej *invoke.RejectedByUserError
		if errors.As(err, &rej) {
			return &mcpsdk.CallToolResult{IsError: true}, InvokeOutput{
				Blocked:  true,
				Decision: "require_confirmation",
				Reason:   "confirmation was not granted",
			}, nil
		}
		return nil, InvokeOutput{}, err
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, InvokeOutput{}, err
	}
	return nil, InvokeOutput{Result: raw}, nil
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	result := s.invoker.Check(input.Action, input.Params)
	return nil, CheckOutput{
		Decision: string(result.Decision),
		Reason:   result.Reason,
		PolicyID: result.PolicyID,
	}, nil
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	out := StatusOutput{
		PolicyHash:   s.invoker.PolicyHash(),
		Capabilities: s.invoker.Capabilities(),
	}
	if s.gateState != nil {
		out.GateState = string(s.gateState())
	}
	if s.enrolled != nil {
		out.Enrolled = s.enrolled()
	}
	return nil, out, nil
}
