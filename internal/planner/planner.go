// Package planner turns a verified instruction into structured action
// requests. Planning is advisory only: whatever comes back still passes
// through policy mediation before anything executes.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/vishwakarma-31/jarvis/internal/model"
)

// ActionRequest is one planned action. Params carries whatever the planner
// produced; the policy engine treats it as untrusted input.
type ActionRequest struct {
	Name   string         `json:"action"`
	Params map[string]any `json:"params"`
	Reply  string         `json:"reply,omitempty"`
}

// Planner maps an instruction to zero or more action requests.
type Planner interface {
	Plan(ctx context.Context, instr model.Instruction, capabilities []string) ([]ActionRequest, error)
}

const systemPrompt = `You are the action planner for a voice assistant.
Convert the user's instruction into a minimal JSON array of actions.

RULES:
1. Do NOT converse. Output ONLY JSON, no markdown fences.
2. Use only action names from the provided capability list.
3. Params must be a flat JSON object. Use "path" for filesystem paths.
4. If no capability applies, output a single element with action "reply"
   and put the spoken answer in "reply".
5. Never invent parameters you were not told.

OUTPUT FORMAT:
[{"action": "<name>", "params": {...}, "reply": "<optional spoken text>"}]`

// OpenAI is a Planner backed by a chat completion model.
type OpenAI struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAI builds a planner. An empty model selects GPT-5 Nano.
func NewOpenAI(apiKey string, chatModel string) *OpenAI {
	m := openai.ChatModelGPT5Nano
	if chatModel != "" {
		m = openai.ChatModel(chatModel)
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}
}

// Plan implements Planner.
func (p *OpenAI) Plan(ctx context.Context, instr model.Instruction, capabilities []string) ([]ActionRequest, error) {
	prompt := fmt.Sprintf("CAPABILITIES: %s\n\nINSTRUCTION: %s",
		strings.Join(capabilities, ", "), instr.Text)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("empty message content")
	}

	return ParseActions(content)
}

// ParseActions decodes the planner output. It tolerates a single object in
// place of an array and markdown fences around the JSON.
func ParseActions(content string) ([]ActionRequest, error) {
	trimmed := stripFences(content)

	var actions []ActionRequest
	if err := json.Unmarshal([]byte(trimmed), &actions); err == nil {
		return normalize(actions), nil
	}

	var single ActionRequest
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil && single.Name != "" {
		return normalize([]ActionRequest{single}), nil
	}

	return nil, fmt.Errorf("unparseable plan: %s", content)
}

func normalize(actions []ActionRequest) []ActionRequest {
	for i := range actions {
		if actions[i].Params == nil {
			actions[i].Params = map[string]any{}
		}
	}
	return actions
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
