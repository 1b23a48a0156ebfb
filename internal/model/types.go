package model

import "time"

// Decision is the policy evaluation outcome for a requested action.
type Decision string

const (
	Allow               Decision = "allow"
	Deny                Decision = "deny"
	RequireConfirmation Decision = "require_confirmation"
)

// PolicyResult is the output of policy evaluation.
type PolicyResult struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason"`
	PolicyID string   `json:"policy_id,omitempty"`
}

// Instruction is a transcribed command whose speaker passed verification.
//
// OriginAuthenticated is load-bearing: it is set only by the authorization
// gate on the Authorized path. Downstream consumers must never construct an
// Instruction with this flag set themselves.
type Instruction struct {
	Text                string    `json:"text"`
	OriginAuthenticated bool      `json:"origin_authenticated"`
	AttemptID           string    `json:"attempt_id"`
	Timestamp           time.Time `json:"timestamp"`
}
