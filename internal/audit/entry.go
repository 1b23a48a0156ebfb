package audit

// Action is the flattened action recorded in each audit entry.
type Action struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// Entry is one line in the hash-chained JSONL audit log.
// All fields are structs (no map[string]any) to guarantee deterministic
// json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp  string `json:"ts"`
	AttemptID  string `json:"attempt_id"`
	Action     Action `json:"action"`
	Decision   string `json:"decision"`
	Reason     string `json:"reason"`
	Confirmed  bool   `json:"confirmed,omitempty"`
	PolicyHash string `json:"policy_hash"`
	PrevHash   string `json:"prev_hash"`
}
