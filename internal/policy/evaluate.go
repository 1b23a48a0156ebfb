package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vishwakarma-31/jarvis/internal/model"
)

// Evaluate evaluates one requested action against the policy configuration.
//
// Evaluation order (must not be changed):
//  1. Blacklisted path prefix: hard deny
//  2. High-risk keyword: require confirmation (or allow when the
//     confirmation requirement is disabled)
//  3. Default allow
//
// Evaluation is pure and total: it never blocks, never consults external
// state, and treats malformed or missing fields as "no match" for the rule
// rather than as errors.
func Evaluate(action string, params map[string]any, cfg *Config) model.PolicyResult {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Step 1: blacklisted path prefix. The match is a literal, case-sensitive
	// string prefix, not path-component aware: a blacklist entry "/system"
	// also blocks "/systemx". That quirk is part of the contract and is
	// covered by tests; do not "fix" it here.
	if path, ok := pathParam(params); ok {
		for _, prefix := range cfg.BlacklistPaths {
			if prefix != "" && strings.HasPrefix(path, prefix) {
				return model.PolicyResult{
					Decision: model.Deny,
					Reason:   fmt.Sprintf("path %q matches blacklisted prefix %q", path, prefix),
					PolicyID: "blacklist.path",
				}
			}
		}
	}

	// Step 2: high-risk keyword, case-insensitive substring over the action
	// name and the serialized parameters.
	haystack := strings.ToLower(action) + " " + strings.ToLower(serializeParams(params))
	for _, keyword := range cfg.HighRiskActions {
		if keyword == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(keyword)) {
			if !cfg.RequireConfirmation {
				return model.PolicyResult{
					Decision: model.Allow,
					Reason:   fmt.Sprintf("high-risk keyword %q matched, confirmation requirement disabled", keyword),
					PolicyID: "highrisk.unconfirmed",
				}
			}
			return model.PolicyResult{
				Decision: model.RequireConfirmation,
				Reason:   fmt.Sprintf("high-risk keyword %q matched", keyword),
				PolicyID: "highrisk.keyword",
			}
		}
	}

	// Step 3: default allow.
	return model.PolicyResult{
		Decision: model.Allow,
		Reason:   "no policy rule matched",
		PolicyID: "default.allow",
	}
}

// pathParam extracts the "path" parameter if present and string-typed.
// Anything else is treated as no path, never as an error.
func pathParam(params map[string]any) (string, bool) {
	if params == nil {
		return "", false
	}
	path, ok := params["path"].(string)
	return path, ok
}

// serializeParams renders parameters deterministically for keyword matching.
// Keys are sorted so the result does not depend on map iteration order.
func serializeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, params[k])
	}
	return b.String()
}
