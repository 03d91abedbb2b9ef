package llmutils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ksfoundation/oneshot/internal/schema"
)

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Truncate shortens a string to at most n runes, adding "..." if it was truncated.
func Truncate(s string, n int) string {
	if head, cut := headRunes(s, n); cut {
		return head + "..."
	}
	return s
}

// headRunes returns the first n runes of s and whether anything was dropped.
func headRunes(s string, n int) (string, bool) {
	if n < 0 {
		n = 0
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}

// StripThink removes <think>…</think> blocks that some models embed.
func StripThink(s string) string {
	return reThink.ReplaceAllString(s, "")
}

// CleanLocal strips think blocks and surrounding whitespace from a local
// model's reply.
func CleanLocal(s string) string {
	return strings.TrimSpace(StripThink(s))
}

// StringOrDefault returns s if it's not empty, or def if s is empty.
func StringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ToolHint generates a short hint string for a list of tool calls, e.g. `check_domain_availability("acme")`.
func ToolHint(calls []schema.ToolInvocationRequest) string {
	parts := make([]string, 0, len(calls))
	for _, c := range calls {
		firstVal := firstStringArg(c.RawArguments)
		if firstVal == "" {
			parts = append(parts, c.Name)
			continue
		}
		if head, cut := headRunes(firstVal, 40); cut {
			firstVal = head + "…"
		}
		parts = append(parts, fmt.Sprintf("%s(%q)", c.Name, firstVal))
	}
	return strings.Join(parts, ", ")
}

// firstStringArg returns the first string value in key order, or "".
func firstStringArg(raw string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if s, ok := args[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
