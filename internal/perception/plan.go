package perception

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedPlan marks a reply that is not a JSON object.
var ErrMalformedPlan = errors.New("malformed plan")

// RawPlan is a model reply before sanitizing. Actions hold decoded JSON
// values ready for patch.SanitizeActions.
type RawPlan struct {
	Reply   string
	Actions []any
}

// ParsePlan parses a model reply. Code fences are stripped; anything other
// than a JSON object is an error.
func ParsePlan(text string) (*RawPlan, error) {
	body := stripMarkdownCodeFences(text)
	if body == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedPlan)
	}
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedPlan)
	}
	root := gjson.Parse(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: root is not an object", ErrMalformedPlan)
	}

	plan := &RawPlan{Reply: strings.TrimSpace(root.Get("reply").String())}
	if actions := root.Get("actions"); actions.IsArray() {
		for _, a := range actions.Array() {
			plan.Actions = append(plan.Actions, a.Value())
		}
	}
	return plan, nil
}

// stripMarkdownCodeFences removes a ```json ... ``` wrapper.
func stripMarkdownCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "```") {
		firstNewline := strings.Index(trimmed, "\n")
		if firstNewline != -1 {
			lastFence := strings.LastIndex(trimmed, "```")
			if lastFence > firstNewline {
				return strings.TrimSpace(trimmed[firstNewline+1 : lastFence])
			}
		}
	}
	return trimmed
}
