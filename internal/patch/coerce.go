package patch

import (
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
)

// Coercion helpers shared by the sanitizers. All of them are total: bad input
// yields the zero value and ok=false, never a panic.

func asObject(raw any) (map[string]any, bool) {
	m, ok := raw.(map[string]any)
	return m, ok
}

func asList(raw any) ([]any, bool) {
	l, ok := raw.([]any)
	return l, ok
}

// clip trims, cuts to max runes and trims again so the result is stable under
// repeated application.
func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && utf8.RuneCountInString(s) > max {
		s = string([]rune(s)[:max])
	}
	return strings.TrimSpace(s)
}

// str reads a string-like value. Numbers are accepted and formatted; bools,
// objects and lists are not.
func str(raw any, max int) string {
	switch v := raw.(type) {
	case string:
		return clip(v, max)
	case float64, float32, int, int64, int32, json.Number:
		s, err := cast.ToStringE(v)
		if err != nil {
			return ""
		}
		return clip(s, max)
	}
	return ""
}

func number(raw any) (float64, bool) {
	switch raw.(type) {
	case nil, bool, map[string]any, []any:
		return 0, false
	}
	if s, isStr := raw.(string); isStr {
		raw = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// intIn rounds and clamps raw into [min,max].
func intIn(raw any, min, max int) *int {
	f, ok := number(raw)
	if !ok {
		return nil
	}
	n := int(math.Max(float64(min), math.Min(float64(max), math.Round(f))))
	return &n
}

// floatIn clamps raw into [min,max] keeping two decimals.
func floatIn(raw any, min, max float64) *float64 {
	f, ok := number(raw)
	if !ok {
		return nil
	}
	f = math.Max(min, math.Min(max, math.Round(f*100)/100))
	return &f
}

func boolean(raw any) *bool {
	switch v := raw.(type) {
	case bool:
		return &v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "si", "sí", "y", "s":
			b := true
			return &b
		case "no", "n":
			b := false
			return &b
		}
		b, err := cast.ToBoolE(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return &b
	}
	return nil
}

// flag is a bool where only true matters.
func flag(raw any) bool {
	b := boolean(raw)
	return b != nil && *b
}

// first returns the value under the first key present in m.
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// ToRaw converts a typed value back into decoded-JSON form (maps, slices,
// float64, string, bool, nil). It returns nil if v cannot be encoded.
func ToRaw(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
