package pipeline

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Params carries per-run options into processors.
//
// Processors that need a structured view decode the map with Decode; the
// typed helpers cover the common scalar lookups.
type Params map[string]any

// Decode maps the params onto a struct using mapstructure tags.
func (p Params) Decode(out any) error {
	if err := mapstructure.Decode(map[string]any(p), out); err != nil {
		return fmt.Errorf("failed to decode pipeline params: %w", err)
	}
	return nil
}

// Bool returns the boolean at key, or fallback when absent or mistyped.
func (p Params) Bool(key string, fallback bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return fallback
}

// String returns the string at key, or fallback when absent or mistyped.
func (p Params) String(key string, fallback string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return fallback
}

// Strings returns the string slice at key, or nil when absent or mistyped.
// A bare string value is promoted to a one-element slice.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

// Merge returns a copy of p with overrides applied on top. Neither input is
// modified; an all-nil merge yields an empty Params.
func (p Params) Merge(overrides Params) Params {
	merged := make(Params, len(p)+len(overrides))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
