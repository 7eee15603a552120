// Package tool defines the agent tool contract and the bundled tools.
// A tool's schema exists only to render the agent's system prompt; input
// validation at runtime is each tool's own responsibility.
package tool

import (
	"context"
	"fmt"

	"github.com/lorehub/lore/internal/domain"
)

// Input is the raw key-value payload parsed from the model's Action Input
// block. Tools decode it into their own typed parameter structs.
type Input map[string]any

// Schema is a JSON-schema-like parameter description used for prompt
// construction only.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single schema parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Tool is a named capability the agent loop may invoke. Execute returns
// the observation text shown back to the model; errors are recovered by
// the loop and surfaced as error observations, never as run failures.
type Tool interface {
	Name() string
	Description() string
	Schema() Schema
	Execute(ctx context.Context, input Input) (string, error)
}

// stringParam extracts the first present string value among keys. The
// "raw" key is the loop's fallback wrapper for unparseable action input,
// so most tools list it as a last resort.
func stringParam(input Input, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := input[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// intParam extracts an optional integer value. JSON numbers decode as
// float64, so both forms are accepted.
func intParam(input Input, key string) (int, bool) {
	switch v := input[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func missingParam(name string) error {
	return fmt.Errorf("%w: missing required parameter %q", domain.ErrInvalidInput, name)
}
