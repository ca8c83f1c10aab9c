// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the generative model API behind a small completion
// interface. Every stage that calls a model does so through Completer, so
// tests substitute a canned implementation and the stages keep a
// deterministic fallback for when no client is configured.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Completer produces a JSON document for a prompt.
type Completer interface {
	CompleteJSON(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Unmarshal validates doc against a JSON schema and decodes it into v.
// Model output that fails validation is rejected here rather than partially
// applied downstream.
func Unmarshal(schema, doc string, v any) error {
	doc = CleanJSONBlock(doc)

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("validating model output: %w", err)
	}
	if !result.Valid() {
		var reasons []string
		for _, e := range result.Errors() {
			reasons = append(reasons, e.String())
		}
		return fmt.Errorf("model output failed schema validation: %s", strings.Join(reasons, "; "))
	}

	if err := json.Unmarshal([]byte(doc), v); err != nil {
		return fmt.Errorf("decoding model output: %w", err)
	}
	return nil
}

// CleanJSONBlock removes markdown code fences from model output. Models
// often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
