// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"strings"
	"testing"
)

const personSchema = `{
	"type": "object",
	"required": ["name", "score"],
	"properties": {
		"name": {"type": "string"},
		"score": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

func TestUnmarshalValidDocument(t *testing.T) {
	var out struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}
	err := Unmarshal(personSchema, `{"name":"awesome-tool","score":0.9}`, &out)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Name != "awesome-tool" || out.Score != 0.9 {
		t.Errorf("got %+v", out)
	}
}

func TestUnmarshalStripsCodeFences(t *testing.T) {
	doc := "```json\n{\"name\":\"x\",\"score\":0.5}\n```"
	var out map[string]any
	if err := Unmarshal(personSchema, doc, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out["name"] != "x" {
		t.Errorf("got %v", out)
	}
}

func TestUnmarshalRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing required field", `{"name":"x"}`},
		{"score out of range", `{"name":"x","score":1.5}`},
		{"wrong type", `{"name":42,"score":0.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]any
			err := Unmarshal(personSchema, tt.doc, &out)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "schema validation") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestUnmarshalRejectsMalformedJSON(t *testing.T) {
	var out map[string]any
	if err := Unmarshal(personSchema, `{"name":`, &out); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := CleanJSONBlock(tt.in); got != tt.want {
			t.Errorf("CleanJSONBlock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
