package tools

import (
	"strings"
	"testing"
)

func TestSaveToMemoryAndLoadMemory(t *testing.T) {
	ctx, _ := newToolCtx("alice")
	save := NewSaveToMemoryTool()

	for _, kv := range [][2]string{
		{"name", "Alice"},
		{"interests", "hiking"},
		{"journal_entry", "felt calm today"},
	} {
		result, err := save.Execute(ctx, map[string]interface{}{"key": kv[0], "value": kv[1]})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Success {
			t.Fatalf("expected success for key %s, got: %s", kv[0], result.Error)
		}
	}

	result, err := NewLoadMemoryTool().Execute(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := resultData(t, result.Data)

	details, _ := data["personal_details"].(map[string]string)
	if details["name"] != "Alice" {
		t.Errorf("unexpected personal details: %+v", data["personal_details"])
	}
	interests, _ := data["interests"].([]string)
	if len(interests) != 1 || interests[0] != "hiking" {
		t.Errorf("unexpected interests: %+v", data["interests"])
	}
	history, _ := data["history"].([]string)
	if len(history) != 1 {
		t.Errorf("unexpected history: %+v", data["history"])
	}
}

func TestSaveToMemoryValidation(t *testing.T) {
	ctx, _ := newToolCtx("alice")
	result, _ := NewSaveToMemoryTool().Execute(ctx, map[string]interface{}{"key": "name"})
	if result.Success || !strings.Contains(result.Error, "'value' is required") {
		t.Errorf("expected missing value error, got %+v", result)
	}
}

func TestSavePatternTool(t *testing.T) {
	ctx, sess := newToolCtx("alice")
	tool := NewSavePatternTool()

	result, err := tool.Execute(ctx, map[string]interface{}{
		"trigger":  "Work Stress",
		"response": "breathing exercise",
		"helpful":  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Error)
	}

	mem := sess.State.MemorySnapshot("alice")
	pattern, ok := mem.Patterns["work stress"]
	if !ok || len(pattern.Helpful) != 1 {
		t.Errorf("unexpected patterns: %+v", mem.Patterns)
	}
}

func TestSavePatternToolRequiresHelpful(t *testing.T) {
	ctx, _ := newToolCtx("alice")
	result, _ := NewSavePatternTool().Execute(ctx, map[string]interface{}{
		"trigger":  "stress",
		"response": "x",
	})
	if result.Success || !strings.Contains(result.Error, "'helpful' is required") {
		t.Errorf("expected missing helpful error, got %+v", result)
	}
}
