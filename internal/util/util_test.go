package util

import "testing"

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", " prod ", "demo"); got != "prod" {
		t.Fatalf("expected prod, got %q", got)
	}
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestTrimStrings(t *testing.T) {
	got := TrimStrings([]string{" healdv.schema ", "", "  ", "healdv"})
	if len(got) != 2 || got[0] != "healdv.schema" || got[1] != "healdv" {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestCloneAnyMapIsDeep(t *testing.T) {
	source := map[string]any{
		"study_type": map[string]any{"study_stage": []any{"Stage 1"}},
		"tags":       []string{"a"},
	}
	clone := CloneAnyMap(source)
	clone["study_type"].(map[string]any)["study_stage"].([]any)[0] = "Stage 2"
	clone["tags"].([]string)[0] = "b"

	if stage := source["study_type"].(map[string]any)["study_stage"].([]any)[0]; stage != "Stage 1" {
		t.Fatalf("source mutated through clone: %v", stage)
	}
	if tag := source["tags"].([]string)[0]; tag != "a" {
		t.Fatalf("source slice mutated through clone: %v", tag)
	}
	if CloneAnyMap(nil) != nil {
		t.Fatal("expected nil clone for nil input")
	}
}
