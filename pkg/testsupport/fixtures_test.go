package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRecordReturnsFreshMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	if err := os.WriteFile(path, []byte(`{"minimal_info": {"study_name": "Pain"}}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	first, err := LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord returned error: %v", err)
	}
	first["minimal_info"].(map[string]any)["study_name"] = "changed"

	second, err := LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord returned error: %v", err)
	}
	if got := second["minimal_info"].(map[string]any)["study_name"]; got != "Pain" {
		t.Fatalf("expected fresh record, got %v", got)
	}
}

func TestLoadRecordRejectsNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "null.json")
	if err := os.WriteFile(path, []byte(`null`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadRecord(path); err == nil {
		t.Fatal("expected error for null record")
	}
}
