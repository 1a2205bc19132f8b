// Package testsupport loads JSON fixtures shared by converter tests.
package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func LoadGolden(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// LoadRecord decodes a HEAL record fixture. Each call returns a fresh map so
// tests can mutate it freely.
func LoadRecord(path string) (map[string]any, error) {
	var record map[string]any
	if err := LoadGolden(path, &record); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("fixture %s: record is null", path)
	}
	return record, nil
}
