package io

import (
	"encoding/json"
	"fmt"
	"os"

	"forminput/internal/logging"
)

// JSONReader reads a JSON array of objects, or a single object as one record.
type JSONReader struct{}

func (JSONReader) Read(path string) ([]map[string]interface{}, error) {
	logging.Logf(logging.Debug, "JSONReader reading file: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("JSONReader failed to read file '%s': %w", path, err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		var single map[string]interface{}
		if errSingle := json.Unmarshal(data, &single); errSingle == nil {
			return []map[string]interface{}{single}, nil
		}
		return nil, fmt.Errorf("JSONReader failed to unmarshal JSON from '%s' as array or single object: %w", path, err)
	}
	if records == nil {
		records = []map[string]interface{}{}
	}
	logging.Logf(logging.Debug, "JSONReader loaded %d records from %s", len(records), path)
	return records, nil
}

// JSONWriter writes records as an indented JSON array.
type JSONWriter struct{}

func (JSONWriter) Write(records []map[string]interface{}, path string) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("JSONWriter failed to create directory for '%s': %w", path, err)
	}
	if records == nil {
		records = []map[string]interface{}{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("JSONWriter failed to marshal records: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("JSONWriter failed to write file '%s': %w", path, err)
	}
	logging.Logf(logging.Debug, "JSONWriter wrote %d records to %s", len(records), path)
	return nil
}

func (JSONWriter) Close() error { return nil }
