package io

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"forminput/internal/logging"
)

// YAMLReader reads a YAML list of maps, or a single map as one record.
type YAMLReader struct{}

func (YAMLReader) Read(path string) ([]map[string]interface{}, error) {
	logging.Logf(logging.Debug, "YAMLReader reading file: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("YAMLReader failed to read file '%s': %w", path, err)
	}

	var records []map[string]interface{}
	errList := yaml.Unmarshal(data, &records)
	if errList == nil {
		if records == nil {
			records = []map[string]interface{}{}
		}
		logging.Logf(logging.Debug, "YAMLReader loaded %d records from %s", len(records), path)
		return records, nil
	}

	var single map[string]interface{}
	if errMap := yaml.Unmarshal(data, &single); errMap == nil && single != nil {
		return []map[string]interface{}{single}, nil
	}
	return nil, fmt.Errorf("YAMLReader failed to unmarshal YAML from '%s': %w", path, errList)
}

// YAMLWriter writes records as a YAML list with two-space indentation.
type YAMLWriter struct{}

func (YAMLWriter) Write(records []map[string]interface{}, path string) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("YAMLWriter failed to create directory for '%s': %w", path, err)
	}
	if records == nil {
		records = []map[string]interface{}{}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("YAMLWriter failed to marshal records: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("YAMLWriter failed to marshal records: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("YAMLWriter failed to write file '%s': %w", path, err)
	}
	logging.Logf(logging.Debug, "YAMLWriter wrote %d records to %s", len(records), path)
	return nil
}

func (YAMLWriter) Close() error { return nil }
