package io

import (
	"fmt"
	"strings"

	"forminput/internal/config"
	"forminput/internal/logging"
)

// NewRecordReader returns the reader for a source type.
func NewRecordReader(cfg config.SourceConfig) (RecordReader, error) {
	sourceType := strings.ToLower(cfg.Type)
	logging.Logf(logging.Debug, "Creating record reader for type: %s", sourceType)

	switch sourceType {
	case config.SourceTypeJSON:
		return JSONReader{}, nil
	case config.SourceTypeYAML:
		return YAMLReader{}, nil
	case config.SourceTypeCSV:
		reader, err := NewCSVReader(cfg.Delimiter, cfg.CommentChar)
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV reader: %w", err)
		}
		return reader, nil
	case config.SourceTypeXLSX:
		return NewXLSXReader(cfg.SheetName, cfg.SheetIndex), nil
	}
	return nil, fmt.Errorf("unsupported source type '%s'", cfg.Type)
}

// NewRecordWriter returns the writer for a destination type.
func NewRecordWriter(cfg config.DestinationConfig) (RecordWriter, error) {
	destType := strings.ToLower(cfg.Type)
	logging.Logf(logging.Debug, "Creating record writer for type: %s", destType)

	switch destType {
	case config.DestinationTypeJSON:
		return JSONWriter{}, nil
	case config.DestinationTypeYAML:
		return YAMLWriter{}, nil
	case config.DestinationTypeCSV:
		writer, err := NewCSVWriter(cfg.Delimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create CSV writer: %w", err)
		}
		return writer, nil
	case config.DestinationTypeXLSX:
		return NewXLSXWriter(cfg.SheetName), nil
	}
	return nil, fmt.Errorf("unsupported destination type '%s'", cfg.Type)
}
