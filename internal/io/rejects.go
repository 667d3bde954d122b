package io

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"forminput/internal/input"
	"forminput/internal/logging"
	"forminput/internal/util"
)

// RejectColumn is the extra column holding the rejection reason.
const RejectColumn = "validation_errors"

// CSVRejectWriter appends rejected submissions to a CSV file. The header is
// fixed by the first record and only written when the file is empty.
type CSVRejectWriter struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	writer  *csv.Writer
	headers []string
	closed  bool
}

// NewCSVRejectWriter opens path for appending, creating it if needed.
func NewCSVRejectWriter(path string) (*CSVRejectWriter, error) {
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("CSVRejectWriter failed to create directory for '%s': %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("CSVRejectWriter failed to open '%s': %w", path, err)
	}
	return &CSVRejectWriter{path: path, file: f, writer: csv.NewWriter(f)}, nil
}

func (w *CSVRejectWriter) Write(record map[string]interface{}, reason error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("CSVRejectWriter: write called on closed writer")
	}

	if w.headers == nil {
		w.headers = append(util.SortedKeys(record), RejectColumn)
		info, err := w.file.Stat()
		if err != nil || info.Size() == 0 {
			if err := w.writer.Write(w.headers); err != nil {
				return fmt.Errorf("CSVRejectWriter failed to write header to '%s': %w", w.path, err)
			}
		}
	}

	row := make([]string, len(w.headers))
	for i, h := range w.headers {
		if h == RejectColumn {
			row[i] = ReasonText(reason)
			continue
		}
		row[i] = cellText(record[h])
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("CSVRejectWriter failed to write row to '%s': %w", w.path, err)
	}
	w.writer.Flush()
	return w.writer.Error()
}

func (w *CSVRejectWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	w.writer.Flush()
	err := w.writer.Error()
	if errClose := w.file.Close(); errClose != nil && err == nil {
		err = errClose
	}
	if err != nil {
		logging.Logf(logging.Error, "CSVRejectWriter failed to close '%s': %v", w.path, err)
		return fmt.Errorf("CSVRejectWriter failed to close '%s': %w", w.path, err)
	}
	return nil
}

// ReasonText renders a rejection for the error file. Validation failures
// list "field: message" pairs; other errors use their text.
func ReasonText(reason error) string {
	if reason == nil {
		return ""
	}
	var failure *input.Failure
	if errors.As(reason, &failure) {
		var parts []string
		for _, field := range failure.Fields() {
			for _, msg := range failure.Errors[field] {
				parts = append(parts, field+": "+msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return reason.Error()
}
