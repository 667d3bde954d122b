package io

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"forminput/internal/logging"
	"forminput/internal/util"
)

func singleRune(s, what string, fallback rune) (rune, error) {
	if s == "" {
		return fallback, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("invalid %s '%s': must be a single character", what, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// CSVReader reads a CSV file whose first row names the fields. Every value
// is read as a string, as a browser would submit it.
type CSVReader struct {
	Delimiter   rune
	CommentChar rune // 0 disables comments
}

// NewCSVReader builds a reader; an empty delimiter means ','.
func NewCSVReader(delimiter, commentChar string) (*CSVReader, error) {
	delim, err := singleRune(delimiter, "delimiter", ',')
	if err != nil {
		return nil, err
	}
	comment, err := singleRune(commentChar, "comment character", 0)
	if err != nil {
		return nil, err
	}
	return &CSVReader{Delimiter: delim, CommentChar: comment}, nil
}

// Read skips columns with a blank header and rows whose field count does not
// match the header; both are logged as warnings.
func (cr *CSVReader) Read(path string) ([]map[string]interface{}, error) {
	logging.Logf(logging.Debug, "CSVReader reading file: %s (Delimiter: '%c')", path, cr.Delimiter)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("CSVReader failed to open file '%s': %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = cr.Delimiter
	reader.Comment = cr.CommentChar
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("CSVReader parse error in '%s' on line %d, column %d: %w", path, parseErr.Line, parseErr.Column, parseErr.Err)
		}
		return nil, fmt.Errorf("CSVReader failed to read rows from '%s': %w", path, err)
	}
	if len(rows) < 2 {
		logging.Logf(logging.Warning, "CSV file '%s' has no data rows", path)
		return []map[string]interface{}{}, nil
	}

	header := rows[0]
	columns := make(map[int]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			logging.Logf(logging.Warning, "CSVReader: column %d of '%s' has no header and is ignored", i+1, path)
			continue
		}
		columns[i] = name
	}

	records := make([]map[string]interface{}, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			logging.Logf(logging.Warning, "CSVReader: row %d in '%s' has %d fields, expected %d; skipping", i+2, path, len(row), len(header))
			continue
		}
		rec := make(map[string]interface{}, len(columns))
		for idx, name := range columns {
			rec[name] = row[idx]
		}
		records = append(records, rec)
	}
	logging.Logf(logging.Debug, "CSVReader loaded %d records from %s", len(records), path)
	return records, nil
}

// CSVWriter writes records with a sorted header taken from the first
// non-empty batch. The file is created on the first Write and flushed on Close.
type CSVWriter struct {
	Delimiter rune

	mu      sync.Mutex
	path    string
	file    *os.File
	writer  *csv.Writer
	headers []string
}

// NewCSVWriter builds a writer; an empty delimiter means ','.
func NewCSVWriter(delimiter string) (*CSVWriter, error) {
	delim, err := singleRune(delimiter, "delimiter", ',')
	if err != nil {
		return nil, err
	}
	return &CSVWriter{Delimiter: delim}, nil
}

func (cw *CSVWriter) Write(records []map[string]interface{}, path string) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.writer == nil {
		if err := ensureDir(path); err != nil {
			return fmt.Errorf("CSVWriter failed to create directory for '%s': %w", path, err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("CSVWriter failed to create file '%s': %w", path, err)
		}
		cw.path, cw.file = path, f
		cw.writer = csv.NewWriter(f)
		cw.writer.Comma = cw.Delimiter
	} else if cw.path != path {
		return fmt.Errorf("CSVWriter already writing '%s', cannot switch to '%s' before Close", cw.path, path)
	}
	if len(records) == 0 {
		return nil
	}

	if cw.headers == nil {
		seen := map[string]struct{}{}
		for _, rec := range records {
			for k := range rec {
				seen[k] = struct{}{}
			}
		}
		cw.headers = util.SortedKeys(seen)
		if err := cw.writer.Write(cw.headers); err != nil {
			return fmt.Errorf("CSVWriter failed to write header to '%s': %w", cw.path, err)
		}
	}

	for i, rec := range records {
		row := make([]string, len(cw.headers))
		for j, h := range cw.headers {
			row[j] = cellText(rec[h])
		}
		if err := cw.writer.Write(row); err != nil {
			return fmt.Errorf("CSVWriter failed to write row %d to '%s': %w", i+1, cw.path, err)
		}
	}
	return cw.writer.Error()
}

func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.writer == nil {
		return nil
	}

	cw.writer.Flush()
	err := cw.writer.Error()
	if err != nil {
		err = fmt.Errorf("CSVWriter flush error on close for '%s': %w", cw.path, err)
	}
	if errClose := cw.file.Close(); errClose != nil && err == nil {
		err = fmt.Errorf("CSVWriter file close error for '%s': %w", cw.path, errClose)
	}
	cw.file, cw.writer, cw.headers = nil, nil, nil
	return err
}
