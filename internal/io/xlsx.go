package io

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"forminput/internal/config"
	"forminput/internal/logging"
	"forminput/internal/util"
)

// XLSXReader reads one sheet whose first row names the fields. Cells are
// read as displayed text.
type XLSXReader struct {
	sheetName  string
	sheetIndex *int
}

// NewXLSXReader selects a sheet by name, else by index, else the active sheet.
func NewXLSXReader(sheetName string, sheetIndex *int) *XLSXReader {
	return &XLSXReader{sheetName: sheetName, sheetIndex: sheetIndex}
}

func (xr *XLSXReader) Read(path string) ([]map[string]interface{}, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("XLSXReader failed to open file '%s': %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Logf(logging.Error, "XLSXReader failed to close file '%s': %v", path, err)
		}
	}()

	sheet, err := xr.pickSheet(f, path)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("XLSXReader failed to get rows from sheet '%s' in '%s': %w", sheet, path, err)
	}

	records := make([]map[string]interface{}, 0)
	if len(rows) == 0 {
		logging.Logf(logging.Warning, "XLSX sheet '%s' in '%s' is empty", sheet, path)
		return records, nil
	}

	var headers []string
	for _, h := range rows[0] {
		headers = append(headers, strings.TrimSpace(h))
	}
	for _, row := range rows[1:] {
		rec := make(map[string]interface{}, len(headers))
		for i, name := range headers {
			if name == "" {
				continue
			}
			value := ""
			if i < len(row) {
				value = row[i]
			}
			rec[name] = value
		}
		records = append(records, rec)
	}
	logging.Logf(logging.Debug, "XLSXReader loaded %d records from sheet '%s' in %s", len(records), sheet, path)
	return records, nil
}

func (xr *XLSXReader) pickSheet(f *excelize.File, path string) (string, error) {
	sheets := f.GetSheetList()
	switch {
	case xr.sheetName != "":
		for _, name := range sheets {
			if name == xr.sheetName {
				return name, nil
			}
		}
		return "", fmt.Errorf("XLSXReader: sheet '%s' not found in '%s'", xr.sheetName, path)
	case xr.sheetIndex != nil:
		if *xr.sheetIndex < 0 || *xr.sheetIndex >= len(sheets) {
			return "", fmt.Errorf("XLSXReader: sheet index %d is out of bounds (0 to %d) in '%s'", *xr.sheetIndex, len(sheets)-1, path)
		}
		return sheets[*xr.sheetIndex], nil
	}
	if name := f.GetSheetName(f.GetActiveSheetIndex()); name != "" {
		return name, nil
	}
	if len(sheets) == 0 {
		return "", fmt.Errorf("XLSXReader: file '%s' contains no sheets", path)
	}
	return sheets[0], nil
}

// XLSXWriter writes all records to a single sheet with a sorted header row.
type XLSXWriter struct {
	sheetName string
}

// NewXLSXWriter writes to sheetName, or config.DefaultSheetName when empty.
func NewXLSXWriter(sheetName string) *XLSXWriter {
	if sheetName == "" {
		sheetName = config.DefaultSheetName
	}
	return &XLSXWriter{sheetName: sheetName}
}

func (xw *XLSXWriter) Write(records []map[string]interface{}, path string) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("XLSXWriter failed to create directory for '%s': %w", path, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if xw.sheetName != config.DefaultSheetName {
		if err := f.SetSheetName(config.DefaultSheetName, xw.sheetName); err != nil {
			return fmt.Errorf("XLSXWriter failed to name sheet '%s': %w", xw.sheetName, err)
		}
	}

	seen := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	headers := util.SortedKeys(seen)
	if len(headers) > 0 {
		headerRow := make([]interface{}, len(headers))
		for i, h := range headers {
			headerRow[i] = h
		}
		if err := f.SetSheetRow(xw.sheetName, "A1", &headerRow); err != nil {
			return fmt.Errorf("XLSXWriter failed to write header row to sheet '%s': %w", xw.sheetName, err)
		}
	}

	for i, rec := range records {
		row := make([]interface{}, len(headers))
		for j, h := range headers {
			row[j] = cellValue(rec[h])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("XLSXWriter failed to calculate cell for row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(xw.sheetName, cell, &row); err != nil {
			return fmt.Errorf("XLSXWriter failed to write row %d to sheet '%s': %w", i+2, xw.sheetName, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("XLSXWriter failed to save file '%s': %w", path, err)
	}
	logging.Logf(logging.Debug, "XLSXWriter wrote %d records to sheet '%s' in %s", len(records), xw.sheetName, path)
	return nil
}

func (xw *XLSXWriter) Close() error { return nil }

// cellValue keeps numbers numeric and renders the rest as text.
func cellValue(v interface{}) interface{} {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return x
	case time.Time, *time.Time, bool, nil:
		return cellText(x)
	}
	return cellText(v)
}
