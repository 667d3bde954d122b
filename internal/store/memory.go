// Package store provides the row lookups behind the unique and exists rules.
package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemoryLookup keeps rows in memory. It is safe for concurrent use.
type MemoryLookup struct {
	mu   sync.RWMutex
	rows map[string][]map[string]any
}

// NewMemoryLookup copies seed (table name to rows) into a new lookup.
func NewMemoryLookup(seed map[string][]map[string]any) *MemoryLookup {
	l := &MemoryLookup{rows: make(map[string][]map[string]any, len(seed))}
	for table, rows := range seed {
		for _, row := range rows {
			l.Insert(table, row)
		}
	}
	return l
}

// Insert appends a copy of row to table.
func (l *MemoryLookup) Insert(table string, row map[string]any) {
	cp := make(map[string]any, len(row))
	for k, v := range row {
		cp[k] = v
	}
	l.mu.Lock()
	l.rows[table] = append(l.rows[table], cp)
	l.mu.Unlock()
}

// Count compares values by their text form, so "1", 1 and 1.0 are equal.
func (l *MemoryLookup) Count(ctx context.Context, table, column string, value any, exceptColumn, except string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	want := text(value)
	var n int64
	for _, row := range l.rows[table] {
		v, ok := row[column]
		if !ok || text(v) != want {
			continue
		}
		if exceptColumn != "" && text(row[exceptColumn]) == except {
			continue
		}
		n++
	}
	return n, nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
