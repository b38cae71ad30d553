package sheets

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store used by tests and local development without
// Google credentials. It mirrors the semantics of GoogleStore, including
// 1-based row indexes counted from the header row.
type MemStore struct {
	mu     sync.RWMutex
	sheets map[string][][]string // key: spreadsheetID + "/" + sheet
}

// NewMemStore builds an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{sheets: make(map[string][][]string)}
}

func memKey(spreadsheetID, sheet string) string {
	return spreadsheetID + "/" + sheet
}

func toStrings(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// ListRows returns every data row keyed by header.
func (m *MemStore) ListRows(ctx context.Context, spreadsheetID, sheet string) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := m.sheets[memKey(spreadsheetID, sheet)]
	if len(values) < 2 {
		return nil, nil
	}
	headers := values[0]
	rows := make([]Row, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := Row{}
		for i, h := range headers {
			if i < len(raw) {
				row[h] = raw[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRow appends one row, creating the sheet with headers when absent.
func (m *MemStore) AppendRow(ctx context.Context, spreadsheetID, sheet string, headers []string, values []any) error {
	return m.AppendRows(ctx, spreadsheetID, sheet, headers, [][]any{values})
}

// AppendRows appends a batch of rows.
func (m *MemStore) AppendRows(ctx context.Context, spreadsheetID, sheet string, headers []string, rows [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(spreadsheetID, sheet)
	if len(m.sheets[key]) == 0 {
		m.sheets[key] = [][]string{append([]string(nil), headers...)}
	}
	for _, r := range rows {
		m.sheets[key] = append(m.sheets[key], toStrings(r))
	}
	return nil
}

// UpdateCell writes a single cell, growing the row as needed.
func (m *MemStore) UpdateCell(ctx context.Context, spreadsheetID, sheet string, row, col int, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(spreadsheetID, sheet)
	values := m.sheets[key]
	for len(values) < row {
		values = append(values, nil)
	}
	for len(values[row-1]) < col {
		values[row-1] = append(values[row-1], "")
	}
	values[row-1][col-1] = fmt.Sprint(value)
	m.sheets[key] = values
	return nil
}

// ReadCell returns a single cell's contents, or "" when out of range.
func (m *MemStore) ReadCell(ctx context.Context, spreadsheetID, sheet string, row, col int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := m.sheets[memKey(spreadsheetID, sheet)]
	if row > len(values) || col > len(values[row-1]) {
		return "", nil
	}
	return values[row-1][col-1], nil
}

// FindRowByKey scans the first column for an exact match.
func (m *MemStore) FindRowByKey(ctx context.Context, spreadsheetID, sheet, key string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, row := range m.sheets[memKey(spreadsheetID, sheet)] {
		if len(row) > 0 && row[0] == key {
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

// DeleteRow blanks a row, matching GoogleStore semantics.
func (m *MemStore) DeleteRow(ctx context.Context, spreadsheetID, sheet string, row int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	values := m.sheets[memKey(spreadsheetID, sheet)]
	if row <= len(values) {
		for i := range values[row-1] {
			values[row-1][i] = ""
		}
	}
	return nil
}

// Headers returns the header row, appending any wanted headers not present.
func (m *MemStore) Headers(ctx context.Context, spreadsheetID, sheet string, want []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(spreadsheetID, sheet)
	values := m.sheets[key]
	if len(values) == 0 {
		values = [][]string{nil}
	}
	headers := values[0]
	for _, w := range want {
		found := false
		for _, h := range headers {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			headers = append(headers, w)
		}
	}
	values[0] = headers
	m.sheets[key] = values
	return append([]string(nil), headers...), nil
}
