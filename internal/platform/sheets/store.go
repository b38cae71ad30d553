// Package sheets provides the row-oriented table store backing every entity.
// Each business owns one spreadsheet; worksheets inside it act as tables with
// a fixed header row and positionally addressed columns.
package sheets

import (
	"context"
	"errors"
)

// ErrRowNotFound indicates a key lookup matched no row.
var ErrRowNotFound = errors.New("sheets: row not found")

// Row is a single data row keyed by header name. Values are raw cell
// contents; callers normalise them at the entity boundary.
type Row map[string]string

// Store is the table-store contract the domain layer depends on. Row indexes
// are 1-based and include the header row, matching the spreadsheet API.
type Store interface {
	// ListRows returns every data row of the named worksheet. A missing or
	// empty worksheet yields an empty slice, not an error.
	ListRows(ctx context.Context, spreadsheetID, sheet string) ([]Row, error)
	// AppendRow appends one row of ordered values, creating the worksheet
	// with the given headers when absent.
	AppendRow(ctx context.Context, spreadsheetID, sheet string, headers []string, values []any) error
	// AppendRows appends a batch of rows in one call.
	AppendRows(ctx context.Context, spreadsheetID, sheet string, headers []string, rows [][]any) error
	// UpdateCell writes a single cell by 1-based row and column index.
	UpdateCell(ctx context.Context, spreadsheetID, sheet string, row, col int, value any) error
	// FindRowByKey scans column A for the key and returns the 1-based row
	// index, or ErrRowNotFound.
	FindRowByKey(ctx context.Context, spreadsheetID, sheet, key string) (int, error)
	// ReadCell returns the raw contents of a single cell.
	ReadCell(ctx context.Context, spreadsheetID, sheet string, row, col int) (string, error)
	// DeleteRow removes a row by 1-based index.
	DeleteRow(ctx context.Context, spreadsheetID, sheet string, row int) error
	// Headers returns the header row of the worksheet, appending any of the
	// wanted headers that are missing.
	Headers(ctx context.Context, spreadsheetID, sheet string, want []string) ([]string, error)
}
