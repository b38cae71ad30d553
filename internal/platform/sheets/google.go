package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// GoogleStore implements Store against the Google Sheets API.
type GoogleStore struct {
	svc    *gsheets.Service
	logger *slog.Logger
}

// NewGoogleStore builds a store from service-account credentials. It reads
// GOOGLE_APPLICATION_CREDENTIALS (a file path) or GOOGLE_CREDENTIALS (inline
// JSON), the same resolution order the deployment scripts rely on.
func NewGoogleStore(ctx context.Context, logger *slog.Logger) (*GoogleStore, error) {
	var creds []byte
	var err error
	if file := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); file != "" {
		creds, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("sheets: read credentials file: %w", err)
		}
	} else if inline := os.Getenv("GOOGLE_CREDENTIALS"); inline != "" {
		creds = []byte(inline)
	} else {
		return nil, fmt.Errorf("sheets: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")
	}

	config, err := google.JWTConfigFromJSON(creds, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse credentials: %w", err)
	}

	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return &GoogleStore{svc: svc, logger: logger}, nil
}

func (g *GoogleStore) readAll(ctx context.Context, spreadsheetID, sheet string) ([][]any, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		if isMissingSheet(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("sheets: get %s: %w", sheet, err)
	}
	return resp.Values, nil
}

// ListRows reads the worksheet and zips each data row against the header row.
func (g *GoogleStore) ListRows(ctx context.Context, spreadsheetID, sheet string) ([]Row, error) {
	values, err := g.readAll(ctx, spreadsheetID, sheet)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, nil
	}
	headers := make([]string, len(values[0]))
	for i, h := range values[0] {
		headers[i] = fmt.Sprint(h)
	}
	rows := make([]Row, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := Row{}
		for i, h := range headers {
			if i < len(raw) {
				row[h] = fmt.Sprint(raw[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (g *GoogleStore) ensureSheet(ctx context.Context, spreadsheetID, sheet string, headers []string) error {
	values, err := g.readAll(ctx, spreadsheetID, sheet)
	if err != nil {
		return err
	}
	if len(values) > 0 {
		return nil
	}
	// Worksheet is absent or has no header row yet.
	_, err = g.svc.Spreadsheets.BatchUpdate(spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: sheet}},
		}},
	}).Context(ctx).Do()
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("sheets: add sheet %s: %w", sheet, err)
	}
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	return g.append(ctx, spreadsheetID, sheet, [][]any{header})
}

func (g *GoogleStore) append(ctx context.Context, spreadsheetID, sheet string, rows [][]any) error {
	_, err := g.svc.Spreadsheets.Values.Append(spreadsheetID, sheet, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: append to %s: %w", sheet, err)
	}
	return nil
}

// AppendRow appends one row, creating the worksheet when needed.
func (g *GoogleStore) AppendRow(ctx context.Context, spreadsheetID, sheet string, headers []string, values []any) error {
	return g.AppendRows(ctx, spreadsheetID, sheet, headers, [][]any{values})
}

// AppendRows appends a batch of rows, creating the worksheet when needed.
func (g *GoogleStore) AppendRows(ctx context.Context, spreadsheetID, sheet string, headers []string, rows [][]any) error {
	if err := g.ensureSheet(ctx, spreadsheetID, sheet, headers); err != nil {
		return err
	}
	return g.append(ctx, spreadsheetID, sheet, rows)
}

// UpdateCell writes one cell in A1 notation derived from the row/col indexes.
func (g *GoogleStore) UpdateCell(ctx context.Context, spreadsheetID, sheet string, row, col int, value any) error {
	rng := fmt.Sprintf("%s!%s%d", sheet, columnLetter(col), row)
	_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheets.ValueRange{Values: [][]any{{value}}}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: update %s: %w", rng, err)
	}
	return nil
}

// ReadCell returns the raw contents of a single cell.
func (g *GoogleStore) ReadCell(ctx context.Context, spreadsheetID, sheet string, row, col int) (string, error) {
	rng := fmt.Sprintf("%s!%s%d", sheet, columnLetter(col), row)
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets: read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprint(resp.Values[0][0]), nil
}

// FindRowByKey scans column A for an exact match.
func (g *GoogleStore) FindRowByKey(ctx context.Context, spreadsheetID, sheet, key string) (int, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		if isMissingSheet(err) {
			return 0, ErrRowNotFound
		}
		return 0, fmt.Errorf("sheets: scan %s: %w", sheet, err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == key {
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

// DeleteRow clears a row by writing empty strings across its width. The
// Sheets API dimension delete needs the numeric sheet ID, so rows are
// blanked instead; ListRows callers skip rows with an empty key column.
func (g *GoogleStore) DeleteRow(ctx context.Context, spreadsheetID, sheet string, row int) error {
	values, err := g.readAll(ctx, spreadsheetID, sheet)
	if err != nil {
		return err
	}
	width := 1
	if len(values) > 0 {
		width = len(values[0])
	}
	blank := make([]any, width)
	for i := range blank {
		blank[i] = ""
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, row, columnLetter(width), row)
	_, err = g.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheets.ValueRange{Values: [][]any{blank}}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: clear %s: %w", rng, err)
	}
	return nil
}

// Headers returns the header row, appending wanted headers that are missing.
func (g *GoogleStore) Headers(ctx context.Context, spreadsheetID, sheet string, want []string) ([]string, error) {
	values, err := g.readAll(ctx, spreadsheetID, sheet)
	if err != nil {
		return nil, err
	}
	var headers []string
	if len(values) > 0 {
		for _, h := range values[0] {
			headers = append(headers, fmt.Sprint(h))
		}
	}
	for _, w := range want {
		found := false
		for _, h := range headers {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			if err := g.UpdateCell(ctx, spreadsheetID, sheet, 1, len(headers)+1, w); err != nil {
				return nil, err
			}
			headers = append(headers, w)
		}
	}
	return headers, nil
}

func isMissingSheet(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Unable to parse range") || strings.Contains(msg, "not found")
}

func columnLetter(col int) string {
	s := ""
	for col > 0 {
		col--
		s = string(rune('A'+col%26)) + s
		col /= 26
	}
	return s
}
