package clients

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
	"github.com/cxcontrol/cxcontrol/internal/platform/sheets"
)

// SheetClients is the worksheet holding the customer catalogue.
const SheetClients = "Clientes"

// clientHeaders is the base schema. TokenPortal is appended lazily the first
// time a portal link is generated, so rows created earlier keep working.
var clientHeaders = []string{"ID", "Identificacion", "Nombre", "DiasCredito", "Activo", "FechaCreacion"}

const headerPortalToken = "TokenPortal"

const (
	colID = iota + 1
	colTaxID
	colName
	colCreditDays
	colActive
	colCreatedAt
)

// Repository persists clients in a business's spreadsheet.
type Repository struct {
	store sheets.Store
}

// NewRepository builds a Repository instance.
func NewRepository(store sheets.Store) *Repository {
	return &Repository{store: store}
}

func clientFromRow(row sheets.Row) Client {
	days := DefaultCreditDays
	if v := strings.TrimSpace(row["DiasCredito"]); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	created, _ := time.Parse(time.RFC3339, strings.TrimSpace(row["FechaCreacion"]))
	active := true
	if v := strings.TrimSpace(row["Activo"]); v != "" {
		active = strings.EqualFold(v, "TRUE")
	}
	return Client{
		ID:          strings.TrimSpace(row["ID"]),
		TaxID:       strings.TrimSpace(row["Identificacion"]),
		Name:        row["Nombre"],
		CreditDays:  days,
		Active:      active,
		CreatedAt:   created,
		PortalToken: strings.TrimSpace(row[headerPortalToken]),
	}
}

// List returns every client of the business.
func (r *Repository) List(ctx context.Context, sheetID string) ([]Client, error) {
	rows, err := r.store.ListRows(ctx, sheetID, SheetClients)
	if err != nil {
		return nil, fmt.Errorf("%w: list clients: %v", httpx.ErrStore, err)
	}
	out := make([]Client, 0, len(rows))
	for _, row := range rows {
		c := clientFromRow(row)
		if c.ID == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Get returns one client by ID.
func (r *Repository) Get(ctx context.Context, sheetID, id string) (*Client, error) {
	clients, err := r.List(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if clients[i].ID == id {
			return &clients[i], nil
		}
	}
	return nil, httpx.NotFoundf("client %s not found", id)
}

// Insert appends a client row.
func (r *Repository) Insert(ctx context.Context, sheetID string, c Client) error {
	values := []any{
		c.ID,
		c.TaxID,
		c.Name,
		c.CreditDays,
		boolCell(c.Active),
		c.CreatedAt.Format(time.RFC3339),
	}
	if err := r.store.AppendRow(ctx, sheetID, SheetClients, clientHeaders, values); err != nil {
		return fmt.Errorf("%w: insert client: %v", httpx.ErrStore, err)
	}
	return nil
}

// Update rewrites the editable columns of a client row.
func (r *Repository) Update(ctx context.Context, sheetID string, c Client) error {
	rowIdx, err := r.rowIndex(ctx, sheetID, c.ID)
	if err != nil {
		return err
	}
	cells := map[int]any{
		colTaxID:      c.TaxID,
		colName:       c.Name,
		colCreditDays: c.CreditDays,
		colActive:     boolCell(c.Active),
	}
	for col, value := range cells {
		if err := r.store.UpdateCell(ctx, sheetID, SheetClients, rowIdx, col, value); err != nil {
			return fmt.Errorf("%w: update client %s: %v", httpx.ErrStore, c.ID, err)
		}
	}
	return nil
}

// SetActive flips the Activo flag of one client.
func (r *Repository) SetActive(ctx context.Context, sheetID, id string, active bool) error {
	rowIdx, err := r.rowIndex(ctx, sheetID, id)
	if err != nil {
		return err
	}
	if err := r.store.UpdateCell(ctx, sheetID, SheetClients, rowIdx, colActive, boolCell(active)); err != nil {
		return fmt.Errorf("%w: toggle client %s: %v", httpx.ErrStore, id, err)
	}
	return nil
}

// SavePortalToken stores the portal token on the client row, appending the
// TokenPortal column the first time it is needed.
func (r *Repository) SavePortalToken(ctx context.Context, sheetID, id, token string) error {
	rowIdx, err := r.rowIndex(ctx, sheetID, id)
	if err != nil {
		return err
	}
	headers, err := r.store.Headers(ctx, sheetID, SheetClients, append(clientHeaders, headerPortalToken))
	if err != nil {
		return fmt.Errorf("%w: ensure token column: %v", httpx.ErrStore, err)
	}
	col := 0
	for i, h := range headers {
		if h == headerPortalToken {
			col = i + 1
			break
		}
	}
	if col == 0 {
		return fmt.Errorf("%w: token column missing after ensure", httpx.ErrStore)
	}
	if err := r.store.UpdateCell(ctx, sheetID, SheetClients, rowIdx, col, token); err != nil {
		return fmt.Errorf("%w: save portal token for %s: %v", httpx.ErrStore, id, err)
	}
	return nil
}

func (r *Repository) rowIndex(ctx context.Context, sheetID, id string) (int, error) {
	rowIdx, err := r.store.FindRowByKey(ctx, sheetID, SheetClients, id)
	if err != nil {
		if err == sheets.ErrRowNotFound {
			return 0, httpx.NotFoundf("client %s not found", id)
		}
		return 0, fmt.Errorf("%w: locate client %s: %v", httpx.ErrStore, id, err)
	}
	return rowIdx, nil
}

func boolCell(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}
