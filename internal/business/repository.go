package business

import (
	"context"
	"fmt"
	"strings"

	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
	"github.com/cxcontrol/cxcontrol/internal/platform/sheets"
)

// SheetBusinesses is the worksheet in the master spreadsheet holding the
// registry.
const SheetBusinesses = "Negocios"

var businessHeaders = []string{"ID", "Nombre", "SheetID", "Descripcion", "Activo"}

const (
	colID = iota + 1
	colName
	colSheetID
	colDescription
	colActive
)

// Repository persists the business registry in the master spreadsheet.
type Repository struct {
	store         sheets.Store
	masterSheetID string
}

// NewRepository builds a Repository over the master spreadsheet.
func NewRepository(store sheets.Store, masterSheetID string) *Repository {
	return &Repository{store: store, masterSheetID: masterSheetID}
}

func businessFromRow(row sheets.Row) Business {
	return Business{
		ID:          strings.TrimSpace(row["ID"]),
		Name:        row["Nombre"],
		SheetID:     strings.TrimSpace(row["SheetID"]),
		Description: row["Descripcion"],
		Active:      strings.EqualFold(strings.TrimSpace(row["Activo"]), "TRUE"),
	}
}

// List returns every registered business.
func (r *Repository) List(ctx context.Context) ([]Business, error) {
	rows, err := r.store.ListRows(ctx, r.masterSheetID, SheetBusinesses)
	if err != nil {
		return nil, fmt.Errorf("%w: list businesses: %v", httpx.ErrStore, err)
	}
	out := make([]Business, 0, len(rows))
	for _, row := range rows {
		b := businessFromRow(row)
		if b.ID == "" {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Get returns one business by ID.
func (r *Repository) Get(ctx context.Context, id string) (*Business, error) {
	businesses, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range businesses {
		if businesses[i].ID == id {
			return &businesses[i], nil
		}
	}
	return nil, httpx.NotFoundf("business %s not found", id)
}

// Insert appends a business row.
func (r *Repository) Insert(ctx context.Context, b Business) error {
	values := []any{b.ID, b.Name, b.SheetID, b.Description, activeCell(b.Active)}
	if err := r.store.AppendRow(ctx, r.masterSheetID, SheetBusinesses, businessHeaders, values); err != nil {
		return fmt.Errorf("%w: insert business: %v", httpx.ErrStore, err)
	}
	return nil
}

// Update rewrites an existing business row in place.
func (r *Repository) Update(ctx context.Context, b Business) error {
	rowIdx, err := r.rowIndex(ctx, b.ID)
	if err != nil {
		return err
	}
	cells := map[int]any{
		colName:        b.Name,
		colSheetID:     b.SheetID,
		colDescription: b.Description,
		colActive:      activeCell(b.Active),
	}
	for col, value := range cells {
		if err := r.store.UpdateCell(ctx, r.masterSheetID, SheetBusinesses, rowIdx, col, value); err != nil {
			return fmt.Errorf("%w: update business %s: %v", httpx.ErrStore, b.ID, err)
		}
	}
	return nil
}

// Delete removes a business from the registry.
func (r *Repository) Delete(ctx context.Context, id string) error {
	rowIdx, err := r.rowIndex(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.DeleteRow(ctx, r.masterSheetID, SheetBusinesses, rowIdx); err != nil {
		return fmt.Errorf("%w: delete business %s: %v", httpx.ErrStore, id, err)
	}
	return nil
}

// SetActive flips the Activo flag of one row.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	rowIdx, err := r.rowIndex(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.UpdateCell(ctx, r.masterSheetID, SheetBusinesses, rowIdx, colActive, activeCell(active)); err != nil {
		return fmt.Errorf("%w: activate business %s: %v", httpx.ErrStore, id, err)
	}
	return nil
}

func (r *Repository) rowIndex(ctx context.Context, id string) (int, error) {
	rowIdx, err := r.store.FindRowByKey(ctx, r.masterSheetID, SheetBusinesses, id)
	if err != nil {
		if err == sheets.ErrRowNotFound {
			return 0, httpx.NotFoundf("business %s not found", id)
		}
		return 0, fmt.Errorf("%w: locate business %s: %v", httpx.ErrStore, id, err)
	}
	return rowIdx, nil
}

func activeCell(active bool) string {
	if active {
		return "TRUE"
	}
	return "FALSE"
}
