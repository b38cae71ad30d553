// Package profile stores per-business settings as key-value rows in the
// Configuracion worksheet: company identity fields plus internal keys like
// the dashboard access credentials.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
	"github.com/cxcontrol/cxcontrol/internal/platform/sheets"
)

// SheetConfig is the worksheet holding the settings.
const SheetConfig = "Configuracion"

var configHeaders = []string{"Campo", "Valor"}

// CompanyFields are the caller-editable keys. Saving replaces exactly these;
// any other stored key (dashboard credentials, future flags) is preserved.
var CompanyFields = []string{"nombre", "cedula", "descripcion", "telefono", "email", "direccion", "mensaje"}

// Internal keys managed by the dashboard access flow.
const (
	KeyDashboardToken = "dashboardToken"
	KeyDashboardCode  = "dashboardCodigo"
)

// Repository persists settings in a business's spreadsheet.
type Repository struct {
	store sheets.Store
}

// NewRepository builds a Repository instance.
func NewRepository(store sheets.Store) *Repository {
	return &Repository{store: store}
}

// Load returns every stored key-value pair.
func (r *Repository) Load(ctx context.Context, sheetID string) (map[string]string, error) {
	rows, err := r.store.ListRows(ctx, sheetID, SheetConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: load config: %v", httpx.ErrStore, err)
	}
	config := make(map[string]string, len(rows))
	for _, row := range rows {
		key := strings.TrimSpace(row["Campo"])
		if key == "" {
			continue
		}
		config[key] = row["Valor"]
	}
	return config, nil
}

// Set writes one key, updating the existing row or appending a new one.
func (r *Repository) Set(ctx context.Context, sheetID, key, value string) error {
	rowIdx, err := r.store.FindRowByKey(ctx, sheetID, SheetConfig, key)
	switch err {
	case nil:
		if err := r.store.UpdateCell(ctx, sheetID, SheetConfig, rowIdx, 2, value); err != nil {
			return fmt.Errorf("%w: set config %s: %v", httpx.ErrStore, key, err)
		}
		return nil
	case sheets.ErrRowNotFound:
		if err := r.store.AppendRow(ctx, sheetID, SheetConfig, configHeaders, []any{key, value}); err != nil {
			return fmt.Errorf("%w: append config %s: %v", httpx.ErrStore, key, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: locate config %s: %v", httpx.ErrStore, key, err)
	}
}

// Service handles settings business logic.
type Service struct {
	repo RepositoryPort
}

// RepositoryPort defines settings data access.
type RepositoryPort interface {
	Load(ctx context.Context, sheetID string) (map[string]string, error)
	Set(ctx context.Context, sheetID, key, value string) error
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns the company-facing settings, omitting internal keys.
func (s *Service) Get(ctx context.Context, sheetID string) (map[string]string, error) {
	config, err := s.repo.Load(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	delete(config, KeyDashboardToken)
	delete(config, KeyDashboardCode)
	return config, nil
}

// CompanyName returns the configured business display name.
func (s *Service) CompanyName(ctx context.Context, sheetID string) (string, error) {
	config, err := s.repo.Load(ctx, sheetID)
	if err != nil {
		return "", err
	}
	return config["nombre"], nil
}

// Save replaces the company fields with the given values. Keys outside
// CompanyFields are never touched.
func (s *Service) Save(ctx context.Context, sheetID string, values map[string]string) error {
	for _, field := range CompanyFields {
		if err := s.repo.Set(ctx, sheetID, field, values[field]); err != nil {
			return err
		}
	}
	return nil
}

// SetInternal writes one internal key such as the dashboard credentials.
func (s *Service) SetInternal(ctx context.Context, sheetID, key, value string) error {
	return s.repo.Set(ctx, sheetID, key, value)
}

// GetInternal reads one stored key, empty when absent.
func (s *Service) GetInternal(ctx context.Context, sheetID, key string) (string, error) {
	config, err := s.repo.Load(ctx, sheetID)
	if err != nil {
		return "", err
	}
	return config[key], nil
}
