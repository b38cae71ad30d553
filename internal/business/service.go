package business

import (
	"context"

	"github.com/bwmarrin/snowflake"

	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

// RepositoryPort defines registry data access.
type RepositoryPort interface {
	List(ctx context.Context) ([]Business, error)
	Get(ctx context.Context, id string) (*Business, error)
	Insert(ctx context.Context, b Business) error
	Update(ctx context.Context, b Business) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// Service handles registry business logic.
type Service struct {
	repo RepositoryPort
	node *snowflake.Node
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, node *snowflake.Node) *Service {
	return &Service{repo: repo, node: node}
}

// CreateInput carries the fields accepted when registering a business.
type CreateInput struct {
	Name        string `json:"nombre" validate:"required"`
	SheetID     string `json:"sheetId" validate:"required"`
	Description string `json:"descripcion"`
}

// List returns every registered business.
func (s *Service) List(ctx context.Context) ([]Business, error) {
	return s.repo.List(ctx)
}

// Get returns one business by ID.
func (s *Service) Get(ctx context.Context, id string) (*Business, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new business. The first business registered becomes the
// default active one.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Business, error) {
	if input.Name == "" || input.SheetID == "" {
		return nil, httpx.Validationf("name and sheetId are required")
	}
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	b := Business{
		ID:          s.node.Generate().String(),
		Name:        input.Name,
		SheetID:     input.SheetID,
		Description: input.Description,
		Active:      len(existing) == 0,
	}
	if err := s.repo.Insert(ctx, b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateInput carries editable registry fields. Pointer fields are applied
// only when present.
type UpdateInput struct {
	Name        *string `json:"nombre"`
	SheetID     *string `json:"sheetId"`
	Description *string `json:"descripcion"`
}

// Update edits a business entry.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Business, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		b.Name = *input.Name
	}
	if input.SheetID != nil {
		b.SheetID = *input.SheetID
	}
	if input.Description != nil {
		b.Description = *input.Description
	}
	if err := s.repo.Update(ctx, *b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a business from the registry. The backing spreadsheet is
// left untouched.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Activate marks one business as the default and clears the flag on the
// rest. Requests carrying an explicit business header bypass the default.
func (s *Service) Activate(ctx context.Context, id string) (*Business, error) {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range all {
		if b.Active && b.ID != id {
			if err := s.repo.SetActive(ctx, b.ID, false); err != nil {
				return nil, err
			}
		}
	}
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return nil, err
	}
	target.Active = true
	return target, nil
}

// Current returns the default active business. When no row carries the flag
// the first registered business wins; an empty registry returns nil.
func (s *Service) Current(ctx context.Context) (*Business, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Active {
			return &all[i], nil
		}
	}
	if len(all) > 0 {
		return &all[0], nil
	}
	return nil, nil
}
