package clients

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

// RepositoryPort defines client data access.
type RepositoryPort interface {
	List(ctx context.Context, sheetID string) ([]Client, error)
	Get(ctx context.Context, sheetID, id string) (*Client, error)
	Insert(ctx context.Context, sheetID string, c Client) error
	Update(ctx context.Context, sheetID string, c Client) error
	SetActive(ctx context.Context, sheetID, id string, active bool) error
	SavePortalToken(ctx context.Context, sheetID, id, token string) error
}

// Service handles client catalogue business logic.
type Service struct {
	repo RepositoryPort
	node *snowflake.Node
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, node *snowflake.Node) *Service {
	return &Service{repo: repo, node: node, now: time.Now}
}

// CreateInput carries the fields accepted when registering a client.
type CreateInput struct {
	TaxID      string `json:"identificacion"`
	Name       string `json:"nombre" validate:"required"`
	CreditDays int    `json:"diasVencimiento" validate:"gte=0"`
}

// List returns every client.
func (s *Service) List(ctx context.Context, sheetID string) ([]Client, error) {
	return s.repo.List(ctx, sheetID)
}

// Get returns one client by ID.
func (s *Service) Get(ctx context.Context, sheetID, id string) (*Client, error) {
	return s.repo.Get(ctx, sheetID, id)
}

// Create registers a new active client. A zero credit term falls back to the
// default.
func (s *Service) Create(ctx context.Context, sheetID string, input CreateInput) (*Client, error) {
	if input.Name == "" {
		return nil, httpx.Validationf("name is required")
	}
	days := input.CreditDays
	if days <= 0 {
		days = DefaultCreditDays
	}
	c := Client{
		ID:         s.node.Generate().String(),
		TaxID:      input.TaxID,
		Name:       input.Name,
		CreditDays: days,
		Active:     true,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Insert(ctx, sheetID, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateInput carries editable client fields. Pointer fields are applied only
// when present.
type UpdateInput struct {
	TaxID      *string `json:"identificacion"`
	Name       *string `json:"nombre"`
	CreditDays *int    `json:"diasVencimiento"`
	Active     *bool   `json:"activo"`
}

// Update edits a client entry.
func (s *Service) Update(ctx context.Context, sheetID, id string, input UpdateInput) (*Client, error) {
	c, err := s.repo.Get(ctx, sheetID, id)
	if err != nil {
		return nil, err
	}
	if input.TaxID != nil {
		c.TaxID = *input.TaxID
	}
	if input.Name != nil {
		c.Name = *input.Name
	}
	if input.CreditDays != nil && *input.CreditDays > 0 {
		c.CreditDays = *input.CreditDays
	}
	if input.Active != nil {
		c.Active = *input.Active
	}
	if err := s.repo.Update(ctx, sheetID, *c); err != nil {
		return nil, err
	}
	return c, nil
}

// Toggle flips a client between active and inactive.
func (s *Service) Toggle(ctx context.Context, sheetID, id string) (*Client, error) {
	c, err := s.repo.Get(ctx, sheetID, id)
	if err != nil {
		return nil, err
	}
	c.Active = !c.Active
	if err := s.repo.SetActive(ctx, sheetID, id, c.Active); err != nil {
		return nil, err
	}
	return c, nil
}

// SavePortalToken records the client's portal token for reference.
func (s *Service) SavePortalToken(ctx context.Context, sheetID, id, token string) error {
	return s.repo.SavePortalToken(ctx, sheetID, id, token)
}
