package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

type memoryClientRepo struct {
	items map[string]*Client
}

func newMemoryClientRepo() *memoryClientRepo {
	return &memoryClientRepo{items: make(map[string]*Client)}
}

func (r *memoryClientRepo) List(ctx context.Context, sheetID string) ([]Client, error) {
	out := make([]Client, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memoryClientRepo) Get(ctx context.Context, sheetID, id string) (*Client, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, httpx.NotFoundf("client %s not found", id)
	}
	copied := *c
	return &copied, nil
}

func (r *memoryClientRepo) Insert(ctx context.Context, sheetID string, c Client) error {
	r.items[c.ID] = &c
	return nil
}

func (r *memoryClientRepo) Update(ctx context.Context, sheetID string, c Client) error {
	if _, ok := r.items[c.ID]; !ok {
		return httpx.NotFoundf("client %s not found", c.ID)
	}
	r.items[c.ID] = &c
	return nil
}

func (r *memoryClientRepo) SetActive(ctx context.Context, sheetID, id string, active bool) error {
	c, ok := r.items[id]
	if !ok {
		return httpx.NotFoundf("client %s not found", id)
	}
	c.Active = active
	return nil
}

func (r *memoryClientRepo) SavePortalToken(ctx context.Context, sheetID, id, token string) error {
	c, ok := r.items[id]
	if !ok {
		return httpx.NotFoundf("client %s not found", id)
	}
	c.PortalToken = token
	return nil
}

func newClientService(t *testing.T) (*Service, *memoryClientRepo) {
	t.Helper()
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	repo := newMemoryClientRepo()
	return NewService(repo, node), repo
}

func TestCreateDefaultsCreditDays(t *testing.T) {
	svc, _ := newClientService(t)

	c, err := svc.Create(context.Background(), "sheet-1", CreateInput{Name: "Distribuidora Sur"})
	require.NoError(t, err)
	require.Equal(t, DefaultCreditDays, c.CreditDays)
	require.True(t, c.Active)
	require.False(t, c.CreatedAt.IsZero())
}

func TestCreateKeepsExplicitCreditDays(t *testing.T) {
	svc, _ := newClientService(t)

	c, err := svc.Create(context.Background(), "sheet-1", CreateInput{Name: "Mayorista Centro", CreditDays: 30})
	require.NoError(t, err)
	require.Equal(t, 30, c.CreditDays)
}

func TestCreateRequiresName(t *testing.T) {
	svc, _ := newClientService(t)
	_, err := svc.Create(context.Background(), "sheet-1", CreateInput{})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestToggleFlipsActive(t *testing.T) {
	svc, _ := newClientService(t)
	c, err := svc.Create(context.Background(), "sheet-1", CreateInput{Name: "A"})
	require.NoError(t, err)

	toggled, err := svc.Toggle(context.Background(), "sheet-1", c.ID)
	require.NoError(t, err)
	require.False(t, toggled.Active)

	toggled, err = svc.Toggle(context.Background(), "sheet-1", c.ID)
	require.NoError(t, err)
	require.True(t, toggled.Active)
}

func TestUpdateAppliesOnlyPresentFields(t *testing.T) {
	svc, _ := newClientService(t)
	c, err := svc.Create(context.Background(), "sheet-1", CreateInput{Name: "Original", TaxID: "3-101-000001", CreditDays: 15})
	require.NoError(t, err)

	name := "Renombrada"
	updated, err := svc.Update(context.Background(), "sheet-1", c.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renombrada", updated.Name)
	require.Equal(t, "3-101-000001", updated.TaxID)
	require.Equal(t, 15, updated.CreditDays)
}

func TestUpdateUnknownClient(t *testing.T) {
	svc, _ := newClientService(t)
	name := "X"
	_, err := svc.Update(context.Background(), "sheet-1", "missing", UpdateInput{Name: &name})
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}
