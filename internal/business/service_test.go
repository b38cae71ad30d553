package business

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

type memoryRegistry struct {
	items []Business
}

func (r *memoryRegistry) List(ctx context.Context) ([]Business, error) {
	out := make([]Business, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *memoryRegistry) Get(ctx context.Context, id string) (*Business, error) {
	for i := range r.items {
		if r.items[i].ID == id {
			b := r.items[i]
			return &b, nil
		}
	}
	return nil, httpx.NotFoundf("business %s not found", id)
}

func (r *memoryRegistry) Insert(ctx context.Context, b Business) error {
	r.items = append(r.items, b)
	return nil
}

func (r *memoryRegistry) Update(ctx context.Context, b Business) error {
	for i := range r.items {
		if r.items[i].ID == b.ID {
			r.items[i] = b
			return nil
		}
	}
	return httpx.NotFoundf("business %s not found", b.ID)
}

func (r *memoryRegistry) Delete(ctx context.Context, id string) error {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return httpx.NotFoundf("business %s not found", id)
}

func (r *memoryRegistry) SetActive(ctx context.Context, id string, active bool) error {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Active = active
			return nil
		}
	}
	return httpx.NotFoundf("business %s not found", id)
}

func newRegistryService(t *testing.T) (*Service, *memoryRegistry) {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	repo := &memoryRegistry{}
	return NewService(repo, node), repo
}

func TestCreateFirstBusinessBecomesActive(t *testing.T) {
	svc, _ := newRegistryService(t)

	first, err := svc.Create(context.Background(), CreateInput{Name: "Carnicería Norte", SheetID: "sheet-a"})
	require.NoError(t, err)
	require.True(t, first.Active)

	second, err := svc.Create(context.Background(), CreateInput{Name: "Carnicería Sur", SheetID: "sheet-b"})
	require.NoError(t, err)
	require.False(t, second.Active)

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.ID, current.ID)
}

func TestActivateSwitchesDefault(t *testing.T) {
	svc, _ := newRegistryService(t)

	first, err := svc.Create(context.Background(), CreateInput{Name: "A", SheetID: "sheet-a"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateInput{Name: "B", SheetID: "sheet-b"})
	require.NoError(t, err)

	_, err = svc.Activate(context.Background(), second.ID)
	require.NoError(t, err)

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, second.ID, current.ID)

	got, err := svc.Get(context.Background(), first.ID)
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestCurrentFallsBackToFirst(t *testing.T) {
	svc, repo := newRegistryService(t)

	b, err := svc.Create(context.Background(), CreateInput{Name: "A", SheetID: "sheet-a"})
	require.NoError(t, err)
	// Rows written before the Activo column existed read back as inactive.
	require.NoError(t, repo.SetActive(context.Background(), b.ID, false))

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, b.ID, current.ID)
}

func TestCurrentEmptyRegistry(t *testing.T) {
	svc, _ := newRegistryService(t)
	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.Nil(t, current)
}

func TestActivateUnknownBusiness(t *testing.T) {
	svc, _ := newRegistryService(t)
	_, err := svc.Activate(context.Background(), "missing")
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestFromContextWithoutResolution(t *testing.T) {
	_, err := FromContext(context.Background())
	require.True(t, errors.Is(err, httpx.ErrValidation))
}
