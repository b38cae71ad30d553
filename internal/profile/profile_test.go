package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryConfig struct {
	values map[string]string
}

func (m *memoryConfig) Load(ctx context.Context, sheetID string) (map[string]string, error) {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *memoryConfig) Set(ctx context.Context, sheetID, key, value string) error {
	m.values[key] = value
	return nil
}

func TestSavePreservesInternalKeys(t *testing.T) {
	repo := &memoryConfig{values: map[string]string{
		KeyDashboardToken: "tok-123",
		KeyDashboardCode:  "hashed",
		"nombre":          "Vieja",
	}}
	svc := NewService(repo)

	err := svc.Save(context.Background(), "sheet-1", map[string]string{
		"nombre":   "Carnes La Montaña",
		"telefono": "2222-0000",
	})
	require.NoError(t, err)

	require.Equal(t, "tok-123", repo.values[KeyDashboardToken])
	require.Equal(t, "hashed", repo.values[KeyDashboardCode])
	require.Equal(t, "Carnes La Montaña", repo.values["nombre"])
	require.Equal(t, "2222-0000", repo.values["telefono"])
	// Fields absent from the payload are cleared, matching a full-form save.
	require.Equal(t, "", repo.values["email"])
}

func TestGetOmitsInternalKeys(t *testing.T) {
	repo := &memoryConfig{values: map[string]string{
		"nombre":          "Empresa",
		KeyDashboardToken: "tok",
		KeyDashboardCode:  "code",
	}}
	svc := NewService(repo)

	config, err := svc.Get(context.Background(), "sheet-1")
	require.NoError(t, err)
	require.Equal(t, "Empresa", config["nombre"])
	require.NotContains(t, config, KeyDashboardToken)
	require.NotContains(t, config, KeyDashboardCode)
}

func TestCompanyName(t *testing.T) {
	repo := &memoryConfig{values: map[string]string{"nombre": "Distribuidora CR"}}
	svc := NewService(repo)
	name, err := svc.CompanyName(context.Background(), "sheet-1")
	require.NoError(t, err)
	require.Equal(t, "Distribuidora CR", name)
}
