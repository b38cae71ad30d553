package sheets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreMissingSheetReadsEmpty(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	rows, err := store.ListRows(ctx, "book", "Facturas")
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = store.FindRowByKey(ctx, "book", "Facturas", "x")
	require.ErrorIs(t, err, ErrRowNotFound)
}

func TestMemStoreAppendAndFind(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	headers := []string{"ID", "Nombre"}

	require.NoError(t, store.AppendRow(ctx, "book", "Clientes", headers, []any{"c1", "Norte"}))
	require.NoError(t, store.AppendRow(ctx, "book", "Clientes", headers, []any{"c2", "Sur"}))

	rows, err := store.ListRows(ctx, "book", "Clientes")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Norte", rows[0]["Nombre"])

	row, err := store.FindRowByKey(ctx, "book", "Clientes", "c2")
	require.NoError(t, err)
	require.Equal(t, 3, row) // 1-based, header row included

	require.NoError(t, store.UpdateCell(ctx, "book", "Clientes", row, 2, "Este"))
	cell, err := store.ReadCell(ctx, "book", "Clientes", row, 2)
	require.NoError(t, err)
	require.Equal(t, "Este", cell)
}

func TestMemStoreDeleteBlanksRow(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	headers := []string{"ID", "Monto"}

	require.NoError(t, store.AppendRow(ctx, "book", "Abonos", headers, []any{"p1", 100}))
	row, err := store.FindRowByKey(ctx, "book", "Abonos", "p1")
	require.NoError(t, err)
	require.NoError(t, store.DeleteRow(ctx, "book", "Abonos", row))

	rows, err := store.ListRows(ctx, "book", "Abonos")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "", rows[0]["ID"])

	_, err = store.FindRowByKey(ctx, "book", "Abonos", "p1")
	require.ErrorIs(t, err, ErrRowNotFound)
}

func TestMemStoreHeadersEnsuresMissingColumns(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.AppendRow(ctx, "book", "Clientes", []string{"ID", "Nombre"}, []any{"c1", "Norte"}))

	headers, err := store.Headers(ctx, "book", "Clientes", []string{"TokenPortal"})
	require.NoError(t, err)
	require.Equal(t, []string{"ID", "Nombre", "TokenPortal"}, headers)

	// Short rows tolerate the grown header.
	rows, err := store.ListRows(ctx, "book", "Clientes")
	require.NoError(t, err)
	require.Equal(t, "", rows[0]["TokenPortal"])
}
