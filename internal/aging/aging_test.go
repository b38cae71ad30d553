package aging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cxcontrol/cxcontrol/internal/ledger"
)

var asOf = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func openInvoice(id string, dueDaysAgo int, balance float64) ledger.Document {
	return ledger.Document{
		ID:      id,
		Type:    ledger.TypeInvoice,
		State:   ledger.StatePending,
		DueDate: asOf.AddDate(0, 0, -dueDaysAgo),
		Balance: balance,
	}
}

func bucket(t *testing.T, r Report, label string) BucketSummary {
	t.Helper()
	for _, b := range r.Buckets {
		if b.Label == label {
			return b
		}
	}
	t.Fatalf("bucket %s not found", label)
	return BucketSummary{}
}

func TestBucketBoundariesInclusive(t *testing.T) {
	require.Equal(t, BucketCurrent, BucketFor(0))
	require.Equal(t, BucketCurrent, BucketFor(30))
	require.Equal(t, BucketThirty, BucketFor(31))
	require.Equal(t, BucketThirty, BucketFor(60))
	require.Equal(t, BucketSixty, BucketFor(61))
	require.Equal(t, BucketSixty, BucketFor(90))
	require.Equal(t, BucketNinety, BucketFor(91))
}

func TestBuildPlacesInvoicesByDaysPastDue(t *testing.T) {
	report := Build([]ledger.Document{
		openInvoice("a", 30, 100),
		openInvoice("b", 31, 200),
		openInvoice("c", 120, 300),
	}, asOf)

	require.Equal(t, 600.0, report.GrandTotal)
	require.Equal(t, 1, bucket(t, report, BucketCurrent).Count)
	require.Equal(t, 1, bucket(t, report, BucketThirty).Count)
	require.Equal(t, 0, bucket(t, report, BucketSixty).Count)
	require.Equal(t, 1, bucket(t, report, BucketNinety).Count)
	require.Equal(t, 50.0, bucket(t, report, BucketNinety).Percent)
}

func TestBuildFutureDueDateCountsAsCurrent(t *testing.T) {
	report := Build([]ledger.Document{openInvoice("a", -10, 100)}, asOf)
	current := bucket(t, report, BucketCurrent)
	require.Equal(t, 1, current.Count)
	require.Equal(t, 0, current.Rows[0].DaysPastDue)
}

func TestBuildExcludesNotesSettledAndZeroBalance(t *testing.T) {
	note := openInvoice("nc", 40, 100)
	note.Type = ledger.TypeCreditNote
	settled := openInvoice("paid", 40, 100)
	settled.State = ledger.StatePaid
	zero := openInvoice("zero", 40, 0)

	report := Build([]ledger.Document{note, settled, zero, openInvoice("open", 40, 50)}, asOf)
	require.Equal(t, 50.0, report.GrandTotal)
	require.Equal(t, 1, bucket(t, report, BucketThirty).Count)
}

func TestBuildDeduplicatesByID(t *testing.T) {
	report := Build([]ledger.Document{
		openInvoice("dup", 10, 100),
		openInvoice("dup", 10, 100),
	}, asOf)
	require.Equal(t, 100.0, report.GrandTotal)
}

func TestBuildRowsSortedOldestFirst(t *testing.T) {
	report := Build([]ledger.Document{
		openInvoice("a", 5, 10),
		openInvoice("b", 25, 10),
		openInvoice("c", 15, 10),
	}, asOf)
	rows := bucket(t, report, BucketCurrent).Rows
	require.Equal(t, []string{"b", "c", "a"}, []string{rows[0].InvoiceID, rows[1].InvoiceID, rows[2].InvoiceID})
}

func TestBuildEmptyInput(t *testing.T) {
	report := Build(nil, asOf)
	require.Equal(t, 0.0, report.GrandTotal)
	for _, b := range report.Buckets {
		require.Equal(t, 0.0, b.Percent)
		require.Equal(t, 0, b.Count)
	}
}
