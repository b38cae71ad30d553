// Package aging buckets open invoices by how many days past due they are,
// the standard accounts-receivable aging analysis.
package aging

import (
	"sort"
	"time"

	"github.com/cxcontrol/cxcontrol/internal/ledger"
	"github.com/cxcontrol/cxcontrol/internal/money"
)

// Bucket labels, oldest last. Upper bounds are inclusive: an invoice 30 days
// past due still sits in the first bucket, 31 days moves it to the second.
const (
	BucketCurrent = "0-30"
	BucketThirty  = "31-60"
	BucketSixty   = "61-90"
	BucketNinety  = "90+"
)

// BucketOrder is the presentation order of the buckets.
var BucketOrder = []string{BucketCurrent, BucketThirty, BucketSixty, BucketNinety}

// Row is one open invoice inside a bucket.
type Row struct {
	InvoiceID   string    `json:"facturaId"`
	Consecutivo string    `json:"consecutivo"`
	ClientID    string    `json:"clienteId"`
	ClientName  string    `json:"clienteNombre"`
	DueDate     time.Time `json:"fechaVencimiento"`
	DaysPastDue int       `json:"diasVencido"`
	Balance     float64   `json:"saldoPendiente"`
}

// BucketSummary aggregates one bucket.
type BucketSummary struct {
	Label    string  `json:"rango"`
	Rows     []Row   `json:"facturas"`
	Subtotal float64 `json:"subtotal"`
	Percent  float64 `json:"porcentaje"`
	Count    int     `json:"cantidad"`
}

// Report is the full aging breakdown.
type Report struct {
	Buckets    []BucketSummary `json:"rangos"`
	GrandTotal float64         `json:"total"`
	AsOf       time.Time       `json:"fechaCorte"`
}

// BucketFor returns the label for a number of days past due. Invoices not yet
// due (negative days) count as current.
func BucketFor(daysPastDue int) string {
	switch {
	case daysPastDue <= 30:
		return BucketCurrent
	case daysPastDue <= 60:
		return BucketThirty
	case daysPastDue <= 90:
		return BucketSixty
	default:
		return BucketNinety
	}
}

// Build produces the aging report for the given documents as of a reference
// date. Credit notes, settled documents, zero balances and duplicate IDs are
// excluded.
func Build(docs []ledger.Document, asOf time.Time) Report {
	day := asOf.Truncate(24 * time.Hour)
	byBucket := make(map[string][]Row, len(BucketOrder))
	seen := make(map[string]bool, len(docs))
	var grand float64

	for _, d := range docs {
		if d.Type != ledger.TypeInvoice || d.State.Terminal() || d.Balance <= 0 {
			continue
		}
		if d.ID == "" || seen[d.ID] {
			continue
		}
		seen[d.ID] = true

		days := 0
		if !d.DueDate.IsZero() {
			days = int(day.Sub(d.DueDate.Truncate(24*time.Hour)).Hours() / 24)
		}
		if days < 0 {
			days = 0
		}
		label := BucketFor(days)
		byBucket[label] = append(byBucket[label], Row{
			InvoiceID:   d.ID,
			Consecutivo: d.Consecutivo,
			ClientID:    d.ClientID,
			ClientName:  d.ClientName,
			DueDate:     d.DueDate,
			DaysPastDue: days,
			Balance:     d.Balance,
		})
		grand += d.Balance
	}
	grand = money.Round2(grand)

	report := Report{AsOf: asOf, GrandTotal: grand}
	for _, label := range BucketOrder {
		rows := byBucket[label]
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].DaysPastDue > rows[j].DaysPastDue
		})
		var subtotal float64
		for _, row := range rows {
			subtotal += row.Balance
		}
		subtotal = money.Round2(subtotal)
		pct := 0.0
		if grand > 0 {
			pct = money.Round2(subtotal / grand * 100)
		}
		report.Buckets = append(report.Buckets, BucketSummary{
			Label:    label,
			Rows:     rows,
			Subtotal: subtotal,
			Percent:  pct,
			Count:    len(rows),
		})
	}
	return report
}
