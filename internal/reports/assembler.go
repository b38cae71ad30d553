// Package reports assembles the collection views: weekly follow-up, overdue
// list, per-client summaries, product-type grouping, the full export and the
// aging breakdown. Rendering to PDF or XLSX happens elsewhere; this package
// only produces the typed data.
package reports

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cxcontrol/cxcontrol/internal/aging"
	"github.com/cxcontrol/cxcontrol/internal/clients"
	"github.com/cxcontrol/cxcontrol/internal/ledger"
	"github.com/cxcontrol/cxcontrol/internal/money"
	"github.com/cxcontrol/cxcontrol/internal/profile"
)

// upcomingWindowDays is how far ahead the weekly report looks for invoices
// about to fall due.
const upcomingWindowDays = 7

// Assembler builds report data from the ledger and catalogue.
type Assembler struct {
	ledger  *ledger.Service
	clients *clients.Service
	profile *profile.Service
	now     func() time.Time
}

// NewAssembler builds an Assembler instance.
func NewAssembler(ledgerSvc *ledger.Service, clientsSvc *clients.Service, profileSvc *profile.Service) *Assembler {
	return &Assembler{ledger: ledgerSvc, clients: clientsSvc, profile: profileSvc, now: time.Now}
}

// load fetches documents and clients in parallel.
func (a *Assembler) load(ctx context.Context, sheetID string) ([]ledger.Document, []clients.Client, error) {
	var (
		docs []ledger.Document
		cls  []clients.Client
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = a.ledger.ListDocuments(ctx, sheetID)
		return err
	})
	g.Go(func() error {
		var err error
		cls, err = a.clients.List(ctx, sheetID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return docs, cls, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Truncate(24*time.Hour).Sub(from.Truncate(24*time.Hour)).Hours() / 24)
}

// openInvoice reports whether the document counts toward pending collection.
func openInvoice(d ledger.Document) bool {
	return d.Type == ledger.TypeInvoice && !d.State.Terminal()
}

// WeeklyRow is one invoice in the weekly follow-up.
type WeeklyRow struct {
	InvoiceID   string    `json:"facturaId"`
	Consecutivo string    `json:"consecutivo"`
	ClientName  string    `json:"clienteNombre"`
	IssueDate   time.Time `json:"fecha"`
	DueDate     time.Time `json:"fechaVencimiento"`
	Days        int       `json:"dias"`
	Balance     float64   `json:"saldoPendiente"`
	Overdue     bool      `json:"vencida"`
}

// Weekly is the collection follow-up: everything overdue, worst first, then
// everything falling due within the window, soonest first.
type Weekly struct {
	Overdue      []WeeklyRow `json:"vencidas"`
	Upcoming     []WeeklyRow `json:"proximas"`
	TotalPending float64     `json:"totalPendiente"`
	TotalOverdue float64     `json:"totalVencido"`
	PendingCount int         `json:"facturasPendientes"`
	GeneratedAt  time.Time   `json:"generado"`
}

// BuildWeekly assembles the weekly follow-up report.
func (a *Assembler) BuildWeekly(ctx context.Context, sheetID string) (*Weekly, error) {
	docs, err := a.ledger.ListDocuments(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	now := a.now()
	w := &Weekly{GeneratedAt: now}
	for _, d := range docs {
		if !openInvoice(d) {
			continue
		}
		w.TotalPending += d.Balance
		w.PendingCount++
		if d.DueDate.IsZero() {
			continue
		}
		days := daysBetween(now, d.DueDate)
		row := WeeklyRow{
			InvoiceID:   d.ID,
			Consecutivo: d.Consecutivo,
			ClientName:  d.ClientName,
			IssueDate:   d.IssueDate,
			DueDate:     d.DueDate,
			Balance:     d.Balance,
		}
		switch {
		case days < 0:
			row.Days = -days
			row.Overdue = true
			w.Overdue = append(w.Overdue, row)
			w.TotalOverdue += d.Balance
		case days <= upcomingWindowDays:
			row.Days = days
			w.Upcoming = append(w.Upcoming, row)
		}
	}
	w.TotalPending = money.Round2(w.TotalPending)
	w.TotalOverdue = money.Round2(w.TotalOverdue)
	sort.Slice(w.Overdue, func(i, j int) bool { return w.Overdue[i].Days > w.Overdue[j].Days })
	sort.Slice(w.Upcoming, func(i, j int) bool { return w.Upcoming[i].Days < w.Upcoming[j].Days })
	return w, nil
}

// OverdueReport lists every invoice past due, worst first.
type OverdueReport struct {
	Rows        []WeeklyRow `json:"facturas"`
	Total       float64     `json:"totalVencido"`
	Count       int         `json:"cantidad"`
	GeneratedAt time.Time   `json:"generado"`
}

// BuildOverdue assembles the overdue-invoices report.
func (a *Assembler) BuildOverdue(ctx context.Context, sheetID string) (*OverdueReport, error) {
	weekly, err := a.BuildWeekly(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	return &OverdueReport{
		Rows:        weekly.Overdue,
		Total:       weekly.TotalOverdue,
		Count:       len(weekly.Overdue),
		GeneratedAt: weekly.GeneratedAt,
	}, nil
}

// ClientSummaryRow aggregates one client's position.
type ClientSummaryRow struct {
	ClientID       string  `json:"clienteId"`
	Name           string  `json:"nombre"`
	TaxID          string  `json:"identificacion"`
	TotalDocuments int     `json:"totalFacturas"`
	PendingCount   int     `json:"facturasPendientes"`
	Pending        float64 `json:"montoPendiente"`
	Overdue        float64 `json:"montoVencido"`
	CollectedMonth float64 `json:"cobradoMes"`
	OverduePct     float64 `json:"porcentajeVencido"`
}

// ClientSummary is the per-client breakdown, largest pending balance first.
// Clients with no documents are omitted.
type ClientSummary struct {
	Rows                []ClientSummaryRow `json:"clientes"`
	TotalPending        float64            `json:"totalPendiente"`
	TotalOverdue        float64            `json:"totalVencido"`
	TotalCollectedMonth float64            `json:"totalCobradoMes"`
	PendingCount        int                `json:"facturasPendientes"`
	GeneratedAt         time.Time          `json:"generado"`
}

// BuildClientSummary assembles the per-client summary. Collected-this-month
// counts invoices settled since the first day of the current month.
func (a *Assembler) BuildClientSummary(ctx context.Context, sheetID string) (*ClientSummary, error) {
	docs, cls, err := a.load(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	now := a.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	byClient := make(map[string][]ledger.Document, len(cls))
	for _, d := range docs {
		byClient[d.ClientID] = append(byClient[d.ClientID], d)
	}

	summary := &ClientSummary{GeneratedAt: now}
	for _, c := range cls {
		clientDocs := byClient[c.ID]
		if len(clientDocs) == 0 {
			continue
		}
		row := ClientSummaryRow{
			ClientID:       c.ID,
			Name:           c.Name,
			TaxID:          c.TaxID,
			TotalDocuments: len(clientDocs),
		}
		for _, d := range clientDocs {
			if d.Type != ledger.TypeInvoice {
				continue
			}
			if d.State.Terminal() {
				if d.State == ledger.StatePaid && !d.SettledDate.IsZero() && !d.SettledDate.Before(monthStart) {
					row.CollectedMonth += d.NetCollectible
				}
				continue
			}
			row.PendingCount++
			row.Pending += d.Balance
			if !d.DueDate.IsZero() && d.DueDate.Before(now) {
				row.Overdue += d.Balance
			}
		}
		row.Pending = money.Round2(row.Pending)
		row.Overdue = money.Round2(row.Overdue)
		row.CollectedMonth = money.Round2(row.CollectedMonth)
		if row.Pending > 0 {
			row.OverduePct = money.Round2(row.Overdue / row.Pending * 100)
		}
		summary.Rows = append(summary.Rows, row)
		summary.TotalPending += row.Pending
		summary.TotalOverdue += row.Overdue
		summary.TotalCollectedMonth += row.CollectedMonth
		summary.PendingCount += row.PendingCount
	}
	summary.TotalPending = money.Round2(summary.TotalPending)
	summary.TotalOverdue = money.Round2(summary.TotalOverdue)
	summary.TotalCollectedMonth = money.Round2(summary.TotalCollectedMonth)
	sort.Slice(summary.Rows, func(i, j int) bool {
		return summary.Rows[i].Pending > summary.Rows[j].Pending
	})
	return summary, nil
}

// TypeGroup aggregates open invoices of one product type.
type TypeGroup struct {
	ProductType string  `json:"tipoProducto"`
	Count       int     `json:"cantidad"`
	Total       float64 `json:"total"`
}

// ByType groups pending collection by product type, largest first.
type ByType struct {
	Groups      []TypeGroup `json:"tipos"`
	GrandTotal  float64     `json:"totalGeneral"`
	GeneratedAt time.Time   `json:"generado"`
}

// unspecifiedType labels invoices without a product type.
const unspecifiedType = "Sin especificar"

// BuildByType assembles the product-type grouping.
func (a *Assembler) BuildByType(ctx context.Context, sheetID string) (*ByType, error) {
	docs, err := a.ledger.ListDocuments(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]*TypeGroup)
	report := &ByType{GeneratedAt: a.now()}
	for _, d := range docs {
		if !openInvoice(d) {
			continue
		}
		name := d.ProductType
		if name == "" {
			name = unspecifiedType
		}
		g, ok := groups[name]
		if !ok {
			g = &TypeGroup{ProductType: name}
			groups[name] = g
		}
		g.Count++
		g.Total += d.Balance
		report.GrandTotal += d.Balance
	}
	for _, g := range groups {
		g.Total = money.Round2(g.Total)
		report.Groups = append(report.Groups, *g)
	}
	report.GrandTotal = money.Round2(report.GrandTotal)
	sort.Slice(report.Groups, func(i, j int) bool {
		return report.Groups[i].Total > report.Groups[j].Total
	})
	return report, nil
}

// Export carries everything for the full workbook download.
type Export struct {
	Documents   []ledger.Document `json:"facturas"`
	Clients     []clients.Client  `json:"clientes"`
	GeneratedAt time.Time         `json:"generado"`
}

// BuildExport assembles the full data export.
func (a *Assembler) BuildExport(ctx context.Context, sheetID string) (*Export, error) {
	docs, cls, err := a.load(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	return &Export{Documents: docs, Clients: cls, GeneratedAt: a.now()}, nil
}

// StatementRow is one document line in a client statement.
type StatementRow struct {
	Consecutivo string    `json:"consecutivo"`
	IssueDate   time.Time `json:"fecha"`
	DueDate     time.Time `json:"fechaVencimiento"`
	GrossTotal  float64   `json:"totalFactura"`
	Corfoga     float64   `json:"corfoga"`
	Balance     float64   `json:"saldoPendiente"`
	Days        int       `json:"dias"`
	Overdue     bool      `json:"vencida"`
}

// Statement is one client's account statement.
type Statement struct {
	Client       clients.Client `json:"cliente"`
	Pending      []StatementRow `json:"pendientes"`
	TotalPending float64        `json:"totalPendiente"`
	TotalPaid    float64        `json:"totalPagado"`
	GeneratedAt  time.Time      `json:"generado"`
}

// BuildStatement assembles one client's statement, pending invoices sorted by
// due date.
func (a *Assembler) BuildStatement(ctx context.Context, sheetID, clientID string) (*Statement, error) {
	client, err := a.clients.Get(ctx, sheetID, clientID)
	if err != nil {
		return nil, err
	}
	docs, err := a.ledger.ListDocuments(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	now := a.now()
	st := &Statement{Client: *client, GeneratedAt: now}
	for _, d := range docs {
		if d.ClientID != clientID || d.Type != ledger.TypeInvoice {
			continue
		}
		if d.State.Terminal() {
			if d.State == ledger.StatePaid {
				st.TotalPaid += d.NetCollectible
			}
			continue
		}
		days := daysBetween(now, d.DueDate)
		row := StatementRow{
			Consecutivo: d.Consecutivo,
			IssueDate:   d.IssueDate,
			DueDate:     d.DueDate,
			GrossTotal:  d.GrossTotal,
			Corfoga:     d.Corfoga,
			Balance:     d.Balance,
		}
		if days < 0 {
			row.Days = -days
			row.Overdue = true
		} else {
			row.Days = days
		}
		st.Pending = append(st.Pending, row)
		st.TotalPending += d.Balance
	}
	st.TotalPending = money.Round2(st.TotalPending)
	st.TotalPaid = money.Round2(st.TotalPaid)
	sort.Slice(st.Pending, func(i, j int) bool {
		return st.Pending[i].DueDate.Before(st.Pending[j].DueDate)
	})
	return st, nil
}

// BuildAging assembles the aging breakdown as of now.
func (a *Assembler) BuildAging(ctx context.Context, sheetID string) (*aging.Report, error) {
	docs, err := a.ledger.ListDocuments(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	report := aging.Build(docs, a.now())
	return &report, nil
}

// CompanyProfile returns the configured identity fields for report headers.
func (a *Assembler) CompanyProfile(ctx context.Context, sheetID string) (map[string]string, error) {
	return a.profile.Get(ctx, sheetID)
}
