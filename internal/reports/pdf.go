package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/cxcontrol/cxcontrol/internal/money"
	"github.com/cxcontrol/cxcontrol/internal/portal"
	"github.com/cxcontrol/cxcontrol/report"
)

// PDFRenderer turns assembled reports into PDF documents via Gotenberg.
type PDFRenderer struct {
	client    *report.Client
	assembler *Assembler
}

// NewPDFRenderer builds a PDFRenderer instance.
func NewPDFRenderer(client *report.Client, assembler *Assembler) *PDFRenderer {
	return &PDFRenderer{client: client, assembler: assembler}
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

func dueLabel(days int, overdue bool) string {
	if overdue {
		return fmt.Sprintf("Vencida (%dd)", days)
	}
	return fmt.Sprintf("Vence en %dd", days)
}

func (r *PDFRenderer) companyTitle(ctx context.Context, sheetID, base string) string {
	config, err := r.assembler.CompanyProfile(ctx, sheetID)
	if err != nil || config["nombre"] == "" {
		return base
	}
	return base + " - " + config["nombre"]
}

// Weekly renders the weekly follow-up report.
func (r *PDFRenderer) Weekly(ctx context.Context, sheetID string) ([]byte, error) {
	w, err := r.assembler.BuildWeekly(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(w.Overdue)+len(w.Upcoming))
	for _, row := range w.Overdue {
		rows = append(rows, []string{
			row.Consecutivo, row.ClientName, formatDay(row.IssueDate), formatDay(row.DueDate),
			fmt.Sprintf("%d", row.Days), money.FormatCRC(row.Balance), dueLabel(row.Days, true),
		})
	}
	for _, row := range w.Upcoming {
		rows = append(rows, []string{
			row.Consecutivo, row.ClientName, formatDay(row.IssueDate), formatDay(row.DueDate),
			fmt.Sprintf("%d", row.Days), money.FormatCRC(row.Balance), dueLabel(row.Days, false),
		})
	}
	doc := report.Document{
		Title:    r.companyTitle(ctx, sheetID, "Reporte Semanal CxC"),
		Subtitle: "Generado: " + w.GeneratedAt.Format("02/01/2006 15:04"),
		Summary: []string{
			"Total por Cobrar: " + money.FormatCRC(w.TotalPending),
			fmt.Sprintf("Facturas Pendientes: %d", w.PendingCount),
			fmt.Sprintf("Facturas Vencidas: %d (%s)", len(w.Overdue), money.FormatCRC(w.TotalOverdue)),
		},
		Tables: []report.Table{{
			Headers:     []string{"Consecutivo", "Cliente", "Fecha", "Vencimiento", "Días", "Monto (CRC)", "Estado"},
			Rows:        rows,
			NumericCols: []int{4, 5},
		}},
	}
	return r.client.RenderHTML(ctx, doc.HTML())
}

// Overdue renders the overdue-invoices report.
func (r *PDFRenderer) Overdue(ctx context.Context, sheetID string) ([]byte, error) {
	o, err := r.assembler.BuildOverdue(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(o.Rows))
	for _, row := range o.Rows {
		rows = append(rows, []string{
			row.Consecutivo, row.ClientName, formatDay(row.DueDate),
			fmt.Sprintf("%d", row.Days), money.FormatCRC(row.Balance),
		})
	}
	doc := report.Document{
		Title:    r.companyTitle(ctx, sheetID, "Facturas Vencidas"),
		Subtitle: "Generado: " + o.GeneratedAt.Format("02/01/2006 15:04"),
		Summary: []string{
			fmt.Sprintf("Total Facturas Vencidas: %d", o.Count),
			"Monto Total Vencido: " + money.FormatCRC(o.Total),
		},
		Tables: []report.Table{{
			Headers:     []string{"Consecutivo", "Cliente", "Vencimiento", "Días Atraso", "Monto (CRC)"},
			Rows:        rows,
			NumericCols: []int{3, 4},
		}},
	}
	return r.client.RenderHTML(ctx, doc.HTML())
}

// ClientSummary renders the per-client summary.
func (r *PDFRenderer) ClientSummary(ctx context.Context, sheetID string) ([]byte, error) {
	s, err := r.assembler.BuildClientSummary(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(s.Rows)+1)
	for _, row := range s.Rows {
		rows = append(rows, []string{
			row.Name, row.TaxID, fmt.Sprintf("%d", row.PendingCount),
			money.FormatCRC(row.Pending), money.FormatCRC(row.Overdue),
			money.FormatCRC(row.CollectedMonth), fmt.Sprintf("%.0f%%", row.OverduePct),
		})
	}
	rows = append(rows, []string{
		"TOTAL", "", fmt.Sprintf("%d", s.PendingCount),
		money.FormatCRC(s.TotalPending), money.FormatCRC(s.TotalOverdue),
		money.FormatCRC(s.TotalCollectedMonth), "",
	})
	doc := report.Document{
		Title:    r.companyTitle(ctx, sheetID, "Resumen de Cuentas por Cobrar"),
		Subtitle: "Generado: " + s.GeneratedAt.Format("02/01/2006 15:04"),
		Tables: []report.Table{{
			Headers:     []string{"Cliente", "Identificación", "Fact. Pend.", "Pendiente (CRC)", "Vencido", "Cobrado (Mes)", "% Vencido"},
			Rows:        rows,
			NumericCols: []int{2, 3, 4, 5, 6},
		}},
	}
	return r.client.RenderHTML(ctx, doc.HTML())
}

// Statement renders one client's account statement.
func (r *PDFRenderer) Statement(ctx context.Context, sheetID, clientID string) ([]byte, error) {
	st, err := r.assembler.BuildStatement(ctx, sheetID, clientID)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, r.statementDocument(ctx, sheetID, st).HTML())
}

func (r *PDFRenderer) statementDocument(ctx context.Context, sheetID string, st *Statement) report.Document {
	rows := make([][]string, 0, len(st.Pending))
	for _, row := range st.Pending {
		rows = append(rows, []string{
			row.Consecutivo, formatDay(row.IssueDate), formatDay(row.DueDate),
			money.FormatCRC(row.GrossTotal), money.FormatCRC(row.Corfoga),
			money.FormatCRC(row.Balance), dueLabel(row.Days, row.Overdue),
		})
	}
	return report.Document{
		Title:    r.companyTitle(ctx, sheetID, "Estado de Cuenta"),
		Subtitle: "Generado: " + st.GeneratedAt.Format("02/01/2006"),
		Summary: []string{
			"Cliente: " + st.Client.Name,
			"Cédula: " + st.Client.TaxID,
			fmt.Sprintf("Días de Crédito: %d", st.Client.CreditDays),
			"Total Pendiente: " + money.FormatCRC(st.TotalPending),
			"Total Pagado: " + money.FormatCRC(st.TotalPaid),
		},
		Tables: []report.Table{{
			Caption:     "Facturas Pendientes",
			Headers:     []string{"Consecutivo", "Fecha", "Vencimiento", "Total (CRC)", "CORFOGA", "Saldo (CRC)", "Estado"},
			Rows:        rows,
			NumericCols: []int{3, 4, 5},
		}},
	}
}

// RenderStatement renders a portal statement PDF. It satisfies the portal's
// renderer contract.
func (r *PDFRenderer) RenderStatement(ctx context.Context, sheetID string, st *portal.Statement) ([]byte, error) {
	rows := make([][]string, 0, len(st.Pending))
	for _, row := range st.Pending {
		label := "Pendiente"
		if row.Overdue {
			label = "Vencida"
		}
		rows = append(rows, []string{
			row.Consecutivo, formatDay(row.IssueDate), formatDay(row.DueDate),
			money.FormatCRC(row.GrossTotal), money.FormatCRC(row.Corfoga),
			money.FormatCRC(row.Balance), label,
		})
	}
	doc := report.Document{
		Title:    r.companyTitle(ctx, sheetID, "Estado de Cuenta"),
		Subtitle: "Generado: " + time.Now().Format("02/01/2006"),
		Summary: []string{
			"Cliente: " + st.Client.Name,
			"Total Pendiente: " + money.FormatCRC(st.TotalPending),
			"Total Vencido: " + money.FormatCRC(st.TotalOverdue),
		},
		Tables: []report.Table{{
			Caption:     "Facturas Pendientes",
			Headers:     []string{"Consecutivo", "Fecha", "Vencimiento", "Total (CRC)", "CORFOGA", "Saldo (CRC)", "Estado"},
			Rows:        rows,
			NumericCols: []int{3, 4, 5},
		}},
	}
	return r.client.RenderHTML(ctx, doc.HTML())
}
