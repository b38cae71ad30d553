package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/cxcontrol/cxcontrol/internal/money"
	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
	"github.com/cxcontrol/cxcontrol/internal/platform/sheets"
)

// Worksheet names inside each business spreadsheet.
const (
	SheetDocuments = "Facturas"
	SheetPayments  = "Abonos"
)

// Facturas columns, 1-based. The order is the persisted schema; rows written
// before the Estado/Abonado/SaldoPendiente columns existed are tolerated on
// read via ResolveState and recomputed balances.
const (
	colID = iota + 1
	colConsecutivo
	colFecha
	colClienteID
	colClienteNombre
	colCedulaCliente
	colTotalFactura
	colCorfoga
	colOtrosRebajos
	colMontoCobrar
	colFechaVencimiento
	colPagado
	colFechaPago
	colTipoProducto
	colOrdenCompra
	colNotas
	colTipoDocumento
	colDocumentoRelacionado
	colEstado
	colAbonado
	colSaldoPendiente
)

var documentHeaders = []string{
	"ID", "Consecutivo", "Fecha", "ClienteID", "ClienteNombre", "CedulaCliente",
	"TotalFactura", "CORFOGA", "OtrosRebajos", "MontoCobrar",
	"FechaVencimiento", "Pagado", "FechaPago", "TipoProducto",
	"OrdenCompra", "Notas", "TipoDocumento", "DocumentoRelacionado",
	"Estado", "Abonado", "SaldoPendiente",
}

var paymentHeaders = []string{
	"ID", "FacturaID", "Consecutivo", "Fecha", "Monto", "MetodoPago", "Referencia", "Notas",
}

const dateLayout = "2006-01-02"

// Repository persists documents and abonos through the table store.
type Repository struct {
	store sheets.Store
}

// NewRepository constructs a repository over a table store.
func NewRepository(store sheets.Store) *Repository {
	return &Repository{store: store}
}

func parseDate(s string) time.Time {
	if len(s) >= 10 {
		s = s[:10]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func docFromRow(r sheets.Row) Document {
	paid := r["Pagado"] == "TRUE"
	state := ResolveState(r["Estado"], paid)
	docType := DocumentType(r["TipoDocumento"])
	if docType != TypeInvoice && docType != TypeCreditNote {
		docType = ClassifyDocumentType(r["Consecutivo"])
	}
	net := money.Parse(r["MontoCobrar"])
	abonado := money.Parse(r["Abonado"])
	balance := net - abonado
	if saldo, ok := r["SaldoPendiente"]; ok && saldo != "" {
		balance = money.Parse(saldo)
	}
	if balance < 0 {
		balance = 0
	}
	return Document{
		ID:              r["ID"],
		Consecutivo:     r["Consecutivo"],
		IssueDate:       parseDate(r["Fecha"]),
		DueDate:         parseDate(r["FechaVencimiento"]),
		SettledDate:     parseDate(r["FechaPago"]),
		ClientID:        r["ClienteID"],
		ClientName:      r["ClienteNombre"],
		ClientTaxID:     r["CedulaCliente"],
		GrossTotal:      money.Parse(r["TotalFactura"]),
		Corfoga:         money.Parse(r["CORFOGA"]),
		OtherDeductions: money.Parse(r["OtrosRebajos"]),
		NetCollectible:  net,
		PaidTotal:       abonado,
		Balance:         balance,
		Paid:            state.Terminal(),
		ProductType:     r["TipoProducto"],
		PurchaseOrder:   r["OrdenCompra"],
		Notes:           r["Notas"],
		Type:            docType,
		RelatedDocID:    r["DocumentoRelacionado"],
		State:           state,
	}
}

func docToRow(d Document) []any {
	paid := "FALSE"
	if d.State.Terminal() {
		paid = "TRUE"
	}
	return []any{
		d.ID, d.Consecutivo, formatDate(d.IssueDate), d.ClientID, d.ClientName, d.ClientTaxID,
		money.Round2(d.GrossTotal), money.Round2(d.Corfoga), money.Round2(d.OtherDeductions), money.Round2(d.NetCollectible),
		formatDate(d.DueDate), paid, formatDate(d.SettledDate), d.ProductType,
		d.PurchaseOrder, d.Notes, string(d.Type), d.RelatedDocID,
		string(d.State), money.Round2(d.PaidTotal), money.Round2(d.Balance),
	}
}

// ListDocuments reads every document row, skipping blanked rows.
func (r *Repository) ListDocuments(ctx context.Context, sheetID string) ([]Document, error) {
	rows, err := r.store.ListRows(ctx, sheetID, SheetDocuments)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", httpx.ErrStore, err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		if row["ID"] == "" {
			continue
		}
		docs = append(docs, docFromRow(row))
	}
	return docs, nil
}

// GetDocument resolves one document by ID.
func (r *Repository) GetDocument(ctx context.Context, sheetID, id string) (*Document, error) {
	docs, err := r.ListDocuments(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].ID == id {
			return &docs[i], nil
		}
	}
	return nil, httpx.NotFoundf("document %s", id)
}

// InsertDocument appends one document row.
func (r *Repository) InsertDocument(ctx context.Context, sheetID string, doc Document) error {
	if err := r.store.AppendRow(ctx, sheetID, SheetDocuments, documentHeaders, docToRow(doc)); err != nil {
		return fmt.Errorf("%w: insert document: %v", httpx.ErrStore, err)
	}
	return nil
}

// InsertDocuments appends a batch of document rows in one call.
func (r *Repository) InsertDocuments(ctx context.Context, sheetID string, docs []Document) error {
	rows := make([][]any, len(docs))
	for i, d := range docs {
		rows[i] = docToRow(d)
	}
	if err := r.store.AppendRows(ctx, sheetID, SheetDocuments, documentHeaders, rows); err != nil {
		return fmt.Errorf("%w: insert documents: %v", httpx.ErrStore, err)
	}
	return nil
}

func (r *Repository) docRow(ctx context.Context, sheetID, id string) (int, error) {
	row, err := r.store.FindRowByKey(ctx, sheetID, SheetDocuments, id)
	if err == sheets.ErrRowNotFound {
		return 0, httpx.NotFoundf("document %s", id)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: find document: %v", httpx.ErrStore, err)
	}
	return row, nil
}

func (r *Repository) updateCells(ctx context.Context, sheetID string, row int, cells map[int]any) error {
	for col, v := range cells {
		if err := r.store.UpdateCell(ctx, sheetID, SheetDocuments, row, col, v); err != nil {
			return fmt.Errorf("%w: update cell: %v", httpx.ErrStore, err)
		}
	}
	return nil
}

// UpdateFinancials rewrites the amount columns after an edit, keeping the
// derived net and balance consistent with the new gross and deductions.
func (r *Repository) UpdateFinancials(ctx context.Context, sheetID string, doc *Document) error {
	row, err := r.docRow(ctx, sheetID, doc.ID)
	if err != nil {
		return err
	}
	return r.updateCells(ctx, sheetID, row, map[int]any{
		colTotalFactura:   money.Round2(doc.GrossTotal),
		colCorfoga:        money.Round2(doc.Corfoga),
		colOtrosRebajos:   money.Round2(doc.OtherDeductions),
		colMontoCobrar:    money.Round2(doc.NetCollectible),
		colSaldoPendiente: money.Round2(doc.Balance),
	})
}

// UpdateDetails rewrites the descriptive columns.
func (r *Repository) UpdateDetails(ctx context.Context, sheetID string, doc *Document) error {
	row, err := r.docRow(ctx, sheetID, doc.ID)
	if err != nil {
		return err
	}
	return r.updateCells(ctx, sheetID, row, map[int]any{
		colTipoProducto: doc.ProductType,
		colOrdenCompra:  doc.PurchaseOrder,
		colNotas:        doc.Notes,
	})
}

// SaveBalance persists the payment-related columns after a register or
// reversal: legacy paid flag, settlement date, notes, state and totals.
func (r *Repository) SaveBalance(ctx context.Context, sheetID string, doc *Document) error {
	row, err := r.docRow(ctx, sheetID, doc.ID)
	if err != nil {
		return err
	}
	paid := "FALSE"
	if doc.State.Terminal() {
		paid = "TRUE"
	}
	return r.updateCells(ctx, sheetID, row, map[int]any{
		colPagado:         paid,
		colFechaPago:      formatDate(doc.SettledDate),
		colNotas:          doc.Notes,
		colEstado:         string(doc.State),
		colAbonado:        money.Round2(doc.PaidTotal),
		colSaldoPendiente: money.Round2(doc.Balance),
	})
}

// SaveCompensation persists the terminal compensation override: both the
// state and the cross-reference, without touching the balance columns.
func (r *Repository) SaveCompensation(ctx context.Context, sheetID string, doc *Document) error {
	row, err := r.docRow(ctx, sheetID, doc.ID)
	if err != nil {
		return err
	}
	return r.updateCells(ctx, sheetID, row, map[int]any{
		colPagado:               "TRUE",
		colFechaPago:            formatDate(doc.SettledDate),
		colNotas:                doc.Notes,
		colDocumentoRelacionado: doc.RelatedDocID,
		colEstado:               string(StateCompensated),
	})
}

func paymentFromRow(r sheets.Row) PartialPayment {
	return PartialPayment{
		ID:          r["ID"],
		InvoiceID:   r["FacturaID"],
		Consecutivo: r["Consecutivo"],
		Date:        parseDate(r["Fecha"]),
		Amount:      money.Parse(r["Monto"]),
		Method:      r["MetodoPago"],
		Reference:   r["Referencia"],
		Notes:       r["Notas"],
	}
}

// InsertPayment appends one abono row.
func (r *Repository) InsertPayment(ctx context.Context, sheetID string, p PartialPayment) error {
	row := []any{p.ID, p.InvoiceID, p.Consecutivo, formatDate(p.Date), money.Round2(p.Amount), p.Method, p.Reference, p.Notes}
	if err := r.store.AppendRow(ctx, sheetID, SheetPayments, paymentHeaders, row); err != nil {
		return fmt.Errorf("%w: insert payment: %v", httpx.ErrStore, err)
	}
	return nil
}

// GetPayment resolves one abono by ID.
func (r *Repository) GetPayment(ctx context.Context, sheetID, paymentID string) (*PartialPayment, error) {
	rows, err := r.store.ListRows(ctx, sheetID, SheetPayments)
	if err != nil {
		return nil, fmt.Errorf("%w: list payments: %v", httpx.ErrStore, err)
	}
	for _, row := range rows {
		if row["ID"] == paymentID {
			p := paymentFromRow(row)
			return &p, nil
		}
	}
	return nil, httpx.NotFoundf("payment %s", paymentID)
}

// DeletePayment removes an abono row.
func (r *Repository) DeletePayment(ctx context.Context, sheetID, paymentID string) error {
	row, err := r.store.FindRowByKey(ctx, sheetID, SheetPayments, paymentID)
	if err == sheets.ErrRowNotFound {
		return httpx.NotFoundf("payment %s", paymentID)
	}
	if err != nil {
		return fmt.Errorf("%w: find payment: %v", httpx.ErrStore, err)
	}
	if err := r.store.DeleteRow(ctx, sheetID, SheetPayments, row); err != nil {
		return fmt.Errorf("%w: delete payment: %v", httpx.ErrStore, err)
	}
	return nil
}

// ListPayments returns every abono for one invoice, unsorted.
func (r *Repository) ListPayments(ctx context.Context, sheetID, invoiceID string) ([]PartialPayment, error) {
	rows, err := r.store.ListRows(ctx, sheetID, SheetPayments)
	if err != nil {
		return nil, fmt.Errorf("%w: list payments: %v", httpx.ErrStore, err)
	}
	var out []PartialPayment
	for _, row := range rows {
		if row["ID"] == "" || row["FacturaID"] != invoiceID {
			continue
		}
		out = append(out, paymentFromRow(row))
	}
	return out, nil
}
