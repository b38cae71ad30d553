package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/cxcontrol/cxcontrol/internal/money"
	"github.com/cxcontrol/cxcontrol/internal/observability"
	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
	"github.com/cxcontrol/cxcontrol/internal/shared"
)

// RepositoryPort defines data access methods for the ledger.
type RepositoryPort interface {
	ListDocuments(ctx context.Context, sheetID string) ([]Document, error)
	GetDocument(ctx context.Context, sheetID, id string) (*Document, error)
	InsertDocument(ctx context.Context, sheetID string, doc Document) error
	InsertDocuments(ctx context.Context, sheetID string, docs []Document) error
	UpdateFinancials(ctx context.Context, sheetID string, doc *Document) error
	UpdateDetails(ctx context.Context, sheetID string, doc *Document) error
	SaveBalance(ctx context.Context, sheetID string, doc *Document) error
	SaveCompensation(ctx context.Context, sheetID string, doc *Document) error
	InsertPayment(ctx context.Context, sheetID string, p PartialPayment) error
	GetPayment(ctx context.Context, sheetID, paymentID string) (*PartialPayment, error)
	DeletePayment(ctx context.Context, sheetID, paymentID string) error
	ListPayments(ctx context.Context, sheetID, invoiceID string) ([]PartialPayment, error)
}

// Service handles document and balance business logic.
type Service struct {
	repo    RepositoryPort
	locks   *shared.KeyedMutex
	node    *snowflake.Node
	now     func() time.Time
	metrics *observability.Metrics
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, node *snowflake.Node) *Service {
	return &Service{
		repo:  repo,
		locks: shared.NewKeyedMutex(),
		node:  node,
		now:   time.Now,
	}
}

// WithMetrics attaches the domain counters. Without it the service runs fine,
// it just counts nothing.
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) newID() string {
	return s.node.Generate().String()
}

// CreateDocumentInput carries the fields accepted when registering a document.
type CreateDocumentInput struct {
	Consecutivo     string    `json:"consecutivo" validate:"required"`
	IssueDate       time.Time `json:"fecha"`
	DueDate         time.Time `json:"fechaVencimiento"`
	ClientID        string    `json:"clienteId" validate:"required"`
	ClientName      string    `json:"clienteNombre"`
	ClientTaxID     string    `json:"cedulaCliente"`
	GrossTotal      float64   `json:"totalFactura" validate:"gte=0"`
	Corfoga         float64   `json:"corfoga" validate:"gte=0"`
	OtherDeductions float64   `json:"otrosRebajos" validate:"gte=0"`
	ProductType     string    `json:"tipoProducto"`
	PurchaseOrder   string    `json:"ordenCompra"`
	Notes           string    `json:"notas"`
}

// CreateDocument registers a new invoice or credit note. The net collectible
// amount is computed once here and never recomputed from the gross again.
func (s *Service) CreateDocument(ctx context.Context, sheetID string, input CreateDocumentInput) (*Document, error) {
	if input.Consecutivo == "" {
		return nil, httpx.Validationf("consecutivo is required")
	}
	if input.ClientID == "" {
		return nil, httpx.Validationf("client is required")
	}
	net := money.Round2(input.GrossTotal - input.Corfoga - input.OtherDeductions)
	doc := Document{
		ID:              s.newID(),
		Consecutivo:     input.Consecutivo,
		IssueDate:       input.IssueDate,
		DueDate:         input.DueDate,
		ClientID:        input.ClientID,
		ClientName:      input.ClientName,
		ClientTaxID:     input.ClientTaxID,
		GrossTotal:      input.GrossTotal,
		Corfoga:         input.Corfoga,
		OtherDeductions: input.OtherDeductions,
		NetCollectible:  net,
		Balance:         net,
		ProductType:     input.ProductType,
		PurchaseOrder:   input.PurchaseOrder,
		Notes:           input.Notes,
		Type:            ClassifyDocumentType(input.Consecutivo),
		State:           StatePending,
	}
	if err := s.repo.InsertDocument(ctx, sheetID, doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// BatchResult summarises a bulk import.
type BatchResult struct {
	Imported    int      `json:"count"`
	Duplicates  []string `json:"duplicadosLista"`
	CreditNotes []string `json:"notasCredito"`
}

// ImportDocuments bulk-imports documents, skipping rows whose consecutivo
// already exists. Comparison strips leading zeros on both sides so re-imports
// of the same export file are safe to retry.
func (s *Service) ImportDocuments(ctx context.Context, sheetID string, inputs []CreateDocumentInput) (*BatchResult, error) {
	existing, err := s.repo.ListDocuments(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, d := range existing {
		seen[NormalizeConsecutivo(d.Consecutivo)] = true
	}

	result := &BatchResult{}
	var docs []Document
	for _, input := range inputs {
		key := NormalizeConsecutivo(input.Consecutivo)
		if key == "" || seen[key] {
			result.Duplicates = append(result.Duplicates, input.Consecutivo)
			continue
		}
		seen[key] = true
		net := money.Round2(input.GrossTotal - input.Corfoga - input.OtherDeductions)
		doc := Document{
			ID:              s.newID(),
			Consecutivo:     input.Consecutivo,
			IssueDate:       input.IssueDate,
			DueDate:         input.DueDate,
			ClientID:        input.ClientID,
			ClientName:      input.ClientName,
			ClientTaxID:     input.ClientTaxID,
			GrossTotal:      input.GrossTotal,
			Corfoga:         input.Corfoga,
			OtherDeductions: input.OtherDeductions,
			NetCollectible:  net,
			Balance:         net,
			ProductType:     input.ProductType,
			PurchaseOrder:   input.PurchaseOrder,
			Notes:           input.Notes,
			Type:            ClassifyDocumentType(input.Consecutivo),
			State:           StatePending,
		}
		docs = append(docs, doc)
		if doc.Type == TypeCreditNote {
			result.CreditNotes = append(result.CreditNotes, doc.ID)
		}
	}
	if len(docs) > 0 {
		if err := s.repo.InsertDocuments(ctx, sheetID, docs); err != nil {
			return nil, err
		}
	}
	result.Imported = len(docs)
	return result, nil
}

// UpdateDocumentInput carries editable document fields. Pointer fields are
// applied only when present.
type UpdateDocumentInput struct {
	GrossTotal      *float64 `json:"totalFactura"`
	Corfoga         *float64 `json:"corfoga"`
	OtherDeductions *float64 `json:"otrosRebajos"`
	ProductType     *string  `json:"tipoProducto"`
	PurchaseOrder   *string  `json:"ordenCompra"`
	Notes           *string  `json:"notas"`
}

// UpdateDocument edits amounts and details, recomputing the net collectible
// and balance when any financial field changed.
func (s *Service) UpdateDocument(ctx context.Context, sheetID, id string, input UpdateDocumentInput) (*Document, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	doc, err := s.repo.GetDocument(ctx, sheetID, id)
	if err != nil {
		return nil, err
	}

	financial := false
	if input.GrossTotal != nil {
		doc.GrossTotal = *input.GrossTotal
		financial = true
	}
	if input.Corfoga != nil {
		doc.Corfoga = *input.Corfoga
		financial = true
	}
	if input.OtherDeductions != nil {
		doc.OtherDeductions = *input.OtherDeductions
		financial = true
	}
	if financial {
		doc.NetCollectible = money.Round2(doc.GrossTotal - doc.Corfoga - doc.OtherDeductions)
		doc.Balance = doc.NetCollectible - doc.PaidTotal
		if doc.Balance < 0 {
			doc.Balance = 0
		}
		if err := s.repo.UpdateFinancials(ctx, sheetID, doc); err != nil {
			return nil, err
		}
	}

	detail := false
	if input.ProductType != nil {
		doc.ProductType = *input.ProductType
		detail = true
	}
	if input.PurchaseOrder != nil {
		doc.PurchaseOrder = *input.PurchaseOrder
		detail = true
	}
	if input.Notes != nil {
		doc.Notes = *input.Notes
		detail = true
	}
	if detail {
		if err := s.repo.UpdateDetails(ctx, sheetID, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// ListDocuments returns every document of a business.
func (s *Service) ListDocuments(ctx context.Context, sheetID string) ([]Document, error) {
	return s.repo.ListDocuments(ctx, sheetID)
}

// GetDocument returns one document by ID.
func (s *Service) GetDocument(ctx context.Context, sheetID, id string) (*Document, error) {
	return s.repo.GetDocument(ctx, sheetID, id)
}

// PendingInvoicesForClient returns the open invoices (never credit notes) of
// one client, the candidates a credit note can be compensated against.
func (s *Service) PendingInvoicesForClient(ctx context.Context, sheetID, clientID string) ([]Document, error) {
	docs, err := s.repo.ListDocuments(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	var out []Document
	for _, d := range docs {
		if d.Type == TypeInvoice && !d.State.Terminal() && d.ClientID == clientID {
			out = append(out, d)
		}
	}
	return out, nil
}

// PaymentInput carries the fields of one abono.
type PaymentInput struct {
	Amount    float64   `json:"monto" validate:"gt=0"`
	Date      time.Time `json:"fecha"`
	Method    string    `json:"metodoPago"`
	Reference string    `json:"referencia"`
	Notes     string    `json:"notas"`
}

// RegisterPayment applies a partial payment against an invoice. The whole
// read-modify-write runs under the invoice's lock so two racing payments
// cannot both pass the overpayment check against a stale balance.
func (s *Service) RegisterPayment(ctx context.Context, sheetID, invoiceID string, input PaymentInput) (*PartialPayment, error) {
	if input.Amount <= 0 {
		return nil, httpx.Validationf("amount must be positive")
	}

	s.locks.Lock(invoiceID)
	defer s.locks.Unlock(invoiceID)

	doc, err := s.repo.GetDocument(ctx, sheetID, invoiceID)
	if err != nil {
		return nil, err
	}
	if doc.State.Terminal() {
		return nil, httpx.Validationf("document %s is already settled (%s)", doc.Consecutivo, doc.State)
	}
	if doc.PaidTotal+input.Amount > doc.NetCollectible+money.SettleTolerance {
		if s.metrics != nil {
			s.metrics.OverpaymentRejections.Inc()
		}
		return nil, httpx.Validationf("payment of %.2f exceeds the remaining balance of %.2f", input.Amount, doc.Balance)
	}

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	payment := PartialPayment{
		ID:          s.newID(),
		InvoiceID:   doc.ID,
		Consecutivo: doc.Consecutivo,
		Date:        date,
		Amount:      input.Amount,
		Method:      input.Method,
		Reference:   input.Reference,
		Notes:       input.Notes,
	}
	if err := s.repo.InsertPayment(ctx, sheetID, payment); err != nil {
		return nil, err
	}

	doc.PaidTotal = money.Round2(doc.PaidTotal + input.Amount)
	doc.Balance = doc.NetCollectible - doc.PaidTotal
	if doc.Balance < 0 {
		doc.Balance = 0
	}
	if money.Settled(doc.Balance) {
		doc.Balance = 0
		doc.State = StatePaid
		doc.SettledDate = date
	} else {
		doc.State = StatePartial
	}
	appendNote(doc, fmt.Sprintf("Abono %s: %.2f", formatDate(date), input.Amount))

	if err := s.repo.SaveBalance(ctx, sheetID, doc); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PaymentsRegistered.Inc()
	}
	return &payment, nil
}

// RegisterFullPayment settles the remaining balance in one step, the legacy
// mark-as-paid path.
func (s *Service) RegisterFullPayment(ctx context.Context, sheetID, invoiceID string, date time.Time, notes string) (*Document, error) {
	s.locks.Lock(invoiceID)
	defer s.locks.Unlock(invoiceID)

	doc, err := s.repo.GetDocument(ctx, sheetID, invoiceID)
	if err != nil {
		return nil, err
	}
	if doc.State.Terminal() {
		return nil, httpx.Validationf("document %s is already settled (%s)", doc.Consecutivo, doc.State)
	}
	if date.IsZero() {
		date = s.now()
	}

	if doc.Balance > 0 {
		payment := PartialPayment{
			ID:          s.newID(),
			InvoiceID:   doc.ID,
			Consecutivo: doc.Consecutivo,
			Date:        date,
			Amount:      doc.Balance,
			Method:      "",
			Notes:       notes,
		}
		if err := s.repo.InsertPayment(ctx, sheetID, payment); err != nil {
			return nil, err
		}
		doc.PaidTotal = money.Round2(doc.PaidTotal + doc.Balance)
	}
	doc.Balance = 0
	doc.State = StatePaid
	doc.SettledDate = date
	if notes != "" {
		appendNote(doc, "Pago: "+notes)
	}
	if err := s.repo.SaveBalance(ctx, sheetID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReversePayment deletes an abono and rolls its amount back out of the
// invoice. A reversal never lands in Paid: the state is Pending when nothing
// remains applied, Partial otherwise.
func (s *Service) ReversePayment(ctx context.Context, sheetID, paymentID string) (*Document, error) {
	payment, err := s.repo.GetPayment(ctx, sheetID, paymentID)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(payment.InvoiceID)
	defer s.locks.Unlock(payment.InvoiceID)

	doc, err := s.repo.GetDocument(ctx, sheetID, payment.InvoiceID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeletePayment(ctx, sheetID, paymentID); err != nil {
		return nil, err
	}

	doc.PaidTotal = money.Round2(doc.PaidTotal - payment.Amount)
	if doc.PaidTotal < 0 {
		doc.PaidTotal = 0
	}
	doc.Balance = doc.NetCollectible - doc.PaidTotal
	if doc.Balance < 0 {
		doc.Balance = 0
	}
	if doc.PaidTotal == 0 {
		doc.State = StatePending
	} else {
		doc.State = StatePartial
	}
	doc.SettledDate = time.Time{}
	appendNote(doc, fmt.Sprintf("Abono revertido: %.2f", payment.Amount))

	if err := s.repo.SaveBalance(ctx, sheetID, doc); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PaymentsReversed.Inc()
	}
	return doc, nil
}

// ListPaymentsForInvoice returns an invoice's abonos most-recent-first along
// with their sum, which matches the invoice's accumulated total.
func (s *Service) ListPaymentsForInvoice(ctx context.Context, sheetID, invoiceID string) ([]PartialPayment, float64, error) {
	payments, err := s.repo.ListPayments(ctx, sheetID, invoiceID)
	if err != nil {
		return nil, 0, err
	}
	sortPaymentsDesc(payments)
	var sum float64
	for _, p := range payments {
		sum += p.Amount
	}
	return payments, money.Round2(sum), nil
}

// Compensate offsets a credit note against an invoice. Both documents become
// Compensated and cross-reference each other. The balance columns are left
// untouched: compensation is a terminal override of state, separate from the
// abono arithmetic.
func (s *Service) Compensate(ctx context.Context, sheetID, creditNoteID, invoiceID string, requested float64) (float64, error) {
	first, second := creditNoteID, invoiceID
	if second < first {
		first, second = second, first
	}
	s.locks.Lock(first)
	defer s.locks.Unlock(first)
	if second != first {
		s.locks.Lock(second)
		defer s.locks.Unlock(second)
	}

	note, err := s.repo.GetDocument(ctx, sheetID, creditNoteID)
	if err != nil {
		return 0, err
	}
	invoice, err := s.repo.GetDocument(ctx, sheetID, invoiceID)
	if err != nil {
		return 0, err
	}

	amount := requested
	if amount == 0 {
		amount = min(abs(note.Balance), abs(invoice.Balance))
	}
	today := s.now()

	note.State = StateCompensated
	note.SettledDate = today
	note.RelatedDocID = invoice.ID
	appendNote(note, "Compensado con FAC "+invoice.ID)
	if err := s.repo.SaveCompensation(ctx, sheetID, note); err != nil {
		return 0, err
	}

	invoice.State = StateCompensated
	invoice.SettledDate = today
	invoice.RelatedDocID = note.ID
	appendNote(invoice, "Compensado con NC "+note.ID)
	if err := s.repo.SaveCompensation(ctx, sheetID, invoice); err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.Compensations.Inc()
	}
	return money.Round2(amount), nil
}

// Reconcile recomputes one invoice's accumulated total from its abono rows,
// the ground truth, and rewrites the derived columns when they drifted.
func (s *Service) Reconcile(ctx context.Context, sheetID, invoiceID string) (bool, error) {
	s.locks.Lock(invoiceID)
	defer s.locks.Unlock(invoiceID)

	doc, err := s.repo.GetDocument(ctx, sheetID, invoiceID)
	if err != nil {
		return false, err
	}
	payments, err := s.repo.ListPayments(ctx, sheetID, invoiceID)
	if err != nil {
		return false, err
	}
	var sum float64
	for _, p := range payments {
		sum += p.Amount
	}
	sum = money.Round2(sum)
	if sum == doc.PaidTotal {
		return false, nil
	}

	doc.PaidTotal = sum
	doc.Balance = doc.NetCollectible - sum
	if doc.Balance < 0 {
		doc.Balance = 0
	}
	if doc.State != StateCompensated {
		switch {
		case money.Settled(doc.Balance) && sum > 0:
			doc.Balance = 0
			doc.State = StatePaid
		case sum > 0:
			doc.State = StatePartial
		default:
			doc.State = StatePending
		}
	}
	if err := s.repo.SaveBalance(ctx, sheetID, doc); err != nil {
		return false, err
	}
	if s.metrics != nil {
		s.metrics.ReconcileRepairs.Inc()
	}
	return true, nil
}

// ReconcileAll runs Reconcile over every invoice, returning how many rows
// needed repair.
func (s *Service) ReconcileAll(ctx context.Context, sheetID string) (int, error) {
	docs, err := s.repo.ListDocuments(ctx, sheetID)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, d := range docs {
		if d.Type != TypeInvoice {
			continue
		}
		changed, err := s.Reconcile(ctx, sheetID, d.ID)
		if err != nil {
			return repaired, err
		}
		if changed {
			repaired++
		}
	}
	return repaired, nil
}

func appendNote(doc *Document, note string) {
	if doc.Notes == "" {
		doc.Notes = note
		return
	}
	doc.Notes = doc.Notes + " | " + note
}

func sortPaymentsDesc(payments []PartialPayment) {
	for i := 1; i < len(payments); i++ {
		for j := i; j > 0 && payments[j].Date.After(payments[j-1].Date); j-- {
			payments[j], payments[j-1] = payments[j-1], payments[j]
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
