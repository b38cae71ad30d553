package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

type memoryLedgerRepo struct {
	docs     map[string]*Document
	order    []string
	payments map[string]*PartialPayment
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		docs:     make(map[string]*Document),
		payments: make(map[string]*PartialPayment),
	}
}

func (r *memoryLedgerRepo) ListDocuments(ctx context.Context, sheetID string) ([]Document, error) {
	out := make([]Document, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.docs[id])
	}
	return out, nil
}

func (r *memoryLedgerRepo) GetDocument(ctx context.Context, sheetID, id string) (*Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, httpx.NotFoundf("document %s not found", id)
	}
	copied := *d
	return &copied, nil
}

func (r *memoryLedgerRepo) InsertDocument(ctx context.Context, sheetID string, doc Document) error {
	r.docs[doc.ID] = &doc
	r.order = append(r.order, doc.ID)
	return nil
}

func (r *memoryLedgerRepo) InsertDocuments(ctx context.Context, sheetID string, docs []Document) error {
	for _, d := range docs {
		if err := r.InsertDocument(ctx, sheetID, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryLedgerRepo) UpdateFinancials(ctx context.Context, sheetID string, doc *Document) error {
	stored := r.docs[doc.ID]
	stored.GrossTotal = doc.GrossTotal
	stored.Corfoga = doc.Corfoga
	stored.OtherDeductions = doc.OtherDeductions
	stored.NetCollectible = doc.NetCollectible
	stored.Balance = doc.Balance
	return nil
}

func (r *memoryLedgerRepo) UpdateDetails(ctx context.Context, sheetID string, doc *Document) error {
	stored := r.docs[doc.ID]
	stored.ProductType = doc.ProductType
	stored.PurchaseOrder = doc.PurchaseOrder
	stored.Notes = doc.Notes
	return nil
}

func (r *memoryLedgerRepo) SaveBalance(ctx context.Context, sheetID string, doc *Document) error {
	stored := r.docs[doc.ID]
	stored.PaidTotal = doc.PaidTotal
	stored.Balance = doc.Balance
	stored.State = doc.State
	stored.SettledDate = doc.SettledDate
	stored.Notes = doc.Notes
	stored.Paid = doc.State.Terminal()
	return nil
}

func (r *memoryLedgerRepo) SaveCompensation(ctx context.Context, sheetID string, doc *Document) error {
	stored := r.docs[doc.ID]
	stored.State = doc.State
	stored.SettledDate = doc.SettledDate
	stored.RelatedDocID = doc.RelatedDocID
	stored.Notes = doc.Notes
	stored.Paid = true
	return nil
}

func (r *memoryLedgerRepo) InsertPayment(ctx context.Context, sheetID string, p PartialPayment) error {
	r.payments[p.ID] = &p
	return nil
}

func (r *memoryLedgerRepo) GetPayment(ctx context.Context, sheetID, paymentID string) (*PartialPayment, error) {
	p, ok := r.payments[paymentID]
	if !ok {
		return nil, httpx.NotFoundf("payment %s not found", paymentID)
	}
	copied := *p
	return &copied, nil
}

func (r *memoryLedgerRepo) DeletePayment(ctx context.Context, sheetID, paymentID string) error {
	if _, ok := r.payments[paymentID]; !ok {
		return httpx.NotFoundf("payment %s not found", paymentID)
	}
	delete(r.payments, paymentID)
	return nil
}

func (r *memoryLedgerRepo) ListPayments(ctx context.Context, sheetID, invoiceID string) ([]PartialPayment, error) {
	var out []PartialPayment
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, repo RepositoryPort) *Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(repo, node)
}

const testSheet = "sheet-1"

func seedInvoice(t *testing.T, svc *Service, gross, corfoga, otros float64) *Document {
	t.Helper()
	doc, err := svc.CreateDocument(context.Background(), testSheet, CreateDocumentInput{
		Consecutivo:     "00100001010000001234",
		ClientID:        "c-1",
		ClientName:      "Carnes del Valle",
		GrossTotal:      gross,
		Corfoga:         corfoga,
		OtherDeductions: otros,
	})
	require.NoError(t, err)
	return doc
}

func TestCreateDocumentComputesNetCollectible(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)

	doc := seedInvoice(t, svc, 1000, 50, 25.50)

	require.Equal(t, 924.50, doc.NetCollectible)
	require.Equal(t, 924.50, doc.Balance)
	require.Equal(t, float64(0), doc.PaidTotal)
	require.Equal(t, StatePending, doc.State)
	require.Equal(t, TypeInvoice, doc.Type)
}

func TestCreateDocumentClassifiesCreditNote(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)

	doc, err := svc.CreateDocument(context.Background(), testSheet, CreateDocumentInput{
		Consecutivo: "00100003010000000042",
		ClientID:    "c-1",
		GrossTotal:  100,
	})
	require.NoError(t, err)
	require.Equal(t, TypeCreditNote, doc.Type)
}

func TestRegisterPaymentAccumulates(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 1000, 0, 0)

	_, err := svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 300})
	require.NoError(t, err)
	_, err = svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 200})
	require.NoError(t, err)

	got, err := svc.GetDocument(context.Background(), testSheet, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 500.0, got.PaidTotal)
	require.Equal(t, 500.0, got.Balance)
	require.Equal(t, StatePartial, got.State)
	require.False(t, got.Paid)
}

func TestRegisterPaymentSettlesWithinTolerance(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 1000, 0, 0)

	_, err := svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 999.995})
	require.NoError(t, err)

	got, err := svc.GetDocument(context.Background(), testSheet, doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatePaid, got.State)
	require.Equal(t, 0.0, got.Balance)
	require.False(t, got.SettledDate.IsZero())
}

func TestRegisterPaymentRejectsOverpayment(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 1000, 0, 0)

	_, err := svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 600})
	require.NoError(t, err)
	_, err = svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 500})
	require.Error(t, err)
	require.True(t, errors.Is(err, httpx.ErrValidation))

	// The failed attempt leaves the invoice untouched.
	got, err := svc.GetDocument(context.Background(), testSheet, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 600.0, got.PaidTotal)
	require.Equal(t, 400.0, got.Balance)
	require.Equal(t, StatePartial, got.State)
}

func TestRegisterPaymentRejectsNonPositive(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 1000, 0, 0)

	for _, amount := range []float64{0, -10} {
		_, err := svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: amount})
		require.True(t, errors.Is(err, httpx.ErrValidation))
	}
}

func TestRegisterPaymentRejectsSettledInvoice(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 500, 0, 0)

	_, err := svc.RegisterFullPayment(context.Background(), testSheet, doc.ID, time.Time{}, "")
	require.NoError(t, err)

	_, err = svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 1})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestReversePaymentRestoresBalance(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 1000, 0, 0)

	p1, err := svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 400})
	require.NoError(t, err)
	_, err = svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 600})
	require.NoError(t, err)

	got, err := svc.GetDocument(context.Background(), testSheet, doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatePaid, got.State)

	// Reversing one abono reopens the invoice as Partial, never Paid.
	updated, err := svc.ReversePayment(context.Background(), testSheet, p1.ID)
	require.NoError(t, err)
	require.Equal(t, 600.0, updated.PaidTotal)
	require.Equal(t, 400.0, updated.Balance)
	require.Equal(t, StatePartial, updated.State)
	require.True(t, updated.SettledDate.IsZero())
}

func TestReversePaymentBackToPending(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 1000, 0, 0)

	p, err := svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 250})
	require.NoError(t, err)

	updated, err := svc.ReversePayment(context.Background(), testSheet, p.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, updated.PaidTotal)
	require.Equal(t, 1000.0, updated.Balance)
	require.Equal(t, StatePending, updated.State)
}

func TestReversePaymentUnknownID(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	seedInvoice(t, svc, 1000, 0, 0)

	_, err := svc.ReversePayment(context.Background(), testSheet, "missing")
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestRegisterFullPaymentSettlesRemainder(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 1000, 0, 0)

	_, err := svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 300})
	require.NoError(t, err)

	settled, err := svc.RegisterFullPayment(context.Background(), testSheet, doc.ID, time.Time{}, "transferencia")
	require.NoError(t, err)
	require.Equal(t, StatePaid, settled.State)
	require.Equal(t, 0.0, settled.Balance)
	require.Equal(t, 1000.0, settled.PaidTotal)

	payments, sum, err := svc.ListPaymentsForInvoice(context.Background(), testSheet, doc.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	require.Equal(t, 1000.0, sum)
}

func TestListPaymentsForInvoiceMostRecentFirst(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 1000, 0, 0)

	older := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	_, err := svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 100, Date: older})
	require.NoError(t, err)
	_, err = svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 200, Date: newer})
	require.NoError(t, err)

	payments, sum, err := svc.ListPaymentsForInvoice(context.Background(), testSheet, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 300.0, sum)
	require.Equal(t, newer, payments[0].Date)
	require.Equal(t, older, payments[1].Date)
}

func TestCompensateLinksBothDocuments(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)

	invoice := seedInvoice(t, svc, 800, 0, 0)
	note, err := svc.CreateDocument(context.Background(), testSheet, CreateDocumentInput{
		Consecutivo: "00100003010000000099",
		ClientID:    "c-1",
		GrossTotal:  300,
	})
	require.NoError(t, err)
	require.Equal(t, TypeCreditNote, note.Type)

	amount, err := svc.Compensate(context.Background(), testSheet, note.ID, invoice.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 300.0, amount)

	gotInvoice, err := svc.GetDocument(context.Background(), testSheet, invoice.ID)
	require.NoError(t, err)
	gotNote, err := svc.GetDocument(context.Background(), testSheet, note.ID)
	require.NoError(t, err)

	require.Equal(t, StateCompensated, gotInvoice.State)
	require.Equal(t, StateCompensated, gotNote.State)
	require.Equal(t, gotNote.ID, gotInvoice.RelatedDocID)
	require.Equal(t, gotInvoice.ID, gotNote.RelatedDocID)
	require.Contains(t, gotInvoice.Notes, "Compensado con NC")
	require.Contains(t, gotNote.Notes, "Compensado con FAC")

	// Compensation flips state only; the balance columns keep their values.
	require.Equal(t, 800.0, gotInvoice.Balance)
	require.Equal(t, 0.0, gotInvoice.PaidTotal)
}

func TestImportDocumentsSkipsDuplicates(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	seedInvoice(t, svc, 1000, 0, 0) // consecutivo ...0000001234

	result, err := svc.ImportDocuments(context.Background(), testSheet, []CreateDocumentInput{
		{Consecutivo: "00100001010000001234", ClientID: "c-1", GrossTotal: 1000}, // exact duplicate
		{Consecutivo: "100001010000001234", ClientID: "c-1", GrossTotal: 1000},   // same after zero-strip
		{Consecutivo: "00100001010000005678", ClientID: "c-2", GrossTotal: 250},
		{Consecutivo: "00100003010000005679", ClientID: "c-2", GrossTotal: 50},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)
	require.Len(t, result.Duplicates, 2)
	require.Len(t, result.CreditNotes, 1)

	docs, err := svc.ListDocuments(context.Background(), testSheet)
	require.NoError(t, err)
	require.Len(t, docs, 3)
}

func TestUpdateDocumentRecomputesNet(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 1000, 0, 0)

	_, err := svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 400})
	require.NoError(t, err)

	gross := 1200.0
	updated, err := svc.UpdateDocument(context.Background(), testSheet, doc.ID, UpdateDocumentInput{GrossTotal: &gross})
	require.NoError(t, err)
	require.Equal(t, 1200.0, updated.NetCollectible)
	require.Equal(t, 800.0, updated.Balance)
}

func TestPendingInvoicesForClientExcludesNotesAndSettled(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)

	open := seedInvoice(t, svc, 500, 0, 0)
	settled, err := svc.CreateDocument(context.Background(), testSheet, CreateDocumentInput{
		Consecutivo: "00100001010000002222",
		ClientID:    "c-1",
		GrossTotal:  100,
	})
	require.NoError(t, err)
	_, err = svc.RegisterFullPayment(context.Background(), testSheet, settled.ID, time.Time{}, "")
	require.NoError(t, err)
	_, err = svc.CreateDocument(context.Background(), testSheet, CreateDocumentInput{
		Consecutivo: "00100003010000003333",
		ClientID:    "c-1",
		GrossTotal:  40,
	})
	require.NoError(t, err)

	pending, err := svc.PendingInvoicesForClient(context.Background(), testSheet, "c-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, open.ID, pending[0].ID)
}

func TestReconcileRepairsDriftedTotals(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(t, repo)
	doc := seedInvoice(t, svc, 1000, 0, 0)

	_, err := svc.RegisterPayment(context.Background(), testSheet, doc.ID, PaymentInput{Amount: 300})
	require.NoError(t, err)

	// Simulate a half-applied write: the abono row exists but the invoice
	// columns were never updated.
	repo.docs[doc.ID].PaidTotal = 0
	repo.docs[doc.ID].Balance = 1000
	repo.docs[doc.ID].State = StatePending

	changed, err := svc.Reconcile(context.Background(), testSheet, doc.ID)
	require.NoError(t, err)
	require.True(t, changed)

	got, err := svc.GetDocument(context.Background(), testSheet, doc.ID)
	require.NoError(t, err)
	require.Equal(t, 300.0, got.PaidTotal)
	require.Equal(t, 700.0, got.Balance)
	require.Equal(t, StatePartial, got.State)

	// A second pass finds nothing to repair.
	changed, err = svc.Reconcile(context.Background(), testSheet, doc.ID)
	require.NoError(t, err)
	require.False(t, changed)
}
