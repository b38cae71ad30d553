// Package ledger owns the invoice lifecycle: how partial payments (abonos)
// accumulate against a balance, how credit notes offset invoices, and how a
// document's state moves toward settlement.
package ledger

import (
	"strings"
	"time"
)

// DocumentType distinguishes the two variants of a stored document.
type DocumentType string

const (
	TypeInvoice    DocumentType = "FAC"
	TypeCreditNote DocumentType = "NC"
)

// State enumerates the document lifecycle. Paid and Compensated are terminal.
type State string

const (
	StatePending     State = "Pendiente"
	StatePartial     State = "Parcial"
	StatePaid        State = "Pagado"
	StateCompensated State = "Compensado"
)

// Terminal reports whether no further payments are accepted in this state.
func (s State) Terminal() bool {
	return s == StatePaid || s == StateCompensated
}

// Document is an invoice or credit note row from the Facturas sheet.
type Document struct {
	ID          string    `json:"id"`
	Consecutivo string    `json:"consecutivo"`
	IssueDate   time.Time `json:"fecha"`
	DueDate     time.Time `json:"fechaVencimiento"`
	SettledDate time.Time `json:"fechaPago"`

	ClientID    string `json:"clienteId"`
	ClientName  string `json:"clienteNombre"`
	ClientTaxID string `json:"cedulaCliente"`

	GrossTotal      float64 `json:"totalFactura"`
	Corfoga         float64 `json:"corfoga"`
	OtherDeductions float64 `json:"otrosRebajos"`
	NetCollectible  float64 `json:"montoCobrar"`

	// PaidTotal accumulates abonos; Balance is NetCollectible - PaidTotal,
	// clamped to zero.
	PaidTotal float64 `json:"abonado"`
	Balance   float64 `json:"saldoPendiente"`

	// Paid is the legacy boolean mirror of State being terminal. It is
	// derived on read and write, never trusted as a source of truth.
	Paid bool `json:"pagado"`

	ProductType   string `json:"tipoProducto"`
	PurchaseOrder string `json:"ordenCompra"`
	Notes         string `json:"notas"`

	Type         DocumentType `json:"tipoDocumento"`
	RelatedDocID string       `json:"documentoRelacionado"`
	State        State        `json:"estado"`
}

// PartialPayment (abono) is one payment applied against a single invoice.
type PartialPayment struct {
	ID          string    `json:"id"`
	InvoiceID   string    `json:"facturaId"`
	Consecutivo string    `json:"consecutivo"`
	Date        time.Time `json:"fecha"`
	Amount      float64   `json:"monto"`
	Method      string    `json:"metodoPago"`
	Reference   string    `json:"referencia"`
	Notes       string    `json:"notas"`
}

// ClassifyDocumentType derives the document variant from the business-assigned
// sequence code. Positions 7-8 of the consecutivo carry the receipt type code:
// "03" is a credit note, anything else (or a short code) is an invoice.
func ClassifyDocumentType(consecutivo string) DocumentType {
	if len(consecutivo) >= 8 && consecutivo[6:8] == "03" {
		return TypeCreditNote
	}
	return TypeInvoice
}

// ResolveState maps a stored state cell to a State, falling back to the
// legacy Pagado flag for rows written before the Estado column existed.
func ResolveState(stored string, paid bool) State {
	switch State(strings.TrimSpace(stored)) {
	case StatePending, StatePartial, StatePaid, StateCompensated:
		return State(strings.TrimSpace(stored))
	}
	if paid {
		return StatePaid
	}
	return StatePending
}

// NormalizeConsecutivo strips leading zeros so duplicate detection treats
// "0001234" and "1234" as the same sequence code.
func NormalizeConsecutivo(consecutivo string) string {
	return strings.TrimLeft(strings.TrimSpace(consecutivo), "0")
}
