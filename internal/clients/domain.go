// Package clients manages the customer catalogue of a business.
package clients

import "time"

// DefaultCreditDays applies when a client row carries no credit term.
const DefaultCreditDays = 8

// Client is one customer row from the Clientes sheet.
type Client struct {
	ID          string    `json:"id"`
	TaxID       string    `json:"identificacion"`
	Name        string    `json:"nombre"`
	CreditDays  int       `json:"diasVencimiento"`
	Active      bool      `json:"activo"`
	CreatedAt   time.Time `json:"fechaCreacion"`
	PortalToken string    `json:"tokenPortal,omitempty"`
}
