// Package business manages the registry of businesses, each backed by its own
// spreadsheet, and resolves which spreadsheet a request operates on.
package business

// Business is one tenant: a named spreadsheet holding its own clients,
// documents and configuration.
type Business struct {
	ID          string `json:"id"`
	Name        string `json:"nombre"`
	SheetID     string `json:"sheetId"`
	Description string `json:"descripcion"`
	Active      bool   `json:"activo"`
}
