package portal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cxcontrol/cxcontrol/internal/business"
	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

// StatementRenderer turns a verified statement into a downloadable PDF.
type StatementRenderer interface {
	RenderStatement(ctx context.Context, sheetID string, st *Statement) ([]byte, error)
}

// Handler manages portal and dashboard endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	renderer StatementRenderer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, renderer StatementRenderer) *Handler {
	return &Handler{logger: logger, service: service, renderer: renderer}
}

// GenerateLink issues (or re-issues) the portal link for a client. Staff
// only; the resulting URL is what gets sent to the client.
func (h *Handler) GenerateLink(w http.ResponseWriter, r *http.Request) {
	b, err := business.FromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	clientID := chi.URLParam(r, "clienteID")
	link, err := h.service.GenerateLink(r.Context(), b.SheetID, b.ID, clientID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("portal link generated", slog.String("client_id", clientID))
	httpx.JSON(w, http.StatusOK, link)
}

// Info returns the client name and company branding for a portal token, so
// the landing page can greet before asking for the access code.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	info, err := h.service.Info(r.Context(), sheetID, r.URL.Query().Get("token"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

// Verify exchanges a portal token plus access code for the statement and a
// short-lived access token.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req struct {
		Token string `json:"token"`
		Code  string `json:"codigo"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	statement, access, err := h.service.Verify(r.Context(), sheetID, req.Token, req.Code)
	if err != nil {
		h.logger.Warn("portal verification failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"tokenAcceso": access,
		"cliente":     statement.Client,
		"facturas":    statement.Pending,
		"pagos":       statement.Payments,
		"resumen": map[string]any{
			"totalPendiente":     statement.TotalPending,
			"totalVencido":       statement.TotalOverdue,
			"facturasPendientes": statement.PendingCount,
		},
	})
}

// StatementPDF downloads the statement as a PDF for a verified token.
func (h *Handler) StatementPDF(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	statement, err := h.service.StatementByToken(r.Context(), sheetID, r.URL.Query().Get("token"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.renderer.RenderStatement(r.Context(), sheetID, statement)
	if err != nil {
		h.logger.Error("render statement pdf", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	name := strings.ReplaceAll(statement.Client.Name, " ", "_")
	if len(name) > 20 {
		name = name[:20]
	}
	filename := fmt.Sprintf("Estado_Cuenta_%s_%s.pdf", name, time.Now().Format("20060102"))
	httpx.Attachment(w, "application/pdf", filename, pdf)
}

// GenerateDashboardAccess provisions the read-only owner dashboard link.
func (h *Handler) GenerateDashboardAccess(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req struct {
		Code string `json:"codigo"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	access, err := h.service.GenerateDashboardAccess(r.Context(), sheetID, req.Code)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("dashboard access generated")
	httpx.JSON(w, http.StatusOK, access)
}

// VerifyDashboard exchanges the dashboard token plus code for company info
// and an access token.
func (h *Handler) VerifyDashboard(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req struct {
		Token string `json:"token"`
		Code  string `json:"codigo"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	company, access, err := h.service.VerifyDashboard(r.Context(), sheetID, req.Token, req.Code)
	if err != nil {
		h.logger.Warn("dashboard verification failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"empresa":     company,
		"tokenAcceso": access,
	})
}
