package profile

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cxcontrol/cxcontrol/internal/business"
	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

// Handler manages settings endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.Post("/", h.save)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	config, err := h.service.Get(r.Context(), sheetID)
	if err != nil {
		h.logger.Error("load config", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"config": config})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var values map[string]string
	if err := httpx.DecodeJSON(r, &values); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.service.Save(r.Context(), sheetID, values); err != nil {
		h.logger.Error("save config", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
