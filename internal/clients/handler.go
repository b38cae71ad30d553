package clients

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cxcontrol/cxcontrol/internal/business"
	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

// Handler manages client catalogue endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Post("/{id}/toggle", h.toggle)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	clients, err := h.service.List(r.Context(), sheetID)
	if err != nil {
		h.logger.Error("list clients", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.Create(r.Context(), sheetID, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("client registered", slog.String("id", c.ID), slog.String("name", c.Name))
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	c, err := h.service.Update(r.Context(), sheetID, chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	sheetID, err := business.SheetFromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Toggle(r.Context(), sheetID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("client toggled", slog.String("id", c.ID), slog.Bool("active", c.Active))
	httpx.JSON(w, http.StatusOK, c)
}
