package business

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cxcontrol/cxcontrol/internal/auth"
	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

// Handler manages registry endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers registry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/actual", h.current)
	r.Post("/activar/{id}", h.activate)
	r.Put("/{id}", h.update)
	// Removing a business orphans its spreadsheet data, so only admins may.
	r.With(auth.RequireRole(auth.RoleAdmin)).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	businesses, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list businesses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, businesses)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	b, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create business", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("business registered", slog.String("id", b.ID), slog.String("name", b.Name))
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	b, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("business removed", slog.String("id", id))
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("business activated", slog.String("id", b.ID), slog.String("sheet_id", b.SheetID))
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Current(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if b == nil {
		httpx.JSON(w, http.StatusOK, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}
