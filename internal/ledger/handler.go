package ledger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cxcontrol/cxcontrol/internal/business"
	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

// Handler manages document and payment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers document routes under /facturas.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/batch", h.importBatch)
	r.Post("/compensar", h.compensate)
	r.Get("/pendientes/{clienteID}", h.pendingForClient)
	r.Put("/{id}", h.update)
	r.Get("/{id}", h.get)
	r.Post("/{id}/pago", h.registerFullPayment)
	r.Post("/{id}/abonos", h.registerPayment)
	r.Get("/{id}/abonos", h.listPayments)
}

// MountPaymentRoutes registers abono routes that are not nested under an
// invoice.
func (h *Handler) MountPaymentRoutes(r chi.Router) {
	r.Delete("/{id}", h.reversePayment)
}

func (h *Handler) sheetID(r *http.Request) (string, error) {
	return business.SheetFromContext(r.Context())
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	docs, err := h.service.ListDocuments(r.Context(), sheetID)
	if err != nil {
		h.logger.Error("list documents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, docs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.GetDocument(r.Context(), sheetID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input CreateDocumentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	doc, err := h.service.CreateDocument(r.Context(), sheetID, input)
	if err != nil {
		h.logger.Error("create document", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("document registered",
		slog.String("id", doc.ID),
		slog.String("consecutivo", doc.Consecutivo),
		slog.String("type", string(doc.Type)))
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) importBatch(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var inputs []CreateDocumentInput
	if err := httpx.DecodeJSON(r, &inputs); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	result, err := h.service.ImportDocuments(r.Context(), sheetID, inputs)
	if err != nil {
		h.logger.Error("import documents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("documents imported",
		slog.Int("imported", result.Imported),
		slog.Int("duplicates", len(result.Duplicates)))
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateDocumentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	doc, err := h.service.UpdateDocument(r.Context(), sheetID, chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

type paymentRequest struct {
	Amount    float64 `json:"monto"`
	Date      string  `json:"fecha"`
	Method    string  `json:"metodoPago"`
	Reference string  `json:"referencia"`
	Notes     string  `json:"notas"`
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	input := PaymentInput{
		Amount:    req.Amount,
		Date:      parseDateParam(req.Date),
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
	}
	invoiceID := chi.URLParam(r, "id")
	payment, err := h.service.RegisterPayment(r.Context(), sheetID, invoiceID, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("payment registered",
		slog.String("invoice_id", invoiceID),
		slog.Float64("amount", payment.Amount))
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) registerFullPayment(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req struct {
		Date  string `json:"fechaPago"`
		Notes string `json:"notas"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	invoiceID := chi.URLParam(r, "id")
	doc, err := h.service.RegisterFullPayment(r.Context(), sheetID, invoiceID, parseDateParam(req.Date), req.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("invoice settled", slog.String("invoice_id", invoiceID))
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payments, total, err := h.service.ListPaymentsForInvoice(r.Context(), sheetID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"abonos": payments,
		"total":  total,
	})
}

func (h *Handler) reversePayment(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	paymentID := chi.URLParam(r, "id")
	doc, err := h.service.ReversePayment(r.Context(), sheetID, paymentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("payment reversed",
		slog.String("payment_id", paymentID),
		slog.String("invoice_id", doc.ID))
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) compensate(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req struct {
		CreditNoteID string  `json:"notaCreditoId" validate:"required"`
		InvoiceID    string  `json:"facturaId" validate:"required"`
		Amount       float64 `json:"monto"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := h.service.Compensate(r.Context(), sheetID, req.CreditNoteID, req.InvoiceID, req.Amount)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("documents compensated",
		slog.String("credit_note_id", req.CreditNoteID),
		slog.String("invoice_id", req.InvoiceID),
		slog.Float64("amount", amount))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"montoCompensado":   amount,
		"notaCreditoId":     req.CreditNoteID,
		"facturaCompensada": req.InvoiceID,
	})
}

func (h *Handler) pendingForClient(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	docs, err := h.service.PendingInvoicesForClient(r.Context(), sheetID, chi.URLParam(r, "clienteID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, docs)
}

func parseDateParam(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
