package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cxcontrol/cxcontrol/internal/business"
	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler manages report endpoints. Every report is served as JSON rows, and
// the PDF/XLSX variants hang off the same path.
type Handler struct {
	logger    *slog.Logger
	assembler *Assembler
	pdf       *PDFRenderer
	excel     *ExcelRenderer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, assembler *Assembler, pdf *PDFRenderer, excel *ExcelRenderer) *Handler {
	return &Handler{logger: logger, assembler: assembler, pdf: pdf, excel: excel}
}

// MountRoutes registers report routes under /reportes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/semanal", h.weekly)
	r.Get("/semanal/pdf", h.weeklyPDF)
	r.Get("/vencidas", h.overdue)
	r.Get("/vencidas/pdf", h.overduePDF)
	r.Get("/vencidas/xlsx", h.overdueXLSX)
	r.Get("/resumen-clientes", h.clientSummary)
	r.Get("/resumen-clientes/pdf", h.clientSummaryPDF)
	r.Get("/resumen-clientes/xlsx", h.clientSummaryXLSX)
	r.Get("/por-tipo", h.byType)
	r.Get("/por-tipo/xlsx", h.byTypeXLSX)
	r.Get("/antiguedad", h.aging)
	r.Get("/exportar-todo", h.exportAll)
	r.Get("/cliente/{clienteID}", h.statement)
	r.Get("/cliente/{clienteID}/pdf", h.statementPDF)
	r.Get("/cliente/{clienteID}/xlsx", h.statementXLSX)
}

func (h *Handler) sheetID(r *http.Request) (string, error) {
	return business.SheetFromContext(r.Context())
}

func stamp() string {
	return time.Now().Format("20060102")
}

func (h *Handler) respondJSON(w http.ResponseWriter, data any, err error) {
	if err != nil {
		h.logger.Error("assemble report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) respondFile(w http.ResponseWriter, contentType, filename string, data []byte, err error) {
	if err != nil {
		h.logger.Error("render report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Attachment(w, contentType, filename, data)
}

func (h *Handler) weekly(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.assembler.BuildWeekly(r.Context(), sheetID)
	h.respondJSON(w, data, err)
}

func (h *Handler) weeklyPDF(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.pdf.Weekly(r.Context(), sheetID)
	h.respondFile(w, "application/pdf", "Reporte_Semanal_"+stamp()+".pdf", pdf, err)
}

func (h *Handler) overdue(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.assembler.BuildOverdue(r.Context(), sheetID)
	h.respondJSON(w, data, err)
}

func (h *Handler) overduePDF(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.pdf.Overdue(r.Context(), sheetID)
	h.respondFile(w, "application/pdf", "Facturas_Vencidas_"+stamp()+".pdf", pdf, err)
}

func (h *Handler) overdueXLSX(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.excel.Overdue(r.Context(), sheetID)
	h.respondFile(w, xlsxContentType, "Facturas_Vencidas_"+stamp()+".xlsx", data, err)
}

func (h *Handler) clientSummary(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.assembler.BuildClientSummary(r.Context(), sheetID)
	h.respondJSON(w, data, err)
}

func (h *Handler) clientSummaryPDF(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.pdf.ClientSummary(r.Context(), sheetID)
	h.respondFile(w, "application/pdf", "Resumen_Clientes_"+stamp()+".pdf", pdf, err)
}

func (h *Handler) clientSummaryXLSX(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.excel.ClientSummary(r.Context(), sheetID)
	h.respondFile(w, xlsxContentType, "Resumen_Clientes_"+stamp()+".xlsx", data, err)
}

func (h *Handler) byType(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.assembler.BuildByType(r.Context(), sheetID)
	h.respondJSON(w, data, err)
}

func (h *Handler) byTypeXLSX(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.excel.ByType(r.Context(), sheetID)
	h.respondFile(w, xlsxContentType, "Reporte_Por_Tipo_"+stamp()+".xlsx", data, err)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.assembler.BuildAging(r.Context(), sheetID)
	h.respondJSON(w, data, err)
}

func (h *Handler) exportAll(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.excel.Export(r.Context(), sheetID)
	h.respondFile(w, xlsxContentType, "Control_CxC_"+stamp()+".xlsx", data, err)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.assembler.BuildStatement(r.Context(), sheetID, chi.URLParam(r, "clienteID"))
	h.respondJSON(w, data, err)
}

func statementFilename(name, ext string) string {
	cleaned := strings.ReplaceAll(name, " ", "_")
	if len(cleaned) > 20 {
		cleaned = cleaned[:20]
	}
	return fmt.Sprintf("Estado_Cuenta_%s_%s.%s", cleaned, stamp(), ext)
}

func (h *Handler) statementPDF(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	clientID := chi.URLParam(r, "clienteID")
	st, err := h.assembler.BuildStatement(r.Context(), sheetID, clientID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.pdf.Statement(r.Context(), sheetID, clientID)
	h.respondFile(w, "application/pdf", statementFilename(st.Client.Name, "pdf"), pdf, err)
}

func (h *Handler) statementXLSX(w http.ResponseWriter, r *http.Request) {
	sheetID, err := h.sheetID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	clientID := chi.URLParam(r, "clienteID")
	st, err := h.assembler.BuildStatement(r.Context(), sheetID, clientID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.excel.Statement(r.Context(), sheetID, clientID)
	h.respondFile(w, xlsxContentType, statementFilename(st.Client.Name, "xlsx"), data, err)
}
