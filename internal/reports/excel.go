package reports

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/cxcontrol/cxcontrol/internal/ledger"
)

// crcFormat is the colón currency number format applied to amount cells.
const crcFormat = "₡#,##0.00"

// ExcelRenderer turns assembled reports into XLSX workbooks.
type ExcelRenderer struct {
	assembler *Assembler
}

// NewExcelRenderer builds an ExcelRenderer instance.
func NewExcelRenderer(assembler *Assembler) *ExcelRenderer {
	return &ExcelRenderer{assembler: assembler}
}

type workbook struct {
	f        *excelize.File
	header   int
	currency int
	bold     int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2B6CB0"}},
	})
	if err != nil {
		return nil, err
	}
	crc := crcFormat
	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: &crc})
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	return &workbook{f: f, header: header, currency: currency, bold: bold}, nil
}

func (wb *workbook) writeHeaders(sheet string, row int, headers []string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := wb.f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := wb.f.SetCellStyle(sheet, cell, cell, wb.header); err != nil {
			return err
		}
	}
	return nil
}

func (wb *workbook) setCurrency(sheet string, col, row int, v float64) error {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	if err := wb.f.SetCellValue(sheet, cell, v); err != nil {
		return err
	}
	return wb.f.SetCellStyle(sheet, cell, cell, wb.currency)
}

func (wb *workbook) bytes() ([]byte, error) {
	buf, err := wb.f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Overdue builds the overdue-invoices workbook.
func (r *ExcelRenderer) Overdue(ctx context.Context, sheetID string) ([]byte, error) {
	o, err := r.assembler.BuildOverdue(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	const sheet = "Sheet1"
	if err := wb.f.SetSheetName(sheet, "Facturas Vencidas"); err != nil {
		return nil, err
	}
	name := "Facturas Vencidas"
	_ = wb.f.SetCellValue(name, "A1", "REPORTE DE FACTURAS VENCIDAS")
	_ = wb.f.SetCellStyle(name, "A1", "A1", wb.bold)
	_ = wb.f.SetCellValue(name, "A2", "Generado: "+o.GeneratedAt.Format("02/01/2006 15:04"))
	_ = wb.f.SetCellValue(name, "A4", fmt.Sprintf("Total Facturas Vencidas: %d", o.Count))
	_ = wb.f.SetCellValue(name, "A5", fmt.Sprintf("Monto Total Vencido: ₡%.2f", o.Total))

	if err := wb.writeHeaders(name, 7, []string{"Consecutivo", "Cliente", "Fecha", "Vencimiento", "Días Atraso", "Monto (CRC)"}); err != nil {
		return nil, err
	}
	for i, row := range o.Rows {
		line := i + 8
		_ = wb.f.SetCellStr(name, fmt.Sprintf("A%d", line), row.Consecutivo)
		_ = wb.f.SetCellValue(name, fmt.Sprintf("B%d", line), row.ClientName)
		_ = wb.f.SetCellValue(name, fmt.Sprintf("C%d", line), formatDay(row.IssueDate))
		_ = wb.f.SetCellValue(name, fmt.Sprintf("D%d", line), formatDay(row.DueDate))
		_ = wb.f.SetCellValue(name, fmt.Sprintf("E%d", line), row.Days)
		if err := wb.setCurrency(name, 6, line, row.Balance); err != nil {
			return nil, err
		}
	}
	_ = wb.f.SetColWidth(name, "A", "F", 18)
	return wb.bytes()
}

// ByType builds the product-type grouping workbook.
func (r *ExcelRenderer) ByType(ctx context.Context, sheetID string) ([]byte, error) {
	bt, err := r.assembler.BuildByType(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	const name = "Por Tipo Producto"
	if err := wb.f.SetSheetName("Sheet1", name); err != nil {
		return nil, err
	}
	_ = wb.f.SetCellValue(name, "A1", "REPORTE POR TIPO DE PRODUCTO")
	_ = wb.f.SetCellStyle(name, "A1", "A1", wb.bold)
	_ = wb.f.SetCellValue(name, "A2", "Generado: "+bt.GeneratedAt.Format("02/01/2006 15:04"))

	row := 4
	for _, g := range bt.Groups {
		_ = wb.f.SetCellValue(name, fmt.Sprintf("A%d", row), g.ProductType)
		_ = wb.f.SetCellStyle(name, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), wb.bold)
		_ = wb.f.SetCellValue(name, fmt.Sprintf("B%d", row), fmt.Sprintf("%d facturas", g.Count))
		if err := wb.setCurrency(name, 3, row, g.Total); err != nil {
			return nil, err
		}
		row++
	}
	row++
	_ = wb.f.SetCellValue(name, fmt.Sprintf("A%d", row), "TOTAL")
	_ = wb.f.SetCellStyle(name, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), wb.bold)
	if err := wb.setCurrency(name, 3, row, bt.GrandTotal); err != nil {
		return nil, err
	}
	_ = wb.f.SetColWidth(name, "A", "C", 25)
	return wb.bytes()
}

// Export builds the full workbook: one sheet of documents, one of clients.
func (r *ExcelRenderer) Export(ctx context.Context, sheetID string) ([]byte, error) {
	export, err := r.assembler.BuildExport(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	const facturas = "Facturas"
	if err := wb.f.SetSheetName("Sheet1", facturas); err != nil {
		return nil, err
	}
	if err := wb.writeHeaders(facturas, 1, []string{
		"Consecutivo", "Fecha", "Cliente", "Cédula", "Tipo Producto", "N° OC",
		"Total (CRC)", "CORFOGA", "Otros Rebajos", "Monto (CRC)", "Abonado", "Saldo",
		"Vencimiento", "Estado", "Fecha Pago", "Notas",
	}); err != nil {
		return nil, err
	}
	for i, d := range export.Documents {
		line := i + 2
		_ = wb.f.SetCellStr(facturas, fmt.Sprintf("A%d", line), d.Consecutivo)
		_ = wb.f.SetCellValue(facturas, fmt.Sprintf("B%d", line), formatDay(d.IssueDate))
		_ = wb.f.SetCellValue(facturas, fmt.Sprintf("C%d", line), d.ClientName)
		_ = wb.f.SetCellValue(facturas, fmt.Sprintf("D%d", line), d.ClientTaxID)
		_ = wb.f.SetCellValue(facturas, fmt.Sprintf("E%d", line), d.ProductType)
		_ = wb.f.SetCellValue(facturas, fmt.Sprintf("F%d", line), d.PurchaseOrder)
		for col, v := range map[int]float64{7: d.GrossTotal, 8: d.Corfoga, 9: d.OtherDeductions, 10: d.NetCollectible, 11: d.PaidTotal, 12: d.Balance} {
			if err := wb.setCurrency(facturas, col, line, v); err != nil {
				return nil, err
			}
		}
		_ = wb.f.SetCellValue(facturas, fmt.Sprintf("M%d", line), formatDay(d.DueDate))
		_ = wb.f.SetCellValue(facturas, fmt.Sprintf("N%d", line), string(d.State))
		if d.State == ledger.StatePaid {
			_ = wb.f.SetCellValue(facturas, fmt.Sprintf("O%d", line), formatDay(d.SettledDate))
		}
		_ = wb.f.SetCellValue(facturas, fmt.Sprintf("P%d", line), d.Notes)
	}
	_ = wb.f.SetColWidth(facturas, "A", "P", 15)

	const clientes = "Clientes"
	if _, err := wb.f.NewSheet(clientes); err != nil {
		return nil, err
	}
	if err := wb.writeHeaders(clientes, 1, []string{"Nombre", "Identificación", "Días Crédito", "Estado"}); err != nil {
		return nil, err
	}
	for i, c := range export.Clients {
		line := i + 2
		state := "Activo"
		if !c.Active {
			state = "Inactivo"
		}
		_ = wb.f.SetCellValue(clientes, fmt.Sprintf("A%d", line), c.Name)
		_ = wb.f.SetCellValue(clientes, fmt.Sprintf("B%d", line), c.TaxID)
		_ = wb.f.SetCellValue(clientes, fmt.Sprintf("C%d", line), c.CreditDays)
		_ = wb.f.SetCellValue(clientes, fmt.Sprintf("D%d", line), state)
	}
	_ = wb.f.SetColWidth(clientes, "A", "D", 20)
	return wb.bytes()
}

// Statement builds one client's statement workbook.
func (r *ExcelRenderer) Statement(ctx context.Context, sheetID, clientID string) ([]byte, error) {
	st, err := r.assembler.BuildStatement(ctx, sheetID, clientID)
	if err != nil {
		return nil, err
	}
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	const name = "Estado de Cuenta"
	if err := wb.f.SetSheetName("Sheet1", name); err != nil {
		return nil, err
	}
	_ = wb.f.SetCellValue(name, "A1", "ESTADO DE CUENTA")
	_ = wb.f.SetCellStyle(name, "A1", "A1", wb.bold)
	_ = wb.f.SetCellValue(name, "A3", "Cliente: "+st.Client.Name)
	_ = wb.f.SetCellValue(name, "A4", "Cédula: "+st.Client.TaxID)
	_ = wb.f.SetCellValue(name, "A5", fmt.Sprintf("Días de Crédito: %d", st.Client.CreditDays))
	_ = wb.f.SetCellValue(name, "A6", "Fecha: "+st.GeneratedAt.Format("02/01/2006"))
	_ = wb.f.SetCellValue(name, "A8", fmt.Sprintf("Total Pendiente: ₡%.2f", st.TotalPending))
	_ = wb.f.SetCellValue(name, "A9", fmt.Sprintf("Total Pagado: ₡%.2f", st.TotalPaid))

	if err := wb.writeHeaders(name, 11, []string{"Consecutivo", "Fecha", "Vencimiento", "Total (CRC)", "CORFOGA", "Saldo (CRC)", "Estado"}); err != nil {
		return nil, err
	}
	for i, row := range st.Pending {
		line := i + 12
		_ = wb.f.SetCellStr(name, fmt.Sprintf("A%d", line), row.Consecutivo)
		_ = wb.f.SetCellValue(name, fmt.Sprintf("B%d", line), formatDay(row.IssueDate))
		_ = wb.f.SetCellValue(name, fmt.Sprintf("C%d", line), formatDay(row.DueDate))
		for col, v := range map[int]float64{4: row.GrossTotal, 5: row.Corfoga, 6: row.Balance} {
			if err := wb.setCurrency(name, col, line, v); err != nil {
				return nil, err
			}
		}
		_ = wb.f.SetCellValue(name, fmt.Sprintf("G%d", line), dueLabel(row.Days, row.Overdue))
	}
	_ = wb.f.SetColWidth(name, "A", "A", 22)
	_ = wb.f.SetColWidth(name, "B", "G", 16)
	return wb.bytes()
}

// ClientSummary builds the per-client summary workbook.
func (r *ExcelRenderer) ClientSummary(ctx context.Context, sheetID string) ([]byte, error) {
	s, err := r.assembler.BuildClientSummary(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	const name = "Resumen por Cliente"
	if err := wb.f.SetSheetName("Sheet1", name); err != nil {
		return nil, err
	}
	_ = wb.f.SetCellValue(name, "A1", "RESUMEN DE CUENTAS POR COBRAR - "+s.GeneratedAt.Format("02/01/2006"))
	_ = wb.f.SetCellStyle(name, "A1", "A1", wb.bold)

	if err := wb.writeHeaders(name, 3, []string{"Cliente", "Identificación", "Fact. Pend.", "Pendiente (CRC)", "Vencido", "Cobrado (Mes)", "% Vencido"}); err != nil {
		return nil, err
	}
	for i, row := range s.Rows {
		line := i + 4
		_ = wb.f.SetCellValue(name, fmt.Sprintf("A%d", line), row.Name)
		_ = wb.f.SetCellValue(name, fmt.Sprintf("B%d", line), row.TaxID)
		_ = wb.f.SetCellValue(name, fmt.Sprintf("C%d", line), row.PendingCount)
		for col, v := range map[int]float64{4: row.Pending, 5: row.Overdue, 6: row.CollectedMonth} {
			if err := wb.setCurrency(name, col, line, v); err != nil {
				return nil, err
			}
		}
		_ = wb.f.SetCellValue(name, fmt.Sprintf("G%d", line), fmt.Sprintf("%.0f%%", row.OverduePct))
	}
	totalRow := len(s.Rows) + 4
	_ = wb.f.SetCellValue(name, fmt.Sprintf("A%d", totalRow), "TOTAL")
	_ = wb.f.SetCellStyle(name, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("A%d", totalRow), wb.bold)
	_ = wb.f.SetCellValue(name, fmt.Sprintf("C%d", totalRow), s.PendingCount)
	for col, v := range map[int]float64{4: s.TotalPending, 5: s.TotalOverdue, 6: s.TotalCollectedMonth} {
		if err := wb.setCurrency(name, col, totalRow, v); err != nil {
			return nil, err
		}
	}
	_ = wb.f.SetColWidth(name, "A", "A", 35)
	_ = wb.f.SetColWidth(name, "B", "G", 16)
	return wb.bytes()
}
