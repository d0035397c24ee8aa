package infra

// pdf.go — account statement PDFs using go-pdf/fpdf.
// A5 landscape sheet: business header, client block, movement table
// (date, concept, debit/credit), balance and container lines.
// Output is saved to storagePath/resumen_{client}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"soderia/internal/dto"

	"github.com/go-pdf/fpdf"
)

// GenerateStatementPDF renders the account statement of one client.
// storagePath is created if needed; returns the absolute path written.
func GenerateStatementPDF(st *dto.StatementResponse, businessName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("resumen_%s.pdf", st.Client.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("L", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, businessName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Resumen de Cuenta Corriente", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	// ── Client block ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, st.Client.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, st.Client.Address, "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	// ── Movement table ───────────────────────────────────────────────────────
	col1 := contentW * 0.20 // date
	col2 := contentW * 0.46 // concept
	col3 := contentW * 0.17 // debit
	col4 := contentW * 0.17 // credit

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 5, "Fecha", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Concepto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "Debe", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 5, "Haber", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, e := range st.Entries {
		concept := e.Concept
		if len(concept) > 42 {
			concept = concept[:41] + "…"
		}
		debit, credit := "", ""
		if e.Type == "DEBIT" {
			debit = "$" + e.Amount.StringFixed(2)
		} else {
			credit = "$" + e.Amount.StringFixed(2)
		}
		pdf.CellFormat(col1, 5, e.CreatedAt[:10], "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, concept, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, debit, "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 5, credit, "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1+col2+col3, 6, "SALDO:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+st.Balance.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(col1+col2+col3, 5, "Envases en su poder:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 5, fmt.Sprintf("%d", st.Containers), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
