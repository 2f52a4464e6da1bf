// Package report renders project documents as PDF files.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/appprovts/SolarFlowPro/internal/repository"
)

// MemorialPDF renders the descriptive memorial draft as an A4 document
// ready to attach to the utility submission.
func MemorialPDF(project *repository.Project) ([]byte, error) {
	if project.Memorial == nil || *project.Memorial == "" {
		return nil, fmt.Errorf("project has no memorial draft")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("Memorial Descritivo"), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("Sistema Fotovoltaico Conectado à Rede"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// Project data block
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, tr("Dados do Projeto"), "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	writeField(pdf, tr, "Cliente", project.ClientName)
	writeField(pdf, tr, "Endereço", project.Address)
	writeField(pdf, tr, "Potência do Gerador", project.PowerKwp.String()+" kWp")
	writeField(pdf, tr, "Produção Mensal Estimada", project.EstimatedProduction.String()+" kWh")
	if project.ConcessionariaStatus != nil {
		writeField(pdf, tr, "Situação na Concessionária", *project.ConcessionariaStatus)
	}
	pdf.Ln(4)

	// Memorial body: blank lines separate paragraphs, leading "#" lines
	// from the draft become section headings.
	for _, paragraph := range strings.Split(*project.Memorial, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if heading, ok := asHeading(paragraph); ok {
			pdf.SetFont("Arial", "B", 12)
			pdf.MultiCell(0, 7, tr(heading), "", "L", false)
			pdf.SetFont("Arial", "", 10)
			continue
		}
		pdf.MultiCell(0, 5, tr(paragraph), "", "J", false)
		pdf.Ln(2)
	}

	// Footer line
	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Gerado em %s", time.Now().Format("02/01/2006"))), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf render error: %w", err)
	}
	return buf.Bytes(), nil
}

func writeField(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, tr(label+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

func asHeading(paragraph string) (string, bool) {
	if !strings.HasPrefix(paragraph, "#") {
		return "", false
	}
	if strings.Contains(paragraph, "\n") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(paragraph, "# ")), true
}
