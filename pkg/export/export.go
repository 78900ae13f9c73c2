// Package export renders amortization schedules as XLSX workbooks and PDF
// documents.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/loans"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Supported export formats.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const maxSheetNameLength = 31

// ScheduleDocument is one loan schedule to export.
type ScheduleDocument struct {
	Name         string
	Principal    float64
	InterestRate float64
	TenureMonths int
	EMI          float64
	Summary      loans.ScheduleSummary
	Entries      []loans.AmortizationEntry
}

// NewScheduleDocument builds a document from generated entries.
func NewScheduleDocument(name string, principal, interestRate float64, tenureMonths int, emi float64, entries []loans.AmortizationEntry) ScheduleDocument {
	return ScheduleDocument{
		Name:         name,
		Principal:    principal,
		InterestRate: interestRate,
		TenureMonths: tenureMonths,
		EMI:          emi,
		Summary:      loans.Summarize(entries),
		Entries:      entries,
	}
}

// FormatFromPath infers the export format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case FormatXLSX, FormatPDF:
		return ext, nil
	default:
		return "", calcerr.Invalid("unsupported export file %q: expected .xlsx or .pdf", path)
	}
}

// Build renders docs in the given format.
func Build(format string, docs []ScheduleDocument) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatXLSX:
		return BuildScheduleXLSX(docs)
	case FormatPDF:
		return BuildSchedulePDF(docs)
	default:
		return nil, calcerr.Invalid("unsupported export format %q", format)
	}
}

// WriteFile renders docs in the format implied by path and writes the file.
func WriteFile(path string, docs []ScheduleDocument) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Build(format, docs)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// BuildScheduleXLSX renders a workbook with a summary sheet and one sheet per
// schedule.
func BuildScheduleXLSX(docs []ScheduleDocument) ([]byte, error) {
	if len(docs) == 0 {
		return nil, calcerr.Invalid("nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	headers := []string{"Loan", "Principal", "Rate (%)", "Tenure", "EMI", "Total interest", "Total paid", "Final date"}
	for col, header := range headers {
		_ = f.SetCellValue(summarySheet, cell(col, 1), header)
	}

	used := map[string]bool{summarySheet: true}
	for i, doc := range docs {
		row := i + 2
		_ = f.SetCellValue(summarySheet, cell(0, row), doc.Name)
		_ = f.SetCellValue(summarySheet, cell(1, row), doc.Principal)
		_ = f.SetCellValue(summarySheet, cell(2, row), doc.InterestRate)
		_ = f.SetCellValue(summarySheet, cell(3, row), doc.TenureMonths)
		_ = f.SetCellValue(summarySheet, cell(4, row), doc.EMI)
		_ = f.SetCellValue(summarySheet, cell(5, row), doc.Summary.TotalInterest)
		_ = f.SetCellValue(summarySheet, cell(6, row), doc.Summary.TotalPaid)
		if !doc.Summary.FinalDate.IsZero() {
			_ = f.SetCellValue(summarySheet, cell(7, row), doc.Summary.FinalDate.Format(constants.DateLayout))
		}

		sheet := sheetName(doc.Name, i, used)
		used[sheet] = true
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		writeEntries(f, sheet, doc.Entries)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeEntries(f *excelize.File, sheet string, entries []loans.AmortizationEntry) {
	headers := []string{"Month", "Date", "Opening balance", "EMI", "Principal", "Interest", "Closing balance"}
	for col, header := range headers {
		_ = f.SetCellValue(sheet, cell(col, 1), header)
	}
	for i, entry := range entries {
		row := i + 2
		_ = f.SetCellValue(sheet, cell(0, row), entry.Month)
		_ = f.SetCellValue(sheet, cell(1, row), entry.Date.Format(constants.DateLayout))
		_ = f.SetCellValue(sheet, cell(2, row), entry.OpeningBalance)
		_ = f.SetCellValue(sheet, cell(3, row), entry.EMI)
		_ = f.SetCellValue(sheet, cell(4, row), entry.PrincipalComponent)
		_ = f.SetCellValue(sheet, cell(5, row), entry.InterestComponent)
		_ = f.SetCellValue(sheet, cell(6, row), entry.ClosingBalance)
	}
}

// cell returns the A1 reference of a zero-based column and one-based row.
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

func sheetName(name string, index int, used map[string]bool) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		cleaned = fmt.Sprintf("Loan %d", index+1)
	}
	if len(cleaned) > maxSheetNameLength {
		cleaned = cleaned[:maxSheetNameLength]
	}
	candidate := cleaned
	for n := 2; used[candidate]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := cleaned
		if len(base)+len(suffix) > maxSheetNameLength {
			base = base[:maxSheetNameLength-len(suffix)]
		}
		candidate = base + suffix
	}
	return candidate
}

// BuildSchedulePDF renders one section per schedule.
func BuildSchedulePDF(docs []ScheduleDocument) ([]byte, error) {
	if len(docs) == 0 {
		return nil, calcerr.Invalid("nothing to export")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	widths := []float64{14, 26, 30, 26, 30, 28, 30}
	headers := []string{"Month", "Date", "Opening", "EMI", "Principal", "Interest", "Closing"}

	for _, doc := range docs {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 8, fmt.Sprintf("Amortization schedule: %s", doc.Name))
		pdf.Ln(10)

		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Principal: %.2f", doc.Principal))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Interest rate: %.2f%% p.a.", doc.InterestRate))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Tenure: %d months", doc.TenureMonths))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("EMI: %.2f", doc.EMI))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Total interest: %.2f", doc.Summary.TotalInterest))
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 9)
		for i, header := range headers {
			pdf.CellFormat(widths[i], 6, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, entry := range doc.Entries {
			pdf.CellFormat(widths[0], 5, fmt.Sprintf("%d", entry.Month), "1", 0, "C", false, 0, "")
			pdf.CellFormat(widths[1], 5, entry.Date.Format(constants.DateLayout), "1", 0, "C", false, 0, "")
			pdf.CellFormat(widths[2], 5, fmt.Sprintf("%.0f", entry.OpeningBalance), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[3], 5, fmt.Sprintf("%.0f", entry.EMI), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[4], 5, fmt.Sprintf("%.0f", entry.PrincipalComponent), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[5], 5, fmt.Sprintf("%.0f", entry.InterestComponent), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[6], 5, fmt.Sprintf("%.0f", entry.ClosingBalance), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
