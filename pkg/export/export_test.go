package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/loans"
	"github.com/xuri/excelize/v2"
)

func testDocument(t *testing.T, name string) ScheduleDocument {
	t.Helper()
	entries, err := loans.GenerateSchedule(100000, 12, 12, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	emi, err := loans.CalculateEMI(100000, 12, 12)
	if err != nil {
		t.Fatalf("CalculateEMI() error = %v", err)
	}
	return NewScheduleDocument(name, 100000, 12, 12, emi, entries)
}

func TestBuildScheduleXLSX(t *testing.T) {
	docs := []ScheduleDocument{testDocument(t, "Car"), testDocument(t, "Car"), testDocument(t, "Home/Top-up")}

	data, err := BuildScheduleXLSX(docs)
	if err != nil {
		t.Fatalf("BuildScheduleXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	expectedSheets := []string{"Summary", "Car", "Car (2)", "Home_Top-up"}
	sheets := f.GetSheetList()
	if len(sheets) != len(expectedSheets) {
		t.Fatalf("sheets = %v, expected %v", sheets, expectedSheets)
	}
	for i, name := range expectedSheets {
		if sheets[i] != name {
			t.Errorf("sheet %d = %s, expected %s", i, sheets[i], name)
		}
	}

	if value, _ := f.GetCellValue("Summary", "A2"); value != "Car" {
		t.Errorf("Summary!A2 = %q, expected Car", value)
	}
	rows, err := f.GetRows("Car")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 13 {
		t.Errorf("Car sheet has %d rows, expected header plus 12 entries", len(rows))
	}
	if rows[1][1] != "2025-01-05" {
		t.Errorf("first entry date = %s, expected 2025-01-05", rows[1][1])
	}
	if rows[12][6] != "0" {
		t.Errorf("final closing balance = %s, expected 0", rows[12][6])
	}
}

func TestBuildSchedulePDF(t *testing.T) {
	data, err := BuildSchedulePDF([]ScheduleDocument{testDocument(t, "Car")})
	if err != nil {
		t.Fatalf("BuildSchedulePDF() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF: %q", data[:8])
	}
}

func TestBuildRejectsEmptyAndUnknown(t *testing.T) {
	for _, format := range []string{FormatXLSX, FormatPDF} {
		if _, err := Build(format, nil); !errors.Is(err, calcerr.ErrInvalidInput) {
			t.Errorf("Build(%s, nil) expected ErrInvalidInput, got %v", format, err)
		}
	}
	if _, err := Build("docx", []ScheduleDocument{testDocument(t, "Car")}); !errors.Is(err, calcerr.ErrInvalidInput) {
		t.Errorf("Build(docx) expected ErrInvalidInput, got %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path      string
		expected  string
		wantError bool
	}{
		{"schedule.xlsx", FormatXLSX, false},
		{"out/Schedule.PDF", FormatPDF, false},
		{"schedule.csv", "", true},
		{"schedule", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantError {
				if err == nil {
					t.Errorf("FormatFromPath(%s) expected error", tt.path)
				}
				return
			}
			if err != nil || got != tt.expected {
				t.Errorf("FormatFromPath(%s) = %s, %v; expected %s", tt.path, got, err, tt.expected)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.pdf")
	if err := WriteFile(path, []ScheduleDocument{testDocument(t, "Car")}); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Error("written file is not a PDF")
	}
}

func TestSheetNameTruncation(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("x", 40)
	first := sheetName(long, 0, used)
	used[first] = true
	second := sheetName(long, 1, used)

	if len(first) != maxSheetNameLength || len(second) != maxSheetNameLength {
		t.Errorf("lengths = %d, %d; expected %d", len(first), len(second), maxSheetNameLength)
	}
	if first == second {
		t.Error("expected distinct names for duplicates")
	}
	if got := sheetName("  ", 2, used); got != "Loan 3" {
		t.Errorf("sheetName(blank) = %s, expected Loan 3", got)
	}
}
