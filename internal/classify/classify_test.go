// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"testing"

	"github.com/pdiddy/pdflock/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want types.Format
	}{
		{"report.pdf", types.FormatPDF},
		{"REPORT.PDF", types.FormatPDF},
		{"/abs/dir/memo.docx", types.FormatWord},
		{"legacy.doc", types.FormatWord},
		{"sheet.xlsx", types.FormatExcel},
		{"sheet.XLS", types.FormatExcel},
		{"deck.pptx", types.FormatPowerPoint},
		{"deck.Ppt", types.FormatPowerPoint},
		{"notes.txt", types.FormatUnsupported},
		{"archive.zip", types.FormatUnsupported},
		{"noextension", types.FormatUnsupported},
		{"trailing.dot.", types.FormatUnsupported},
		{"", types.FormatUnsupported},
		{"dir.pdf/file", types.FormatUnsupported},
	}

	for _, tt := range tests {
		if got := Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSupported(t *testing.T) {
	if !Supported("a.pdf") {
		t.Error("Supported(a.pdf) = false, want true")
	}
	if Supported("a.csv") {
		t.Error("Supported(a.csv) = true, want false")
	}
}

func TestIsOffice(t *testing.T) {
	for _, f := range []types.Format{types.FormatWord, types.FormatExcel, types.FormatPowerPoint} {
		if !f.IsOffice() {
			t.Errorf("%q.IsOffice() = false, want true", f)
		}
	}
	if types.FormatPDF.IsOffice() {
		t.Error("pdf.IsOffice() = true, want false")
	}
	if types.FormatUnsupported.IsOffice() {
		t.Error("unsupported.IsOffice() = true, want false")
	}
}
