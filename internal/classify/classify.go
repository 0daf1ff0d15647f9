// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify maps input file paths onto document formats.
// Classification is purely lexical: it looks at the extension and never
// opens the file. See docs/ARCHITECTURE § Classification.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdflock/pkg/types"
)

// extensions maps lowercase file extensions onto formats. Legacy Office
// extensions are included because both conversion backends accept them.
var extensions = map[string]types.Format{
	".pdf":  types.FormatPDF,
	".docx": types.FormatWord,
	".doc":  types.FormatWord,
	".xlsx": types.FormatExcel,
	".xls":  types.FormatExcel,
	".pptx": types.FormatPowerPoint,
	".ppt":  types.FormatPowerPoint,
}

// Classify returns the document format for path based on its extension,
// case-insensitively. Unknown extensions (including none at all) yield
// FormatUnsupported.
func Classify(path string) types.Format {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f
	}
	return types.FormatUnsupported
}

// Supported reports whether path has an extension the pipeline accepts.
func Supported(path string) bool {
	return Classify(path) != types.FormatUnsupported
}
