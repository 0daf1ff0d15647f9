// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pdiddy/pdflock/internal/classify"
	"github.com/pdiddy/pdflock/pkg/types"
)

// OfficeBackend converts documents by driving an installed Microsoft
// Office through COM automation, scripted via PowerShell. Windows only.
// The automation must never surface UI; a run that exceeds the timeout is
// assumed to be stuck behind a modal dialog and reported as such. The
// generated script quits the application in a finally block so the
// process handle is released on every exit path.
type OfficeBackend struct {
	shell   string
	timeout time.Duration
	exec    executor
}

// NewOfficeBackend returns the Office automation backend. On non-Windows
// hosts, or when disabled by config, Available is false.
func NewOfficeBackend(cfg types.ConvertConfig) *OfficeBackend {
	return newOfficeBackend(cfg, defaultExec, runtime.GOOS)
}

func newOfficeBackend(cfg types.ConvertConfig, exec executor, goos string) *OfficeBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultConvertTimeout
	}
	b := &OfficeBackend{timeout: timeout, exec: exec}
	if cfg.DisableOffice || goos != "windows" {
		return b
	}
	if _, err := exec.LookPath("powershell"); err == nil {
		b.shell = "powershell"
	}
	return b
}

func (b *OfficeBackend) Name() string { return "office" }

// Available reports whether Office automation can be attempted on this host.
func (b *OfficeBackend) Available() bool { return b.shell != "" }

// Convert drives the matching Office application to export path as PDF
// into a temporary directory and returns the produced bytes.
func (b *OfficeBackend) Convert(ctx context.Context, path string) ([]byte, error) {
	if b.shell == "" {
		return nil, failure(b.Name(), types.ReasonBackendUnavailable,
			errors.New("office automation not available on this host"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, failure(b.Name(), types.ReasonUnknown, err)
	}

	outDir, err := os.MkdirTemp("", "pdflock-office-*")
	if err != nil {
		return nil, failure(b.Name(), types.ReasonUnknown, err)
	}
	defer os.RemoveAll(outDir)

	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	outPath := filepath.Join(outDir, stem+".pdf")

	script, err := automationScript(classify.Classify(abs), abs, outPath)
	if err != nil {
		return nil, failure(b.Name(), types.ReasonUnknown, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	runErr := b.exec.Run(runCtx, b.shell, "-NoProfile", "-NonInteractive", "-Command", script)

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return nil, failure(b.Name(), types.ReasonCancelled, ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		// Headless automation has no legitimate reason to run this long;
		// the application is stuck behind a modal dialog.
		return nil, failure(b.Name(), types.ReasonDialogBlocked, runCtx.Err())
	case runErr != nil:
		return nil, failure(b.Name(), types.ReasonProcessCrashed, runErr)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, failure(b.Name(), types.ReasonOutputMissing,
			fmt.Errorf("automation exited cleanly but wrote no output: %w", err))
	}
	if !looksLikePDF(data) {
		return nil, failure(b.Name(), types.ReasonOutputMissing,
			fmt.Errorf("automation wrote a malformed PDF to %s", outPath))
	}
	return data, nil
}

// Office export format constants, from the respective COM type libraries.
const (
	wdFormatPDF = 17 // Word WdSaveFormat
	xlTypePDF   = 0  // Excel XlFixedFormatType
	ppSaveAsPDF = 32 // PowerPoint PpSaveAsFileType
)

// automationScript builds the PowerShell COM script for the given format.
// Each script suppresses alerts and quits the application in a finally
// block so no instance leaks, whatever the exit path.
func automationScript(format types.Format, in, out string) (string, error) {
	qin, qout := psQuote(in), psQuote(out)
	switch format {
	case types.FormatWord:
		return fmt.Sprintf(`$ErrorActionPreference = 'Stop'
$app = New-Object -ComObject Word.Application
$app.Visible = $false
$app.DisplayAlerts = 0
try {
  $doc = $app.Documents.Open(%s, $false, $true)
  $doc.SaveAs([ref]%s, [ref]%d)
  $doc.Close($false)
} finally {
  $app.Quit()
}`, qin, qout, wdFormatPDF), nil
	case types.FormatExcel:
		return fmt.Sprintf(`$ErrorActionPreference = 'Stop'
$app = New-Object -ComObject Excel.Application
$app.Visible = $false
$app.DisplayAlerts = $false
try {
  $wb = $app.Workbooks.Open(%s)
  $wb.ExportAsFixedFormat(%d, %s)
  $wb.Close($false)
} finally {
  $app.Quit()
}`, qin, xlTypePDF, qout), nil
	case types.FormatPowerPoint:
		// PowerPoint refuses Visible = $false; opening WithWindow:$false
		// keeps the presentation off screen instead.
		return fmt.Sprintf(`$ErrorActionPreference = 'Stop'
$app = New-Object -ComObject PowerPoint.Application
try {
  $pres = $app.Presentations.Open(%s, $true, $true, $false)
  $pres.SaveAs(%s, %d)
  $pres.Close()
} finally {
  $app.Quit()
}`, qin, qout, ppSaveAsPDF), nil
	default:
		return "", fmt.Errorf("no automation script for format %q", format)
	}
}

// psQuote wraps s in PowerShell single quotes, doubling embedded quotes.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
