// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/pdflock/pkg/types"
)

// suiteCandidates are probed in order when no binary override is set.
var suiteCandidates = []string{"soffice", "libreoffice"}

// SuiteBackend converts documents by spawning a headless LibreOffice
// process per file. It works on any host with the suite installed and
// needs no display.
type SuiteBackend struct {
	bin     string
	timeout time.Duration
	exec    executor
}

// NewSuiteBackend probes for a LibreOffice binary and returns the backend.
// A host without the suite yields a backend whose Available is false.
func NewSuiteBackend(cfg types.ConvertConfig) *SuiteBackend {
	return newSuiteBackend(cfg, defaultExec)
}

func newSuiteBackend(cfg types.ConvertConfig, exec executor) *SuiteBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultConvertTimeout
	}
	return &SuiteBackend{
		bin:     detectSuiteBinary(exec, cfg.SuiteBinary),
		timeout: timeout,
		exec:    exec,
	}
}

// detectSuiteBinary returns the first runnable suite binary, trying the
// override first, then soffice, then libreoffice.
func detectSuiteBinary(exec executor, override string) string {
	candidates := suiteCandidates
	if override != "" {
		candidates = append([]string{override}, candidates...)
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c); err == nil {
			return c
		}
	}
	return ""
}

func (b *SuiteBackend) Name() string { return "suite" }

// Available reports whether a suite binary was found on PATH.
func (b *SuiteBackend) Available() bool { return b.bin != "" }

// Convert runs `<suite> --headless --convert-to pdf` into a temporary
// directory and returns the produced bytes. The call is bounded by the
// configured timeout; the child process is killed when it expires.
func (b *SuiteBackend) Convert(ctx context.Context, path string) ([]byte, error) {
	if b.bin == "" {
		return nil, failure(b.Name(), types.ReasonBackendUnavailable,
			errors.New("no LibreOffice binary on PATH"))
	}

	outDir, err := os.MkdirTemp("", "pdflock-convert-*")
	if err != nil {
		return nil, failure(b.Name(), types.ReasonUnknown, err)
	}
	defer os.RemoveAll(outDir)

	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	runErr := b.exec.Run(runCtx, b.bin,
		"--headless", "--norestore", "--convert-to", "pdf",
		"--outdir", outDir, path)

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return nil, failure(b.Name(), types.ReasonCancelled, ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return nil, failure(b.Name(), types.ReasonTimeout, runCtx.Err())
	case runErr != nil:
		return nil, failure(b.Name(), types.ReasonProcessCrashed, runErr)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outDir, stem+".pdf")

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, failure(b.Name(), types.ReasonOutputMissing,
			fmt.Errorf("suite exited cleanly but wrote no %s: %w", filepath.Base(outPath), err))
	}
	if !looksLikePDF(data) {
		return nil, failure(b.Name(), types.ReasonOutputMissing,
			fmt.Errorf("suite wrote a malformed PDF to %s", outPath))
	}
	return data, nil
}
