// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements Office-to-PDF conversion with pluggable
// backends. An Office automation backend drives an installed Microsoft
// Office via COM scripting; a headless suite backend shells out to
// LibreOffice. A router tries backends in preference order and maps
// every backend-native error onto the uniform failure taxonomy.
// See docs/ARCHITECTURE § Conversion.
package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/pdflock/pkg/types"
)

// Backend converts one source document into PDF bytes. Implementations
// are stateless; every call is independent and owns no cross-call state.
type Backend interface {
	// Name returns the backend name for diagnostics ("office", "suite").
	Name() string

	// Available reports whether the backend can run on this host.
	Available() bool

	// Convert transforms the document at path into PDF bytes. Failures
	// are returned as *Error carrying a taxonomy reason.
	Convert(ctx context.Context, path string) ([]byte, error)
}

// Error is a conversion failure mapped onto the uniform taxonomy. The
// wrapped error keeps the backend-native detail for logs; callers render
// only the Reason.
type Error struct {
	Backend string
	Reason  types.Reason
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Backend, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// failure builds a taxonomy error for a backend.
func failure(backend string, reason types.Reason, err error) *Error {
	return &Error{Backend: backend, Reason: reason, Err: err}
}

// ReasonOf extracts the taxonomy reason from err. Context cancellation is
// mapped to Cancelled; anything unrecognized to UnknownFailure.
func ReasonOf(err error) types.Reason {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Reason
	}
	if errors.Is(err, context.Canceled) {
		return types.ReasonCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ReasonTimeout
	}
	return types.ReasonUnknown
}

// pdfMagic is the header every usable conversion output must carry.
// Truncated or garbage output files are rejected rather than passed on.
var pdfMagic = []byte("%PDF-")

// looksLikePDF reports whether data starts with the PDF header.
func looksLikePDF(data []byte) bool {
	if len(data) < len(pdfMagic) {
		return false
	}
	for i := range pdfMagic {
		if data[i] != pdfMagic[i] {
			return false
		}
	}
	return true
}
