// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"

	"github.com/pdiddy/pdflock/pkg/types"
)

// Router tries conversion backends in a fixed preference order until one
// succeeds. Unavailable backends are skipped without counting as a
// failure; when all backends are exhausted the last concrete failure is
// returned so the caller can report precisely what went wrong. A backend
// is never retried for the same file: conversion is deterministic or
// broken for a given input, so a retry only burns the timeout budget.
type Router struct {
	backends []Backend
}

// NewRouter builds a router over the given backends, tried in order.
func NewRouter(backends ...Backend) *Router {
	return &Router{backends: backends}
}

// DefaultRouter wires the standard preference order: Office automation
// first where the host supports it, headless suite as the fallback.
func DefaultRouter(cfg types.ConvertConfig) *Router {
	return NewRouter(NewOfficeBackend(cfg), NewSuiteBackend(cfg))
}

// Names lists the available backends, in preference order.
func (r *Router) Names() []string {
	var names []string
	for _, b := range r.backends {
		if b.Available() {
			names = append(names, b.Name())
		}
	}
	return names
}

// Convert routes the document at path through the backends and returns
// the converted PDF bytes. Cancellation aborts immediately instead of
// falling through to the next backend.
func (r *Router) Convert(ctx context.Context, path string) ([]byte, error) {
	var last error
	for _, b := range r.backends {
		if !b.Available() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, failure(b.Name(), types.ReasonCancelled, err)
		}

		data, err := b.Convert(ctx, path)
		if err == nil {
			return data, nil
		}

		switch ReasonOf(err) {
		case types.ReasonCancelled:
			return nil, err
		case types.ReasonBackendUnavailable:
			// Availability flipped mid-run; not a conversion failure.
			continue
		}
		last = err
	}

	if last == nil {
		return nil, failure("router", types.ReasonBackendUnavailable,
			errors.New("no conversion backend available for this host"))
	}
	return nil, last
}
