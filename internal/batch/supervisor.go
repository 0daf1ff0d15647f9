// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch orchestrates the per-file pipeline: classification,
// conversion, encryption, and output naming, with ordered progress
// events and cooperative cancellation. Files are processed sequentially
// in input order; the workload is I/O- and process-spawn-bound, so a
// single worker keeps ordering trivial while the caller stays responsive
// by running the batch off its interactive path.
// See docs/ARCHITECTURE § Batch Pipeline.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/pdflock/internal/classify"
	"github.com/pdiddy/pdflock/internal/convert"
	"github.com/pdiddy/pdflock/internal/encrypt"
	"github.com/pdiddy/pdflock/pkg/types"
)

// Converter routes one document through the conversion backends.
type Converter interface {
	Convert(ctx context.Context, path string) ([]byte, error)
}

// Namer resolves collision-free output destinations.
type Namer interface {
	Resolve(inputPath string) (string, error)
}

// ProgressFunc receives one event per state transition, in input order.
// It may be invoked from a goroutine other than the caller's.
type ProgressFunc func(types.ProgressEvent)

// Supervisor drives one batch at a time. It owns the BatchResult being
// built for the duration of a run; the converter and namer are stateless
// collaborators invoked per file.
type Supervisor struct {
	cfg      types.LockConfig
	conv     Converter
	namer    Namer
	protect  func(pdf []byte, password string) ([]byte, error)
	progress ProgressFunc
	log      io.Writer
}

// New returns a Supervisor over the given collaborators. The zero values
// of cfg are replaced by the documented defaults.
func New(cfg types.LockConfig, conv Converter, namer Namer) *Supervisor {
	return &Supervisor{
		cfg:     cfg.WithDefaults(),
		conv:    conv,
		namer:   namer,
		protect: encrypt.Protect,
		log:     io.Discard,
	}
}

// SetProgress installs a progress sink. Must be called before Run.
func (s *Supervisor) SetProgress(fn ProgressFunc) { s.progress = fn }

// SetLog directs per-file status lines to w. Must be called before Run.
func (s *Supervisor) SetLog(w io.Writer) { s.log = w }

// Run processes paths sequentially and returns the aggregate result.
// The password is validated up front and held only for the duration of
// the encryption calls; it is never logged or stored. A single file's
// failure never aborts the batch. Cancelling ctx stops the run before
// the next file starts and marks every unprocessed file Skipped.
//
// Run blocks until the batch finishes; callers with an interactive
// surface should use Start instead.
func (s *Supervisor) Run(ctx context.Context, paths []string, password string) (*types.BatchResult, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}
	if err := encrypt.ValidatePassword(password, s.cfg.Password); err != nil {
		return nil, err
	}

	result := &types.BatchResult{StartedAt: time.Now()}

	for i, path := range paths {
		if ctx.Err() != nil {
			result.Cancelled = true
			s.skipRemaining(result, paths[i:], i)
			break
		}

		fr := s.processFile(ctx, i, path, password)
		result.Append(fr)
		s.logResult(fr)
	}

	result.FinishedAt = time.Now()
	fmt.Fprintf(s.log, "\nBatch summary: %s (total: %d)\n", result.Summary(), result.Total())
	return result, nil
}

// Outcome pairs the finished result with a batch-level error (invalid
// password or empty input; per-file failures live in the result).
type Outcome struct {
	Result *types.BatchResult
	Err    error
}

// Start runs the batch on a dedicated goroutine so the caller's
// interactive path never blocks on conversions. Events arrive on the
// returned channel in input order; the outcome channel yields exactly
// once, after the event channel is closed.
func (s *Supervisor) Start(ctx context.Context, paths []string, password string) (<-chan types.ProgressEvent, <-chan Outcome) {
	events := make(chan types.ProgressEvent, 16)
	outcome := make(chan Outcome, 1)

	prev := s.progress
	s.progress = func(ev types.ProgressEvent) {
		if prev != nil {
			prev(ev)
		}
		events <- ev
	}

	go func() {
		res, err := s.Run(ctx, paths, password)
		close(events)
		outcome <- Outcome{Result: res, Err: err}
		close(outcome)
	}()

	return events, outcome
}

// processFile drives one file through the state machine and returns its
// write-once terminal result.
func (s *Supervisor) processFile(ctx context.Context, idx int, path, password string) types.FileResult {
	start := time.Now()
	name := filepath.Base(path)
	fr := types.FileResult{Path: path}

	finish := func(status types.FileStatus, reason types.Reason) types.FileResult {
		fr.Status = status
		fr.Reason = reason
		fr.Elapsed = time.Since(start)
		s.emit(idx, name, types.StateDone)
		return fr
	}

	s.emit(idx, name, types.StatePending)
	s.emit(idx, name, types.StateClassifying)

	fr.Format = classify.Classify(path)

	var pdf []byte
	switch {
	case fr.Format == types.FormatUnsupported:
		return finish(types.StatusSkipped, types.ReasonUnsupportedFormat)

	case fr.Format == types.FormatPDF:
		data, err := os.ReadFile(path)
		if err != nil {
			return finish(types.StatusFailed, types.ReasonCorruptInput)
		}
		pdf = data

	default:
		s.emit(idx, name, types.StateConverting)
		data, err := s.conv.Convert(ctx, path)
		if err != nil {
			reason := convert.ReasonOf(err)
			if reason == types.ReasonCancelled {
				// A requested stop is not a failure.
				return finish(types.StatusSkipped, types.ReasonCancelled)
			}
			return finish(types.StatusFailed, reason)
		}
		pdf = data
	}

	s.emit(idx, name, types.StateEncrypting)
	locked, err := s.protect(pdf, password)
	if err != nil {
		return finish(types.StatusFailed, encryptReason(err))
	}

	s.emit(idx, name, types.StateWriting)
	dest, err := s.namer.Resolve(path)
	if err != nil {
		return finish(types.StatusFailed, types.ReasonWriteFailure)
	}
	if err := writeAtomic(dest, locked); err != nil {
		return finish(types.StatusFailed, types.ReasonWriteFailure)
	}

	fr.Output = dest
	return finish(types.StatusSuccess, "")
}

// skipRemaining records every not-yet-started file as Skipped after a
// cancellation. The processed prefix of the result is left untouched.
func (s *Supervisor) skipRemaining(result *types.BatchResult, paths []string, offset int) {
	for j, path := range paths {
		name := filepath.Base(path)
		s.emit(offset+j, name, types.StateDone)
		fr := types.FileResult{
			Path:   path,
			Status: types.StatusSkipped,
			Reason: types.ReasonCancelled,
		}
		result.Append(fr)
		s.logResult(fr)
	}
}

func (s *Supervisor) emit(idx int, name string, state types.FileState) {
	if s.progress != nil {
		s.progress(types.ProgressEvent{Index: idx, Name: name, State: state})
	}
}

func (s *Supervisor) logResult(fr types.FileResult) {
	name := filepath.Base(fr.Path)
	switch fr.Status {
	case types.StatusSuccess:
		fmt.Fprintf(s.log, "locked:  %s -> %s\n", name, fr.Output)
	case types.StatusSkipped:
		fmt.Fprintf(s.log, "skipped: %s (%s)\n", name, fr.Reason)
	case types.StatusFailed:
		fmt.Fprintf(s.log, "failed:  %s (%s)\n", name, fr.Reason)
	}
}

// encryptReason maps an encryption error onto the taxonomy.
func encryptReason(err error) types.Reason {
	var ee *encrypt.Error
	if errors.As(err, &ee) {
		return ee.Reason
	}
	return types.ReasonUnknown
}

// writeAtomic writes data to dest via a temp file in the same directory
// plus rename, so dest is either fully written or absent. A cancelled
// or crashed run never leaves a partial output file behind.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
