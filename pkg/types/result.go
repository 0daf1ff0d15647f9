// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model for the pdflock pipeline:
// input formats, per-file results, batch aggregation, and configuration.
// See docs/ARCHITECTURE § Data Model.
package types

import (
	"fmt"
	"time"
)

// Format identifies the family of an input document, derived from its
// file extension.
type Format string

const (
	FormatPDF         Format = "pdf"
	FormatWord        Format = "word"
	FormatExcel       Format = "excel"
	FormatPowerPoint  Format = "powerpoint"
	FormatUnsupported Format = "unsupported"
)

// IsOffice reports whether the format needs conversion before encryption.
func (f Format) IsOffice() bool {
	switch f {
	case FormatWord, FormatExcel, FormatPowerPoint:
		return true
	}
	return false
}

// Reason is the uniform failure taxonomy surfaced to callers. Every
// backend-native or OS-level error is mapped onto one of these before it
// reaches a FileResult, so the UI never renders a raw low-level message.
type Reason string

const (
	ReasonUnsupportedFormat  Reason = "unsupported format"
	ReasonCorruptInput       Reason = "corrupt input"
	ReasonAlreadyEncrypted   Reason = "already encrypted"
	ReasonBackendUnavailable Reason = "no conversion backend available"
	ReasonTimeout            Reason = "conversion timed out"
	ReasonDialogBlocked      Reason = "blocked by application dialog"
	ReasonProcessCrashed     Reason = "conversion process crashed"
	ReasonOutputMissing      Reason = "conversion produced no output"
	ReasonWriteFailure       Reason = "could not write output file"
	ReasonCancelled          Reason = "cancelled"
	ReasonUnknown            Reason = "unknown failure"
)

// FileState tracks where a file is in the per-file state machine. States
// advance strictly Pending -> Classifying -> [Converting] -> Encrypting ->
// Writing -> Done; Converting is skipped for native PDFs.
type FileState string

const (
	StatePending     FileState = "pending"
	StateClassifying FileState = "classifying"
	StateConverting  FileState = "converting"
	StateEncrypting  FileState = "encrypting"
	StateWriting     FileState = "writing"
	StateDone        FileState = "done"
)

// FileStatus is the terminal disposition of a single input file.
type FileStatus string

const (
	StatusSuccess FileStatus = "success"
	StatusFailed  FileStatus = "failed"
	StatusSkipped FileStatus = "skipped"
)

// ProgressEvent is emitted on every state transition of every file, in
// input order. Sinks may run on a different goroutine than the caller.
type ProgressEvent struct {
	// Index is the zero-based position of the file in the input batch.
	Index int `json:"index" yaml:"index"`

	// Name is the base name of the input file.
	Name string `json:"name" yaml:"name"`

	// State is the state just entered.
	State FileState `json:"state" yaml:"state"`
}

// FileResult is the write-once outcome for one input file. Exactly one
// terminal status is recorded per file.
type FileResult struct {
	// Path is the absolute input path as supplied by the caller.
	Path string `json:"path" yaml:"path"`

	// Format is the classified input format.
	Format Format `json:"format" yaml:"format"`

	// Status is the terminal disposition: success, failed, or skipped.
	Status FileStatus `json:"status" yaml:"status"`

	// Output is the written destination path; set only on success.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Reason explains a failed or skipped status, drawn from the taxonomy.
	Reason Reason `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Elapsed is the wall-clock processing time for this file.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// BatchResult aggregates the outcome of one batch run. FileResults appear
// strictly in input order. The result is appended to while the run is in
// flight and must be treated as immutable once the run returns.
type BatchResult struct {
	// Files holds one result per input file, in input order.
	Files []FileResult `json:"files" yaml:"files"`

	// Succeeded, Failed, and Skipped count terminal statuses.
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Skipped   int `json:"skipped" yaml:"skipped"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// Cancelled reports whether the run was stopped by the caller before
	// every file was processed.
	Cancelled bool `json:"cancelled" yaml:"cancelled"`
}

// Append records a terminal result and updates the counters.
func (r *BatchResult) Append(fr FileResult) {
	r.Files = append(r.Files, fr)
	switch fr.Status {
	case StatusSuccess:
		r.Succeeded++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
}

// Total returns the number of files with a recorded outcome.
func (r BatchResult) Total() int {
	return r.Succeeded + r.Failed + r.Skipped
}

// HasFailures reports whether any file failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Summary renders the one-line batch outcome shown after a run.
func (r BatchResult) Summary() string {
	return fmt.Sprintf("%d succeeded, %d failed, %d skipped",
		r.Succeeded, r.Failed, r.Skipped)
}
