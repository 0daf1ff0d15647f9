// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"github.com/pdiddy/pdflock/internal/convert"
	"github.com/pdiddy/pdflock/internal/encrypt"
	"github.com/pdiddy/pdflock/internal/output"
	"github.com/pdiddy/pdflock/pkg/types"
)

const password = "hospital2024"

// fakeConverter implements Converter without touching any backend.
type fakeConverter struct {
	fn    func(ctx context.Context, path string) ([]byte, error)
	calls int
}

func (f *fakeConverter) Convert(ctx context.Context, path string) ([]byte, error) {
	f.calls++
	return f.fn(ctx, path)
}

// samplePDF builds a small but fully valid single-page PDF.
func samplePDF(t *testing.T) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Cell(40, 10, "sample document")
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// fixture is a ready-to-run supervisor over temp input and output dirs.
type fixture struct {
	sup    *Supervisor
	conv   *fakeConverter
	inDir  string
	outDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		inDir:  t.TempDir(),
		outDir: t.TempDir(),
	}
	pdf := samplePDF(t)
	f.conv = &fakeConverter{fn: func(ctx context.Context, path string) ([]byte, error) {
		return pdf, nil
	}}
	namer, err := output.NewNamer(types.OutputConfig{Dir: f.outDir})
	if err != nil {
		t.Fatal(err)
	}
	f.sup = New(types.LockConfig{}, f.conv, namer)
	return f
}

// write places a file with the given content in the input dir.
func (f *fixture) write(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(f.inDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (f *fixture) outputs(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.outDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunMixedBatch(t *testing.T) {
	f := newFixture(t)
	report := f.write(t, "report.pdf", samplePDF(t))
	memo := f.write(t, "memo.docx", []byte("docx payload"))

	res, err := f.sup.Run(context.Background(), []string{report, memo}, password)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(res.Files) != 2 {
		t.Fatalf("len(Files) = %d, want 2", len(res.Files))
	}
	if res.Succeeded != 2 || res.Failed != 0 || res.Skipped != 0 {
		t.Fatalf("summary = %s, want 2 succeeded", res.Summary())
	}

	// Input order preserved.
	if res.Files[0].Path != report || res.Files[1].Path != memo {
		t.Error("results not in input order")
	}
	if want := filepath.Join(f.outDir, "locked_report.pdf"); res.Files[0].Output != want {
		t.Errorf("output = %s, want %s", res.Files[0].Output, want)
	}
	if want := filepath.Join(f.outDir, "locked_memo.pdf"); res.Files[1].Output != want {
		t.Errorf("output = %s, want %s", res.Files[1].Output, want)
	}
	if f.conv.calls != 1 {
		t.Errorf("converter called %d times, want 1 (only for the docx)", f.conv.calls)
	}

	// Every output is a PDF that no longer opens without the password.
	for _, fr := range res.Files {
		data, err := os.ReadFile(fr.Output)
		if err != nil {
			t.Fatalf("reading %s: %v", fr.Output, err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Errorf("%s is not a PDF", fr.Output)
		}
		if _, err := encrypt.Protect(data, password); err == nil {
			t.Errorf("%s accepted a second encryption pass", fr.Output)
		}
		if fr.Elapsed < 0 {
			t.Errorf("%s has negative elapsed time", fr.Path)
		}
	}
}

func TestRunStatuses(t *testing.T) {
	backendDown := &convert.Error{Backend: "suite", Reason: types.ReasonBackendUnavailable}

	tests := []struct {
		name       string
		file       string
		content    []byte
		missing    bool // do not create the input file
		convErr    error
		wantStatus types.FileStatus
		wantReason types.Reason
	}{
		{
			name:       "unsupported extension skipped",
			file:       "notes.txt",
			content:    []byte("plain text"),
			wantStatus: types.StatusSkipped,
			wantReason: types.ReasonUnsupportedFormat,
		},
		{
			name:       "unreadable pdf fails at read time",
			file:       "gone.pdf",
			missing:    true,
			wantStatus: types.StatusFailed,
			wantReason: types.ReasonCorruptInput,
		},
		{
			name:       "garbage pdf fails encryption",
			file:       "broken.pdf",
			content:    []byte("%PDF-1.4 but the rest is garbage"),
			wantStatus: types.StatusFailed,
			wantReason: types.ReasonCorruptInput,
		},
		{
			name:       "no backend available",
			file:       "memo.docx",
			content:    []byte("docx payload"),
			convErr:    backendDown,
			wantStatus: types.StatusFailed,
			wantReason: types.ReasonBackendUnavailable,
		},
		{
			name:       "conversion crash",
			file:       "deck.pptx",
			content:    []byte("pptx payload"),
			convErr:    &convert.Error{Backend: "office", Reason: types.ReasonProcessCrashed},
			wantStatus: types.StatusFailed,
			wantReason: types.ReasonProcessCrashed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.convErr != nil {
				f.conv.fn = func(ctx context.Context, path string) ([]byte, error) {
					return nil, tt.convErr
				}
			}
			path := filepath.Join(f.inDir, tt.file)
			if !tt.missing {
				path = f.write(t, tt.file, tt.content)
			}

			res, err := f.sup.Run(context.Background(), []string{path}, password)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			fr := res.Files[0]
			if fr.Status != tt.wantStatus || fr.Reason != tt.wantReason {
				t.Errorf("result = %s/%s, want %s/%s", fr.Status, fr.Reason, tt.wantStatus, tt.wantReason)
			}
			if got := f.outputs(t); len(got) != 0 {
				t.Errorf("failure left output files behind: %v", got)
			}
		})
	}
}

func TestRunAlreadyEncrypted(t *testing.T) {
	f := newFixture(t)

	locked, err := encrypt.Protect(samplePDF(t), "owner-set-elsewhere")
	if err != nil {
		t.Fatal(err)
	}
	secure := f.write(t, "secure.pdf", locked)

	res, err := f.sup.Run(context.Background(), []string{secure}, password)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	fr := res.Files[0]
	if fr.Status != types.StatusFailed || fr.Reason != types.ReasonAlreadyEncrypted {
		t.Fatalf("result = %s/%s, want failed/already encrypted", fr.Status, fr.Reason)
	}
}

func TestRunFailureDoesNotAbortBatch(t *testing.T) {
	f := newFixture(t)
	f.conv.fn = func(ctx context.Context, path string) ([]byte, error) {
		return nil, &convert.Error{Backend: "suite", Reason: types.ReasonTimeout}
	}
	bad := f.write(t, "slow.docx", []byte("docx payload"))
	good := f.write(t, "report.pdf", samplePDF(t))

	res, err := f.sup.Run(context.Background(), []string{bad, good}, password)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Failed != 1 || res.Succeeded != 1 {
		t.Fatalf("summary = %s, want 1 failed, 1 succeeded", res.Summary())
	}
	if res.Files[1].Status != types.StatusSuccess {
		t.Error("file after a failure was not processed")
	}
}

func TestRunCancellationBetweenFiles(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.pdf", samplePDF(t))
	b := f.write(t, "b.pdf", samplePDF(t))

	ctx, cancel := context.WithCancel(context.Background())
	f.sup.SetProgress(func(ev types.ProgressEvent) {
		// Request the stop while a.pdf is wrapping up.
		if ev.Index == 0 && ev.State == types.StateDone {
			cancel()
		}
	})

	res, err := f.sup.Run(ctx, []string{a, b}, password)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !res.Cancelled {
		t.Error("Cancelled = false")
	}
	if len(res.Files) != 2 {
		t.Fatalf("len(Files) = %d, want 2", len(res.Files))
	}
	if fr := res.Files[0]; fr.Status != types.StatusSuccess {
		t.Errorf("a.pdf = %s/%s, want success", fr.Status, fr.Reason)
	}
	if fr := res.Files[1]; fr.Status != types.StatusSkipped || fr.Reason != types.ReasonCancelled {
		t.Errorf("b.pdf = %s/%s, want skipped/cancelled", fr.Status, fr.Reason)
	}

	// The processed prefix is untouched: a.pdf's output exists, b.pdf's does not.
	if _, err := os.Stat(filepath.Join(f.outDir, "locked_a.pdf")); err != nil {
		t.Error("locked_a.pdf missing after cancellation")
	}
	if _, err := os.Stat(filepath.Join(f.outDir, "locked_b.pdf")); err == nil {
		t.Error("locked_b.pdf written despite cancellation")
	}
}

func TestRunCancellationDuringConversion(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.conv.fn = func(c context.Context, path string) ([]byte, error) {
		cancel()
		return nil, &convert.Error{Backend: "suite", Reason: types.ReasonCancelled, Err: c.Err()}
	}
	memo := f.write(t, "memo.docx", []byte("docx payload"))

	res, err := f.sup.Run(ctx, []string{memo}, password)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	fr := res.Files[0]
	if fr.Status != types.StatusSkipped || fr.Reason != types.ReasonCancelled {
		t.Errorf("result = %s/%s, want skipped/cancelled", fr.Status, fr.Reason)
	}
}

func TestRunProgressOrdering(t *testing.T) {
	f := newFixture(t)
	paths := []string{
		f.write(t, "report.pdf", samplePDF(t)),
		f.write(t, "memo.docx", []byte("docx payload")),
		f.write(t, "notes.txt", []byte("unsupported")),
	}

	var events []types.ProgressEvent
	f.sup.SetProgress(func(ev types.ProgressEvent) { events = append(events, ev) })

	if _, err := f.sup.Run(context.Background(), paths, password); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lastIdx := 0
	for _, ev := range events {
		if ev.Index < lastIdx {
			t.Fatalf("event for file %d after file %d", ev.Index, lastIdx)
		}
		lastIdx = ev.Index
	}

	// Per-file sequences follow the state machine.
	states := func(idx int) []types.FileState {
		var out []types.FileState
		for _, ev := range events {
			if ev.Index == idx {
				out = append(out, ev.State)
			}
		}
		return out
	}
	wantPDF := []types.FileState{types.StatePending, types.StateClassifying, types.StateEncrypting, types.StateWriting, types.StateDone}
	wantOffice := []types.FileState{types.StatePending, types.StateClassifying, types.StateConverting, types.StateEncrypting, types.StateWriting, types.StateDone}
	wantSkip := []types.FileState{types.StatePending, types.StateClassifying, types.StateDone}

	for idx, want := range [][]types.FileState{wantPDF, wantOffice, wantSkip} {
		got := states(idx)
		if len(got) != len(want) {
			t.Errorf("file %d states = %v, want %v", idx, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("file %d state[%d] = %s, want %s", idx, i, got[i], want[i])
			}
		}
	}
}

func TestRunIdempotentNaming(t *testing.T) {
	f := newFixture(t)
	report := f.write(t, "report.pdf", samplePDF(t))

	res1, err := f.sup.Run(context.Background(), []string{report}, password)
	if err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(res1.Files[0].Output)
	if err != nil {
		t.Fatal(err)
	}

	res2, err := f.sup.Run(context.Background(), []string{report}, password)
	if err != nil {
		t.Fatal(err)
	}

	if want := filepath.Join(f.outDir, "locked_report_1.pdf"); res2.Files[0].Output != want {
		t.Errorf("second run output = %s, want %s", res2.Files[0].Output, want)
	}

	// The first run's file is byte-identical after the second run.
	again, err := os.ReadFile(res1.Files[0].Output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, again) {
		t.Error("second run altered the first run's output")
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	report := f.write(t, "report.pdf", samplePDF(t))

	if _, err := f.sup.Run(context.Background(), nil, password); err == nil {
		t.Error("empty batch accepted")
	}
	if _, err := f.sup.Run(context.Background(), []string{report}, "abc"); err == nil {
		t.Error("short password accepted")
	}
	if _, err := f.sup.Run(context.Background(), []string{report}, ""); err == nil {
		t.Error("empty password accepted")
	}
}

func TestStart(t *testing.T) {
	f := newFixture(t)
	paths := []string{
		f.write(t, "report.pdf", samplePDF(t)),
		f.write(t, "memo.docx", []byte("docx payload")),
	}

	events, outcome := f.sup.Start(context.Background(), paths, password)

	var got []types.ProgressEvent
	for ev := range events {
		got = append(got, ev)
	}
	out := <-outcome

	if out.Err != nil {
		t.Fatalf("outcome error = %v", out.Err)
	}
	if out.Result.Succeeded != 2 {
		t.Errorf("summary = %s, want 2 succeeded", out.Result.Summary())
	}
	if len(got) == 0 {
		t.Fatal("no progress events received")
	}
	if last := got[len(got)-1]; last.State != types.StateDone || last.Index != 1 {
		t.Errorf("last event = %+v, want Done for index 1", last)
	}
}

func TestWriteReport(t *testing.T) {
	f := newFixture(t)
	report := f.write(t, "report.pdf", samplePDF(t))
	res, err := f.sup.Run(context.Background(), []string{report}, password)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"report.yaml", "report.json"} {
		path := filepath.Join(t.TempDir(), name)
		if err := WriteReport(path, res); err != nil {
			t.Fatalf("WriteReport(%s) error = %v", name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		text := string(data)
		if !strings.Contains(text, "locked_report.pdf") {
			t.Errorf("%s missing output path", name)
		}
		if strings.Contains(text, password) {
			t.Errorf("%s leaks the password", name)
		}
	}
}

func TestRunLogLines(t *testing.T) {
	f := newFixture(t)
	var log bytes.Buffer
	f.sup.SetLog(&log)

	paths := []string{
		f.write(t, "report.pdf", samplePDF(t)),
		f.write(t, "notes.txt", []byte("unsupported")),
	}
	if _, err := f.sup.Run(context.Background(), paths, password); err != nil {
		t.Fatal(err)
	}

	text := log.String()
	for _, want := range []string{"locked:  report.pdf", "skipped: notes.txt", "Batch summary: 1 succeeded, 0 failed, 1 skipped"} {
		if !strings.Contains(text, want) {
			t.Errorf("log missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, password) {
		t.Error("log leaks the password")
	}
}
