// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdflock/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history", "pdflock.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult() *types.BatchResult {
	started := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	r := &types.BatchResult{StartedAt: started, FinishedAt: started.Add(42 * time.Second)}
	r.Append(types.FileResult{
		Path:    "/docs/report.pdf",
		Format:  types.FormatPDF,
		Status:  types.StatusSuccess,
		Output:  "/out/locked_report.pdf",
		Elapsed: 1200 * time.Millisecond,
	})
	r.Append(types.FileResult{
		Path:    "/docs/memo.docx",
		Format:  types.FormatWord,
		Status:  types.StatusFailed,
		Reason:  types.ReasonTimeout,
		Elapsed: 120 * time.Second,
	})
	return r
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Record(ctx, sampleResult())
	require.NoError(t, err)
	require.NotZero(t, id)

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, id, run.ID)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 0, run.Skipped)
	assert.False(t, run.Cancelled)
	assert.Equal(t, "1 succeeded, 1 failed, 0 skipped", run.Summary())
	assert.Equal(t, time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC), run.StartedAt)
}

func TestFilesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := sampleResult()
	id, err := s.Record(ctx, want)
	require.NoError(t, err)

	files, err := s.Files(ctx, id)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, want.Files[0], files[0])
	assert.Equal(t, want.Files[1], files[1])
}

func TestRecentOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := s.Record(ctx, sampleResult())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Newest first.
	assert.Equal(t, ids[4], runs[0].ID)
	assert.Equal(t, ids[3], runs[1].ID)
	assert.Equal(t, ids[2], runs[2].ID)
}

func TestRecentEmptyStore(t *testing.T) {
	s := newTestStore(t)
	runs, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestCancelledRunRecorded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := sampleResult()
	r.Cancelled = true
	r.Append(types.FileResult{
		Path:   "/docs/b.pdf",
		Format: types.FormatPDF,
		Status: types.StatusSkipped,
		Reason: types.ReasonCancelled,
	})

	id, err := s.Record(ctx, r)
	require.NoError(t, err)

	runs, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Cancelled)
	assert.Equal(t, 1, runs[0].Skipped)

	files, err := s.Files(ctx, id)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, types.ReasonCancelled, files[2].Reason)
}
