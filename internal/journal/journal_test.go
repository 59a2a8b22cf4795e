package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"filedepot/internal/depot"

	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal", "events.sqlite"))
	require.NoError(t, err, "Open error")
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := newTestJournal(t)

	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	events := []depot.Event{
		{At: at, Area: "files", Op: depot.OpUpload, Name: "report.pdf", Size: 42, RequestID: "req-1"},
		{At: at.Add(time.Second), Area: "avatars", Op: depot.OpUpload, Name: "me.png", Size: 7},
		{At: at.Add(2 * time.Second), Area: "files", Op: depot.OpRename, Name: "report.pdf", NewName: "final.pdf"},
	}
	for _, e := range events {
		require.NoError(t, j.Record(ctx, e), "Record error")
	}

	all, err := j.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, depot.OpRename, all[0].Op, "newest first")
	require.Equal(t, "final.pdf", all[0].NewName)

	files, err := j.Recent(ctx, "files", 10)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, e := range files {
		require.Equal(t, "files", e.Area)
	}

	first := files[1]
	require.Equal(t, "report.pdf", first.Name)
	require.Equal(t, int64(42), first.Size)
	require.Equal(t, "req-1", first.RequestID)
	require.True(t, at.Equal(first.At), "timestamp round trip: got %v", first.At)
	require.Empty(t, first.NewName)
}

func TestRecentLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j := newTestJournal(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Record(ctx, depot.Event{At: time.Now(), Area: "forms", Op: depot.OpDelete, Name: "x.pdf"}))
	}

	got, err := j.Recent(ctx, "forms", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestReopenKeepsEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.sqlite")

	j, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, depot.Event{At: time.Now(), Area: "files", Op: depot.OpUpload, Name: "a.txt"}))
	require.NoError(t, j.Close())

	j, err = Open(ctx, path)
	require.NoError(t, err, "migrations must be re-runnable")
	defer j.Close()

	got, err := j.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	require.Error(t, err)
}
