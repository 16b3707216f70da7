package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prismon/mcp-file-rules/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScanDB(t *testing.T) *database.RulesDB {
	t.Helper()
	db, err := database.NewRulesDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.pdf", "aaaa")
	writeTempFile(t, dir, "b.jpg", "bb")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writeTempFile(t, filepath.Join(dir, "sub"), "c.txt", "c")

	db := newScanDB(t)

	stats, err := Scan(context.Background(), dir, db, &ScanOptions{WorkerCount: 2, QueueSize: 100, SourceLocation: "test-root"})
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.FilesScanned)
	assert.Equal(t, int64(0), stats.Errors)
	assert.Equal(t, int64(7), stats.TotalSize)

	files, err := db.ListFiles("test-root")
	require.NoError(t, err)
	require.Len(t, files, 3)

	stored, err := db.GetFile(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "pdf", stored.Extension)
	assert.Equal(t, "document", stored.Kind)
}

func TestScan_DefaultsSourceLocationToRoot(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.txt", "x")

	db := newScanDB(t)

	_, err := Scan(context.Background(), dir, db, nil)
	require.NoError(t, err)

	files, err := db.ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, dir, files[0].SourceLocation)
}

func TestScan_RescanUpdatesInPlace(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "a.txt", "v1")

	db := newScanDB(t)

	_, err := Scan(context.Background(), dir, db, nil)
	require.NoError(t, err)

	writeTempFile(t, dir, "a.txt", "longer content")

	_, err = Scan(context.Background(), dir, db, nil)
	require.NoError(t, err)

	files, err := db.ListFiles("")
	require.NoError(t, err)
	require.Len(t, files, 1, "rescan replaces the snapshot, not duplicates it")

	stored, err := db.GetFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(14), stored.Size)
}

func TestScan_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.txt", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	db := newScanDB(t)

	stats, err := Scan(ctx, dir, db, nil)
	require.NoError(t, err)
	assert.NotNil(t, stats)
}

func TestScan_MissingRoot(t *testing.T) {
	db := newScanDB(t)

	stats, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), db, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Errors, "unreadable root counts as one error")
	assert.Equal(t, int64(0), stats.FilesScanned)
}
