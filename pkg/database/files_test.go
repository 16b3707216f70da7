package database

import (
	"testing"
	"time"

	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFile(path, ext, location string) *models.FileDescriptor {
	return &models.FileDescriptor{
		Path:           path,
		Name:           "report.pdf",
		Extension:      ext,
		Size:           4096,
		CreatedAt:      time.Unix(1700000000, 0),
		ModifiedAt:     time.Unix(1700500000, 0),
		AccessedAt:     time.Unix(1700900000, 0),
		Kind:           "document",
		SourceLocation: location,
	}
}

func TestUpsertAndGetFile(t *testing.T) {
	db := newTestDB(t)

	file := sampleFile("/data/report.pdf", "pdf", "downloads")
	require.NoError(t, db.UpsertFile(file))

	got, err := db.GetFile("/data/report.pdf")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, file.Name, got.Name)
	assert.Equal(t, file.Extension, got.Extension)
	assert.Equal(t, file.Size, got.Size)
	assert.Equal(t, file.ModifiedAt.Unix(), got.ModifiedAt.Unix())
	assert.Equal(t, "downloads", got.SourceLocation)

	// Re-upsert replaces in place.
	file.Size = 8192
	require.NoError(t, db.UpsertFile(file))
	got, err = db.GetFile("/data/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(8192), got.Size)
}

func TestGetFile_Missing(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetFile("/nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListFilesBySourceLocation(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertFile(sampleFile("/a.pdf", "pdf", "downloads")))
	require.NoError(t, db.UpsertFile(sampleFile("/b.dmg", "dmg", "downloads")))
	require.NoError(t, db.UpsertFile(sampleFile("/c.txt", "txt", "desktop")))

	downloads, err := db.ListFiles("downloads")
	require.NoError(t, err)
	assert.Len(t, downloads, 2)

	all, err := db.ListFiles("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteFile(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertFile(sampleFile("/a.pdf", "pdf", "downloads")))
	require.NoError(t, db.DeleteFile("/a.pdf"))

	got, err := db.GetFile("/a.pdf")
	require.NoError(t, err)
	assert.Nil(t, got)
}
