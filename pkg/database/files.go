package database

import (
	"database/sql"
	"time"

	"github.com/prismon/mcp-file-rules/internal/models"
)

// File snapshot operations. The scanner writes snapshots here; batch
// classification reads them back. Timestamps are stored as Unix seconds.

// UpsertFile inserts or replaces a file snapshot.
func (d *RulesDB) UpsertFile(file *models.FileDescriptor) error {
	_, err := d.db.Exec(`
		INSERT INTO files (path, name, extension, size, created_at, modified_at,
			accessed_at, kind, source_location, last_scanned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			extension = excluded.extension,
			size = excluded.size,
			created_at = excluded.created_at,
			modified_at = excluded.modified_at,
			accessed_at = excluded.accessed_at,
			kind = excluded.kind,
			source_location = excluded.source_location,
			last_scanned = excluded.last_scanned
	`, file.Path, file.Name, file.Extension, file.Size,
		file.CreatedAt.Unix(), file.ModifiedAt.Unix(), file.AccessedAt.Unix(),
		file.Kind, file.SourceLocation)
	return err
}

// GetFile retrieves a snapshot by path. Returns nil when absent.
func (d *RulesDB) GetFile(path string) (*models.FileDescriptor, error) {
	row := d.db.QueryRow(fileSelect+" WHERE path = ?", path)
	file, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return file, err
}

// ListFiles returns all snapshots under a source location tag, or all
// snapshots when the tag is empty.
func (d *RulesDB) ListFiles(sourceLocation string) ([]*models.FileDescriptor, error) {
	query := fileSelect
	args := []any{}
	if sourceLocation != "" {
		query += " WHERE source_location = ?"
		args = append(args, sourceLocation)
	}
	query += " ORDER BY path ASC"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.FileDescriptor
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

// DeleteFile removes a snapshot by path.
func (d *RulesDB) DeleteFile(path string) error {
	_, err := d.db.Exec(`DELETE FROM files WHERE path = ?`, path)
	return err
}

const fileSelect = `
	SELECT path, name, extension, size, created_at, modified_at, accessed_at,
		kind, source_location
	FROM files`

func scanFile(row rowScanner) (*models.FileDescriptor, error) {
	var file models.FileDescriptor
	var ctime, mtime, atime int64
	var extension, kind, sourceLocation sql.NullString

	err := row.Scan(&file.Path, &file.Name, &extension, &file.Size,
		&ctime, &mtime, &atime, &kind, &sourceLocation)
	if err != nil {
		return nil, err
	}

	file.CreatedAt = time.Unix(ctime, 0)
	file.ModifiedAt = time.Unix(mtime, 0)
	file.AccessedAt = time.Unix(atime, 0)
	if extension.Valid {
		file.Extension = extension.String
	}
	if kind.Valid {
		file.Kind = kind.String
	}
	if sourceLocation.Valid {
		file.SourceLocation = sourceLocation.String
	}

	return &file, nil
}
