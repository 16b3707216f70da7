// Package scanner produces FileDescriptor snapshots from the local
// filesystem and feeds them to classification, either as a one-shot
// directory scan or a live directory watch.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/prismon/mcp-file-rules/pkg/logger"
	"github.com/sirupsen/logrus"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("scanner")
}

// ExpandPath expands a leading tilde and resolves the path to absolute.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		if path == "~" {
			path = homeDir
		} else {
			path = filepath.Join(homeDir, path[2:])
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	return abs, nil
}

// Describe stats one regular file into an immutable snapshot. The
// sourceLocation tag is carried verbatim; when empty, the containing
// directory is used. Symlinks and directories are not describable.
func Describe(path, sourceLocation string) (*models.FileDescriptor, error) {
	abs, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	// Lstat so symlinks are skipped instead of followed; their targets
	// get described directly.
	info, err := os.Lstat(abs)
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("skipping symlink: %s", abs)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("not a regular file: %s", abs)
	}

	if sourceLocation == "" {
		sourceLocation = filepath.Dir(abs)
	}

	name := filepath.Base(abs)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")

	created, accessed := info.ModTime(), info.ModTime()
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		created = time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
		accessed = time.Unix(stat.Atim.Sec, stat.Atim.Nsec)
	}

	return &models.FileDescriptor{
		Path:           abs,
		Name:           name,
		Extension:      ext,
		Size:           info.Size(),
		CreatedAt:      created,
		ModifiedAt:     info.ModTime(),
		AccessedAt:     accessed,
		Kind:           KindForExtension(ext),
		SourceLocation: sourceLocation,
	}, nil
}

var kindsByExtension = map[string]string{
	"jpg": "image", "jpeg": "image", "png": "image", "gif": "image",
	"bmp": "image", "webp": "image", "svg": "image", "heic": "image",
	"mp4": "video", "avi": "video", "mkv": "video", "mov": "video",
	"wmv": "video", "flv": "video", "webm": "video", "m4v": "video",
	"mp3": "audio", "wav": "audio", "flac": "audio", "aac": "audio",
	"ogg": "audio", "wma": "audio", "m4a": "audio",
	"pdf": "document", "doc": "document", "docx": "document",
	"txt": "document", "rtf": "document", "odt": "document",
	"zip": "archive", "tar": "archive", "gz": "archive", "7z": "archive",
	"rar": "archive",
	"dmg": "installer", "pkg": "installer", "msi": "installer",
	"deb": "installer", "rpm": "installer",
}

// KindForExtension maps a file extension to its category tag; unknown
// extensions get "other".
func KindForExtension(ext string) string {
	if kind, ok := kindsByExtension[strings.ToLower(ext)]; ok {
		return kind
	}
	return "other"
}
