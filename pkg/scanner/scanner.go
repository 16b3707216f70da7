package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/prismon/mcp-file-rules/pkg/database"
	"github.com/prismon/mcp-file-rules/pkg/queue"
	"github.com/sirupsen/logrus"
)

// ScanOptions configures a directory scan.
type ScanOptions struct {
	WorkerCount    int    // parallel stat/store workers (default 8)
	QueueSize      int    // job queue capacity (default 10000)
	SourceLocation string // tag stored on every snapshot; default is the root path
}

// DefaultScanOptions returns the defaults used by the CLI.
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		WorkerCount: 8,
		QueueSize:   10000,
	}
}

// ScanStats summarizes one scan run.
type ScanStats struct {
	FilesScanned int64
	Errors       int64
	TotalSize    int64
	Duration     time.Duration
}

// Scan walks root, describes every regular file, and stores the
// snapshots in the database on a worker pool. Symlinks are skipped.
func Scan(ctx context.Context, root string, db *database.RulesDB, opts *ScanOptions) (*ScanStats, error) {
	start := time.Now()
	if opts == nil {
		opts = DefaultScanOptions()
	}

	abs, err := ExpandPath(root)
	if err != nil {
		return nil, err
	}

	tag := opts.SourceLocation
	if tag == "" {
		tag = abs
	}

	log.WithFields(logrus.Fields{
		"root":        abs,
		"workerCount": opts.WorkerCount,
	}).Info("Starting scan")

	stats := &ScanStats{}
	pool := queue.NewWorkerPool(ctx, opts.WorkerCount, opts.QueueSize)
	pool.Start()

	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			log.WithError(err).WithField("path", path).Warn("Skipping unreadable entry")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		return pool.Submit(&scanJob{path: path, tag: tag, db: db, stats: stats})
	})

	pool.Wait()
	stats.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"root":     abs,
		"files":    stats.FilesScanned,
		"errors":   stats.Errors,
		"duration": stats.Duration,
	}).Info("Scan complete")

	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return stats, fmt.Errorf("scan walk failed: %w", walkErr)
	}
	return stats, nil
}

type scanJob struct {
	path  string
	tag   string
	db    *database.RulesDB
	stats *ScanStats
}

func (j *scanJob) ID() string {
	return j.path
}

func (j *scanJob) Execute(ctx context.Context) error {
	file, err := Describe(j.path, j.tag)
	if err != nil {
		atomic.AddInt64(&j.stats.Errors, 1)
		return err
	}

	if err := j.db.UpsertFile(file); err != nil {
		atomic.AddInt64(&j.stats.Errors, 1)
		return fmt.Errorf("failed to store snapshot for %s: %w", j.path, err)
	}

	atomic.AddInt64(&j.stats.FilesScanned, 1)
	atomic.AddInt64(&j.stats.TotalSize, file.Size)
	return nil
}
