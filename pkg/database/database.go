// Package database persists rules, file snapshots, and classification
// decisions in SQLite. It is the authoring/persistence collaborator of
// the engine: pkg/engine never imports it and only ever receives
// read-only rule snapshots loaded from here.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prismon/mcp-file-rules/pkg/logger"
	"github.com/sirupsen/logrus"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("db")
}

// RulesDB wraps the SQLite connection and all store operations.
type RulesDB struct {
	db *sql.DB
}

// NewRulesDB opens (and initializes) the database at path. Use
// ":memory:" for tests.
func NewRulesDB(path string) (*RulesDB, error) {
	log.WithField("path", path).Info("Initializing database")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	rdb := &RulesDB{db: db}
	if err := rdb.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return rdb, nil
}

// DB exposes the underlying connection for callers that need raw access.
func (d *RulesDB) DB() *sql.DB {
	return d.db
}

// Close closes the database connection.
func (d *RulesDB) Close() error {
	return d.db.Close()
}

// init creates all tables and indexes.
func (d *RulesDB) init() error {
	log.Debug("Creating tables and indexes")

	if _, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS rules (
		id INTEGER PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		priority INTEGER NOT NULL DEFAULT 100,
		enabled INTEGER NOT NULL DEFAULT 1,
		logical_operator TEXT NOT NULL DEFAULT 'and',
		conditions_json TEXT NOT NULL,
		exclusions_json TEXT,
		action_kind TEXT NOT NULL,
		destination_ref TEXT,
		chaining_enabled INTEGER NOT NULL DEFAULT 0,
		max_chain_depth INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER DEFAULT (strftime('%s', 'now'))
	)`); err != nil {
		return err
	}

	if _, err := d.db.Exec("CREATE INDEX IF NOT EXISTS idx_rules_priority ON rules(priority)"); err != nil {
		return err
	}

	if _, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY,
		path TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		extension TEXT,
		size INTEGER,
		created_at INTEGER,
		modified_at INTEGER,
		accessed_at INTEGER,
		kind TEXT,
		source_location TEXT,
		last_scanned INTEGER
	)`); err != nil {
		return err
	}

	if _, err := d.db.Exec("CREATE INDEX IF NOT EXISTS idx_files_extension ON files(extension)"); err != nil {
		return err
	}

	if _, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY,
		batch_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		matched_rule_id INTEGER,
		termination_reason TEXT NOT NULL,
		applied_rule_ids TEXT NOT NULL DEFAULT '[]',
		error_message TEXT,
		duration_ms INTEGER,
		decided_at INTEGER DEFAULT (strftime('%s', 'now'))
	)`); err != nil {
		return err
	}

	if _, err := d.db.Exec("CREATE INDEX IF NOT EXISTS idx_decisions_batch ON decisions(batch_id)"); err != nil {
		return err
	}

	return nil
}
