// Package savestore keeps save documents in a slot-keyed SQLite table and an
// append-only audit index in the same database file. One farm process owns
// the file; slots are overwritten in place, audits only grow.
package savestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"farmgrid.io/internal/persistence/save"
	"farmgrid.io/internal/sim/farm"
)

type SQLiteStore struct {
	db *sql.DB

	auditCh chan farm.AuditEntry
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool

	dropAudit atomic.Uint64
}

func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:      db,
		auditCh: make(chan farm.AuditEntry, auditQueueSize),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.auditLoop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL keeps autosave writes from blocking concurrent LOAD reads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			version TEXT NOT NULL,
			saved_at INTEGER NOT NULL,
			doc_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			action TEXT NOT NULL,
			ref TEXT,
			delta INTEGER NOT NULL,
			money INTEGER NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_action_tick ON audits(action, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_ref_tick ON audits(ref, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the audit queue before releasing the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.auditCh)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteStore) Put(slot string, doc *save.SaveV1) error {
	if slot == "" {
		return fmt.Errorf("empty slot")
	}
	if doc == nil {
		return fmt.Errorf("nil save document")
	}
	raw, err := save.Encode(doc)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.Exec(`INSERT INTO saves (slot, version, saved_at, doc_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			version = excluded.version,
			saved_at = excluded.saved_at,
			doc_json = excluded.doc_json,
			updated_at = excluded.updated_at`,
		slot, doc.Version, doc.Timestamp, string(raw), now)
	return err
}

// Get returns (nil, nil) for a missing slot so callers can distinguish
// "no such save" from a broken store.
func (s *SQLiteStore) Get(slot string) (*save.SaveV1, error) {
	var raw string
	err := s.db.QueryRow(`SELECT doc_json FROM saves WHERE slot = ?`, slot).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return save.Decode([]byte(raw))
}

func (s *SQLiteStore) Has(slot string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM saves WHERE slot = ?`, slot).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) Delete(slot string) error {
	_, err := s.db.Exec(`DELETE FROM saves WHERE slot = ?`, slot)
	return err
}

// SlotInfo describes one stored save without decoding the document.
type SlotInfo struct {
	Slot    string
	Version string
	SavedAt int64
}

func (s *SQLiteStore) List() ([]SlotInfo, error) {
	rows, err := s.db.Query(`SELECT slot, version, saved_at FROM saves ORDER BY slot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var info SlotInfo
		if err := rows.Scan(&info.Slot, &info.Version, &info.SavedAt); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
