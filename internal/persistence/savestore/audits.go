package savestore

import (
	"database/sql"
	"encoding/json"
	"time"

	"farmgrid.io/internal/sim/farm"
)

// Audit index tuning. The farm writes one entry per money movement, so the
// queue only fills when the disk stalls for a long stretch.
const (
	auditQueueSize     = 4096
	auditCommitEvery   = 256
	auditCommitMaxWait = 2 * time.Second
)

// WriteAudit satisfies farm.AuditLogger. The enqueue never blocks the farm
// loop; when the writer falls behind, entries are dropped and the JSONL
// audit log remains the source of truth.
func (s *SQLiteStore) WriteAudit(entry farm.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.auditCh <- entry:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

// IndexStats reports audit writer queue health for /metrics.
type IndexStats struct {
	QueueDepth     int
	QueueCapacity  int
	DropAuditTotal uint64
}

func (s *SQLiteStore) Stats() IndexStats {
	if s == nil {
		return IndexStats{}
	}
	return IndexStats{
		QueueDepth:     len(s.auditCh),
		QueueCapacity:  cap(s.auditCh),
		DropAuditTotal: s.dropAudit.Load(),
	}
}

// auditLoop batches queued entries into transactions. Rows append in arrival
// order; tick numbers restart at zero when a farm resumes, so (tick, seq) is
// not unique across runs. The idle flush keeps a transaction from pinning the
// single connection while autosaves run.
func (s *SQLiteStore) auditLoop() {
	insert, err := s.db.Prepare(`INSERT INTO audits(tick,seq,action,ref,delta,money,reason,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		for range s.auditCh {
		}
		return
	}
	defer insert.Close()

	ticker := time.NewTicker(auditCommitMaxWait)
	defer ticker.Stop()

	var (
		tx      *sql.Tx
		opCount int

		// seq restarts at zero on each new tick (assigned here, not at
		// enqueue, so ordering matches arrival order).
		lastTick uint64
		seq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.Begin()
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}

	for {
		select {
		case a, ok := <-s.auditCh:
			if !ok {
				commit()
				return
			}
			begin()
			if tx == nil {
				continue
			}
			if a.Tick != lastTick {
				lastTick = a.Tick
				seq = 0
			}
			thisSeq := seq
			seq++
			raw, _ := json.Marshal(a)
			if _, err := tx.Stmt(insert).Exec(
				int64(a.Tick),
				thisSeq,
				a.Action,
				a.Ref,
				a.Delta,
				a.Money,
				a.Reason,
				string(raw),
			); err != nil {
				rollback()
				continue
			}
			opCount++
			if opCount >= auditCommitEvery {
				commit()
			}
		case <-ticker.C:
			commit()
		}
	}
}

// AuditFilter narrows a QueryAudits scan. Zero values match everything.
type AuditFilter struct {
	Action    string
	Ref       string
	SinceTick uint64
	ToTick    uint64
	Limit     int
}

// QueryAudits returns matching entries in arrival order. A positive limit
// keeps the newest matches, same as the JSONL log reader.
func (s *SQLiteStore) QueryAudits(filter AuditFilter) ([]farm.AuditEntry, error) {
	q := `SELECT raw_json FROM audits WHERE 1=1`
	var args []any
	if filter.Action != "" {
		q += ` AND action = ?`
		args = append(args, filter.Action)
	}
	if filter.Ref != "" {
		q += ` AND ref = ?`
		args = append(args, filter.Ref)
	}
	if filter.SinceTick > 0 {
		q += ` AND tick >= ?`
		args = append(args, int64(filter.SinceTick))
	}
	if filter.ToTick > 0 {
		q += ` AND tick <= ?`
		args = append(args, int64(filter.ToTick))
	}
	q += ` ORDER BY rowid DESC`
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []farm.AuditEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e farm.AuditEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
