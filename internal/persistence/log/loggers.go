// Package log writes the farm's tick and audit streams as zstd-compressed
// JSONL. Files rotate on a wall-clock window so finished windows can be
// shipped or pruned without touching the live file.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"farmgrid.io/internal/sim/farm"
)

// Rotation windows. The tick stream appends every tick, so it rotates hourly;
// audit entries are rare enough for one file per day.
const (
	windowHourly = "2006-01-02-15"
	windowDaily  = "2006-01-02"
)

type streamWriter struct {
	dir    string
	prefix string
	layout string

	mu     sync.Mutex
	window string
	f      *os.File
	enc    *zstd.Encoder
	buf    *bufio.Writer
}

func newStreamWriter(dir, prefix, layout string) *streamWriter {
	return &streamWriter{dir: dir, prefix: prefix, layout: layout}
}

func (w *streamWriter) append(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	window := time.Now().UTC().Format(w.layout)
	if window != w.window {
		if err := w.rotateLocked(window); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(b); err != nil {
		return err
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	return w.buf.Flush()
}

func (w *streamWriter) rotateLocked(window string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathFor(window), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.buf = bufio.NewWriterSize(enc, 128*1024)
	w.window = window
	return nil
}

func (w *streamWriter) closeLocked() error {
	var err error
	if w.buf != nil {
		_ = w.buf.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.buf = nil
	return err
}

func (w *streamWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *streamWriter) pathFor(window string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, window))
}

// TickLogger records one entry per simulation tick under <farmDir>/ticks.
type TickLogger struct{ w *streamWriter }

func NewTickLogger(farmDir string) *TickLogger {
	return &TickLogger{w: newStreamWriter(filepath.Join(farmDir, "ticks"), "ticks", windowHourly)}
}

func (l *TickLogger) WriteTick(entry farm.TickLogEntry) error { return l.w.append(entry) }
func (l *TickLogger) Close() error                            { return l.w.close() }

// AuditLogger records money and ownership changes under <farmDir>/audit.
type AuditLogger struct{ w *streamWriter }

func NewAuditLogger(farmDir string) *AuditLogger {
	return &AuditLogger{w: newStreamWriter(filepath.Join(farmDir, "audit"), "audit", windowDaily)}
}

func (l *AuditLogger) WriteAudit(entry farm.AuditEntry) error { return l.w.append(entry) }
func (l *AuditLogger) Close() error                           { return l.w.close() }
