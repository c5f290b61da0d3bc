package infra

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"rendersync/internal/domain"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS cycles (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        TEXT    NOT NULL,
	started_at  INTEGER NOT NULL,
	busy        INTEGER NOT NULL,
	reason      TEXT    NOT NULL DEFAULT '',
	detail      TEXT    NOT NULL DEFAULT '',
	commit_hash TEXT    NOT NULL DEFAULT '',
	pushed      INTEGER NOT NULL DEFAULT 0,
	error       TEXT    NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);
`

// SQLiteHistory implements domain.HistoryStore on a local SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory opens (creating if needed) the history database at path.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init history schema: %w", err)
	}

	return &SQLiteHistory{db: db}, nil
}

// RecordCycle appends one cycle record.
func (h *SQLiteHistory) RecordCycle(ctx context.Context, rec domain.CycleRecord) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO cycles(kind, started_at, busy, reason, detail, commit_hash, pushed, error, duration_ms)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Kind),
		rec.StartedAt.Unix(),
		boolToInt(rec.Busy),
		string(rec.Reason),
		rec.Detail,
		rec.CommitHash,
		boolToInt(rec.Pushed),
		rec.Err,
		rec.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record cycle: %w", err)
	}
	return nil
}

// RecentCycles returns up to limit records, newest first.
func (h *SQLiteHistory) RecentCycles(ctx context.Context, limit int) ([]domain.CycleRecord, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, kind, started_at, busy, reason, detail, commit_hash, pushed, error, duration_ms
		 FROM cycles ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var out []domain.CycleRecord
	for rows.Next() {
		var (
			rec       domain.CycleRecord
			kind      string
			reason    string
			startedAt int64
			busy      int
			pushed    int
		)
		if err := rows.Scan(&rec.ID, &kind, &startedAt, &busy, &reason,
			&rec.Detail, &rec.CommitHash, &pushed, &rec.Err, &rec.DurationMs); err != nil {
			return nil, err
		}
		rec.Kind = domain.CycleKind(kind)
		rec.Reason = domain.BusyReason(reason)
		rec.StartedAt = time.Unix(startedAt, 0)
		rec.Busy = busy != 0
		rec.Pushed = pushed != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLiteHistory implements domain.HistoryStore.
var _ domain.HistoryStore = (*SQLiteHistory)(nil)
