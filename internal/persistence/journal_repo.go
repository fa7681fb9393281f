package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EntryKind classifies a journal line.
type EntryKind string

const (
	EntryReceived EntryKind = "rx"
	EntrySent     EntryKind = "tx"
	EntryError    EntryKind = "error"
	EntryStatus   EntryKind = "status"
)

// JournalEntry is one line of the traffic log.
type JournalEntry struct {
	ID        int64
	Kind      EntryKind
	Transport string
	Target    string
	Body      string
	Hex       string
	At        time.Time
}

// JournalRepo stores the traffic log in SQLite.
type JournalRepo struct {
	db *sql.DB
}

func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

func (r *JournalRepo) Append(ctx context.Context, e JournalEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO journal(kind, transport, target, body, hex, at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, string(e.Kind), e.Transport, e.Target, e.Body, e.Hex, encodeJournalTime(e.At, time.Now))
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}

	return nil
}

// ListRecent returns up to limit newest entries in chronological order.
func (r *JournalRepo) ListRecent(ctx context.Context, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, transport, target, body, hex, at
		FROM (
			SELECT id, kind, transport, target, body, hex, at
			FROM journal
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make([]JournalEntry, 0, limit)
	for rows.Next() {
		var (
			e    JournalEntry
			kind string
			at   int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.Transport, &e.Target, &e.Body, &e.Hex, &at); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.Kind = EntryKind(kind)
		e.At = decodeJournalTime(at)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}

	return out, nil
}

// Trim keeps only the newest keep entries and reports how many were removed.
func (r *JournalRepo) Trim(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM journal
		WHERE id NOT IN (SELECT id FROM journal ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("trim journal: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("trim journal rows affected: %w", err)
	}

	return removed, nil
}

func (r *JournalRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal: %w", err)
	}

	return n, nil
}
