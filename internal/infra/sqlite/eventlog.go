package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vigor-app/vigor/internal/domain"
)

// ─── Event Ledger Queries ───────────────────────────────────────────────────

const eventColumns = `token, user_id, source, contract, reversal, status, timestamp, reversed_at, reversed_by`

// GetEventLog returns the ledger entry for a token.
func (d *DB) GetEventLog(token string) (*domain.EventLog, error) {
	row := d.db.QueryRow(
		`SELECT `+eventColumns+` FROM event_log WHERE token = ?`, token,
	)
	entry, err := scanEventLog(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event log: %w", err)
	}
	return entry, nil
}

// ListEvents returns a user's ledger entries within [from, to], newest
// first. A zero `to` means "now".
func (d *DB) ListEvents(userID string, from, to time.Time, limit int) ([]domain.EventLog, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(
		`SELECT `+eventColumns+` FROM event_log
		 WHERE user_id = ? AND timestamp >= ? AND timestamp <= ?
		 ORDER BY timestamp DESC LIMIT ?`,
		userID, from.Unix(), to.Unix(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return collectEventLogs(rows)
}

// ListEventsByStatus returns a user's ledger entries in a given status,
// newest first — used to find reversible events and failed entries.
func (d *DB) ListEventsByStatus(userID string, status domain.EventStatus, limit int) ([]domain.EventLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(
		`SELECT `+eventColumns+` FROM event_log
		 WHERE user_id = ? AND status = ? ORDER BY timestamp DESC LIMIT ?`,
		userID, string(status), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events by status: %w", err)
	}
	defer rows.Close()
	return collectEventLogs(rows)
}

// CountTornReversals reports completed-status entries carrying a
// reversal stamp — a ledger inconsistency that should never occur. Used by
// the health checker.
func (d *DB) CountTornReversals() (int, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM event_log WHERE status = ? AND reversed_at IS NOT NULL`,
		string(domain.EventCompleted),
	).Scan(&n)
	return n, err
}

func collectEventLogs(rows *sql.Rows) ([]domain.EventLog, error) {
	var entries []domain.EventLog
	for rows.Next() {
		entry, err := scanEventLog(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event log: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanEventLog(scan func(...any) error) (*domain.EventLog, error) {
	var e domain.EventLog
	var contract, reversal []byte
	var source, status string
	var ts int64
	var reversedAt sql.NullInt64
	var reversedBy sql.NullString

	err := scan(&e.Token, &e.UserID, &source, &contract, &reversal, &status, &ts, &reversedAt, &reversedBy)
	if err != nil {
		return nil, err
	}
	e.Source = domain.EventSource(source)
	e.Status = domain.EventStatus(status)
	e.Timestamp = time.Unix(ts, 0)
	if reversedAt.Valid {
		t := time.Unix(reversedAt.Int64, 0)
		e.ReversedAt = &t
	}
	if reversedBy.Valid {
		e.ReversedByToken = reversedBy.String
	}
	if err := json.Unmarshal(contract, &e.Contract); err != nil {
		return nil, fmt.Errorf("unmarshal contract: %w", err)
	}
	if err := json.Unmarshal(reversal, &e.Reversal); err != nil {
		return nil, fmt.Errorf("unmarshal reversal: %w", err)
	}
	return &e, nil
}
