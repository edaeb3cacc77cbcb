package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vigor-app/vigor/internal/domain"
)

// ─── User Progress ──────────────────────────────────────────────────────────

// GetProgress returns the user's progress aggregate, a fresh level-1 record
// if none exists yet. Version 0 means "not yet persisted".
func (d *DB) GetProgress(userID string) (domain.UserProgress, error) {
	row := d.db.QueryRow(
		`SELECT user_id, total_xp, level, category_xp, counters, pending, claimed, version, updated_at
		 FROM user_progress WHERE user_id = ?`, userID,
	)
	p, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return domain.NewUserProgress(userID), nil
	}
	if err != nil {
		return domain.UserProgress{}, fmt.Errorf("get progress: %w", err)
	}
	return p, nil
}

// CommitEvent appends a ledger entry and applies the progress mutation in a
// single transaction. The token's primary key enforces idempotency; a
// leftover failed entry for the same token is replaced, any other conflict
// is domain.ErrDuplicateToken.
func (d *DB) CommitEvent(entry domain.EventLog, progress domain.UserProgress) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	if err := insertEventLog(tx, entry, true); err != nil {
		return err
	}
	if err := writeProgress(tx, progress); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return nil
}

// CommitReversal marks the original entry reversed, appends the reversal
// entry, and applies the restored progress state — all in one transaction.
func (d *DB) CommitReversal(entry domain.EventLog, reversedToken string, reversedAt time.Time, progress domain.UserProgress) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE event_log SET status = ?, reversed_at = ?, reversed_by = ?
		 WHERE token = ? AND status = ?`,
		string(domain.EventReversed), reversedAt.Unix(), entry.Token,
		reversedToken, string(domain.EventCompleted),
	)
	if err != nil {
		return fmt.Errorf("%w: mark reversed: %v", domain.ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAlreadyReversed
	}

	if err := insertEventLog(tx, entry, false); err != nil {
		return err
	}
	if err := writeProgress(tx, progress); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return nil
}

// RecordFailure writes a failed ledger entry for audit. The token stays
// reusable: a later successful commit for the same token replaces it.
func (d *DB) RecordFailure(entry domain.EventLog) error {
	contract, reversal, err := marshalEventLog(entry)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		`INSERT OR IGNORE INTO event_log (token, user_id, source, contract, reversal, status, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Token, entry.UserID, string(entry.Source), contract, reversal,
		string(domain.EventFailed), entry.Timestamp.Unix(),
	)
	return err
}

// ClaimAchievement moves an achievement from the pending to the claimed
// set. A normal progress write, outside event processing; still goes
// through the version CAS.
func (d *DB) ClaimAchievement(userID, achievementID string) (domain.UserProgress, error) {
	p, err := d.GetProgress(userID)
	if err != nil {
		return domain.UserProgress{}, err
	}

	found := false
	for i, id := range p.PendingAchievements {
		if id == achievementID {
			p.PendingAchievements = append(p.PendingAchievements[:i], p.PendingAchievements[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return domain.UserProgress{}, domain.ErrAchievementNotPending
	}
	p.ClaimedAchievements = append(p.ClaimedAchievements, achievementID)
	p.UpdatedAt = time.Now()

	tx, err := d.db.Begin()
	if err != nil {
		return domain.UserProgress{}, fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback()
	if err := writeProgress(tx, p); err != nil {
		return domain.UserProgress{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.UserProgress{}, fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	p.Version++
	return p, nil
}

// ─── helpers ────────────────────────────────────────────────────────────────

// writeProgress persists the aggregate with a compare-and-swap on version.
// Version 0 inserts; anything else must match the stored version exactly.
func writeProgress(tx *sql.Tx, p domain.UserProgress) error {
	categoryXP, err := json.Marshal(p.CategoryXP)
	if err != nil {
		return fmt.Errorf("marshal category_xp: %w", err)
	}
	counters, err := json.Marshal(p.Counters)
	if err != nil {
		return fmt.Errorf("marshal counters: %w", err)
	}
	pending, err := json.Marshal(stringsOrEmpty(p.PendingAchievements))
	if err != nil {
		return fmt.Errorf("marshal pending: %w", err)
	}
	claimed, err := json.Marshal(stringsOrEmpty(p.ClaimedAchievements))
	if err != nil {
		return fmt.Errorf("marshal claimed: %w", err)
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	if p.Version == 0 {
		res, err := tx.Exec(
			`INSERT INTO user_progress (user_id, total_xp, level, category_xp, counters, pending, claimed, version, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)
			 ON CONFLICT(user_id) DO NOTHING`,
			p.UserID, p.TotalXP, p.Level, categoryXP, counters, pending, claimed, updatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("%w: insert progress: %v", domain.ErrPersistence, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrVersionConflict
		}
		return nil
	}

	res, err := tx.Exec(
		`UPDATE user_progress
		 SET total_xp = ?, level = ?, category_xp = ?, counters = ?, pending = ?, claimed = ?,
		     version = version + 1, updated_at = ?
		 WHERE user_id = ? AND version = ?`,
		p.TotalXP, p.Level, categoryXP, counters, pending, claimed, updatedAt.Unix(),
		p.UserID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("%w: update progress: %v", domain.ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

// insertEventLog appends one ledger entry. With replaceFailed set, a
// leftover failed entry under the same token is overwritten; any other
// token collision is domain.ErrDuplicateToken.
func insertEventLog(tx *sql.Tx, entry domain.EventLog, replaceFailed bool) error {
	contract, reversal, err := marshalEventLog(entry)
	if err != nil {
		return err
	}

	query := `INSERT INTO event_log (token, user_id, source, contract, reversal, status, timestamp)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	if replaceFailed {
		query += ` ON CONFLICT(token) DO UPDATE SET
		             user_id = excluded.user_id, source = excluded.source,
		             contract = excluded.contract, reversal = excluded.reversal,
		             status = excluded.status, timestamp = excluded.timestamp
		           WHERE event_log.status = 'failed'`
	}

	res, err := tx.Exec(query,
		entry.Token, entry.UserID, string(entry.Source), contract, reversal,
		string(entry.Status), entry.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert event: %v", domain.ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDuplicateToken
	}
	return nil
}

func marshalEventLog(entry domain.EventLog) (contract, reversal []byte, err error) {
	contract, err = json.Marshal(entry.Contract)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal contract: %w", err)
	}
	reversal, err = json.Marshal(entry.Reversal)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal reversal: %w", err)
	}
	return contract, reversal, nil
}

func scanProgress(row *sql.Row) (domain.UserProgress, error) {
	var p domain.UserProgress
	var categoryXP, counters, pending, claimed []byte
	var updatedAt int64
	err := row.Scan(&p.UserID, &p.TotalXP, &p.Level, &categoryXP, &counters, &pending, &claimed, &p.Version, &updatedAt)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(categoryXP, &p.CategoryXP); err != nil {
		return p, fmt.Errorf("unmarshal category_xp: %w", err)
	}
	if err := json.Unmarshal(counters, &p.Counters); err != nil {
		return p, fmt.Errorf("unmarshal counters: %w", err)
	}
	if err := json.Unmarshal(pending, &p.PendingAchievements); err != nil {
		return p, fmt.Errorf("unmarshal pending: %w", err)
	}
	if err := json.Unmarshal(claimed, &p.ClaimedAchievements); err != nil {
		return p, fmt.Errorf("unmarshal claimed: %w", err)
	}
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return p, nil
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
