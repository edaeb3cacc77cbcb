package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vigor-app/vigor/internal/domain"
)

// ─── Weekly Goals ───────────────────────────────────────────────────────────

const goalColumns = `id, user_id, kind, description, target, progress, reward_xp, expires_at, completed`

// InsertGoal creates a new weekly goal.
func (d *DB) InsertGoal(g domain.Goal) error {
	_, err := d.db.Exec(
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, string(g.Kind), g.Description, g.Target, g.Progress,
		g.RewardXP, g.ExpiresAt.Unix(), g.Completed,
	)
	return err
}

// GetGoal retrieves a goal by ID.
func (d *DB) GetGoal(id string) (*domain.Goal, error) {
	row := d.db.QueryRow(`SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// ListActiveGoals returns a user's non-expired, non-completed goals.
func (d *DB) ListActiveGoals(userID string) ([]domain.Goal, error) {
	rows, err := d.db.Query(
		`SELECT `+goalColumns+` FROM goals
		 WHERE user_id = ? AND completed = 0 AND expires_at > ?
		 ORDER BY expires_at ASC`,
		userID, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("list active goals: %w", err)
	}
	defer rows.Close()
	return collectGoals(rows)
}

// ListGoals returns all of a user's goals regardless of status.
func (d *DB) ListGoals(userID string) ([]domain.Goal, error) {
	rows, err := d.db.Query(
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY expires_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()
	return collectGoals(rows)
}

// UpdateGoalProgress increments a goal's progress and returns the updated
// goal.
func (d *DB) UpdateGoalProgress(id string, delta int) (*domain.Goal, error) {
	_, err := d.db.Exec(`UPDATE goals SET progress = progress + ? WHERE id = ?`, delta, id)
	if err != nil {
		return nil, fmt.Errorf("update goal progress: %w", err)
	}
	return d.GetGoal(id)
}

// SetGoalProgress sets a goal's progress to an absolute value and returns
// the updated goal. Used for streak goals, where progress tracks the
// observed streak rather than accumulating deltas.
func (d *DB) SetGoalProgress(id string, progress int) (*domain.Goal, error) {
	_, err := d.db.Exec(`UPDATE goals SET progress = ? WHERE id = ?`, progress, id)
	if err != nil {
		return nil, fmt.Errorf("set goal progress: %w", err)
	}
	return d.GetGoal(id)
}

// CompleteGoal marks a goal completed.
func (d *DB) CompleteGoal(id string) error {
	res, err := d.db.Exec(`UPDATE goals SET completed = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

// DeleteExpiredGoals removes incomplete goals that expired before now.
func (d *DB) DeleteExpiredGoals(now time.Time) (int64, error) {
	res, err := d.db.Exec(
		`DELETE FROM goals WHERE completed = 0 AND expires_at < ?`, now.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func collectGoals(rows *sql.Rows) ([]domain.Goal, error) {
	var goals []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func scanGoal(scan func(...any) error) (*domain.Goal, error) {
	var g domain.Goal
	var kind string
	var expiresAt int64
	err := scan(&g.ID, &g.UserID, &kind, &g.Description, &g.Target, &g.Progress,
		&g.RewardXP, &expiresAt, &g.Completed)
	if err != nil {
		return nil, err
	}
	g.Kind = domain.GoalKind(kind)
	g.ExpiresAt = time.Unix(expiresAt, 0)
	return &g, nil
}
