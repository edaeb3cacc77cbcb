package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vigor-app/vigor/internal/domain"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// InsertTask creates a new task.
func (d *DB) InsertTask(t domain.Task) error {
	_, err := d.db.Exec(
		`INSERT INTO tasks (id, user_id, title, notes, difficulty, category, base_xp, pattern, custom_days, created_at, archived)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Notes, string(t.Difficulty), t.Category,
		t.BaseXP, string(t.Rule.Pattern), encodeWeekdays(t.Rule.CustomDays),
		t.CreatedAt.Unix(), t.Archived,
	)
	return err
}

// GetTask retrieves a task by ID.
func (d *DB) GetTask(id string) (*domain.Task, error) {
	row := d.db.QueryRow(
		`SELECT id, user_id, title, notes, difficulty, category, base_xp, pattern, custom_days, created_at, archived
		 FROM tasks WHERE id = ?`, id,
	)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks returns a user's tasks, active first.
func (d *DB) ListTasks(userID string, includeArchived bool) ([]domain.Task, error) {
	query := `SELECT id, user_id, title, notes, difficulty, category, base_xp, pattern, custom_days, created_at, archived
	          FROM tasks WHERE user_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := d.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ArchiveTask marks a task archived.
func (d *DB) ArchiveTask(id string) error {
	res, err := d.db.Exec(`UPDATE tasks SET archived = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// ─── Completions ────────────────────────────────────────────────────────────

// InsertCompletion records one completed day. Task + day is unique;
// a second completion for the same day returns ErrAlreadyCompleted.
func (d *DB) InsertCompletion(c domain.TaskCompletion) (int64, error) {
	res, err := d.db.Exec(
		`INSERT OR IGNORE INTO completions (task_id, user_id, day, completed_at, token)
		 VALUES (?, ?, ?, ?, ?)`,
		c.TaskID, c.UserID, c.Day.Unix(), c.CompletedAt.Unix(), c.Token,
	)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, domain.ErrAlreadyCompleted
	}
	return res.LastInsertId()
}

// GetCompletion returns the completion for a task on a given day.
func (d *DB) GetCompletion(taskID string, day time.Time) (*domain.TaskCompletion, error) {
	row := d.db.QueryRow(
		`SELECT id, task_id, user_id, day, completed_at, token
		 FROM completions WHERE task_id = ? AND day = ?`,
		taskID, domain.CanonicalDay(day).Unix(),
	)
	c, err := scanCompletion(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotCompleted
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

// ListCompletions returns all completion days for a task, oldest first.
func (d *DB) ListCompletions(taskID string) ([]domain.TaskCompletion, error) {
	rows, err := d.db.Query(
		`SELECT id, task_id, user_id, day, completed_at, token
		 FROM completions WHERE task_id = ? ORDER BY day ASC`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []domain.TaskCompletion
	for rows.Next() {
		c, err := scanCompletion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// DeleteCompletion removes a completion row (after its event is reversed).
func (d *DB) DeleteCompletion(id int64) error {
	_, err := d.db.Exec(`DELETE FROM completions WHERE id = ?`, id)
	return err
}

// ─── Foods ──────────────────────────────────────────────────────────────────

// InsertFood records a logged meal.
func (d *DB) InsertFood(f domain.Food) error {
	_, err := d.db.Exec(
		`INSERT INTO foods (id, user_id, name, category, calories, logged_at, token)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Name, f.Category, f.Calories, f.LoggedAt.Unix(), f.Token,
	)
	return err
}

// GetFood retrieves a food entry by ID.
func (d *DB) GetFood(id string) (*domain.Food, error) {
	row := d.db.QueryRow(
		`SELECT id, user_id, name, category, calories, logged_at, token
		 FROM foods WHERE id = ?`, id,
	)
	var f domain.Food
	var loggedAt int64
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Category, &f.Calories, &loggedAt, &f.Token)
	if err == sql.ErrNoRows {
		return nil, domain.ErrFoodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get food: %w", err)
	}
	f.LoggedAt = time.Unix(loggedAt, 0)
	return &f, nil
}

// ListFoods returns a user's food entries, newest first.
func (d *DB) ListFoods(userID string, limit int) ([]domain.Food, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(
		`SELECT id, user_id, name, category, calories, logged_at, token
		 FROM foods WHERE user_id = ? ORDER BY logged_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	defer rows.Close()

	var foods []domain.Food
	for rows.Next() {
		var f domain.Food
		var loggedAt int64
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Category, &f.Calories, &loggedAt, &f.Token); err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		f.LoggedAt = time.Unix(loggedAt, 0)
		foods = append(foods, f)
	}
	return foods, rows.Err()
}

// DeleteFood removes a food entry (after its event is reversed).
func (d *DB) DeleteFood(id string) error {
	_, err := d.db.Exec(`DELETE FROM foods WHERE id = ?`, id)
	return err
}

// ─── Workouts ───────────────────────────────────────────────────────────────

// InsertWorkout records a logged workout.
func (d *DB) InsertWorkout(w domain.Workout) error {
	_, err := d.db.Exec(
		`INSERT INTO workouts (id, user_id, name, category, difficulty, duration_min, logged_at, token)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.Name, w.Category, string(w.Difficulty), w.DurationMin,
		w.LoggedAt.Unix(), w.Token,
	)
	return err
}

// GetWorkout retrieves a workout entry by ID.
func (d *DB) GetWorkout(id string) (*domain.Workout, error) {
	row := d.db.QueryRow(
		`SELECT id, user_id, name, category, difficulty, duration_min, logged_at, token
		 FROM workouts WHERE id = ?`, id,
	)
	var w domain.Workout
	var difficulty string
	var loggedAt int64
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Category, &difficulty, &w.DurationMin, &loggedAt, &w.Token)
	if err == sql.ErrNoRows {
		return nil, domain.ErrWorkoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workout: %w", err)
	}
	w.Difficulty = domain.Difficulty(difficulty)
	w.LoggedAt = time.Unix(loggedAt, 0)
	return &w, nil
}

// ListWorkouts returns a user's workouts, newest first.
func (d *DB) ListWorkouts(userID string, limit int) ([]domain.Workout, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(
		`SELECT id, user_id, name, category, difficulty, duration_min, logged_at, token
		 FROM workouts WHERE user_id = ? ORDER BY logged_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	var workouts []domain.Workout
	for rows.Next() {
		var w domain.Workout
		var difficulty string
		var loggedAt int64
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Category, &difficulty, &w.DurationMin, &loggedAt, &w.Token); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		w.Difficulty = domain.Difficulty(difficulty)
		w.LoggedAt = time.Unix(loggedAt, 0)
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// DeleteWorkout removes a workout entry (after its event is reversed).
func (d *DB) DeleteWorkout(id string) error {
	_, err := d.db.Exec(`DELETE FROM workouts WHERE id = ?`, id)
	return err
}

// ─── scan/encode helpers ────────────────────────────────────────────────────

func scanTask(scan func(...any) error) (*domain.Task, error) {
	var t domain.Task
	var difficulty, pattern, customDays string
	var createdAt int64
	err := scan(&t.ID, &t.UserID, &t.Title, &t.Notes, &difficulty, &t.Category,
		&t.BaseXP, &pattern, &customDays, &createdAt, &t.Archived)
	if err != nil {
		return nil, err
	}
	t.Difficulty = domain.Difficulty(difficulty)
	t.Rule = domain.RecurrenceRule{
		Pattern:    domain.RecurrencePattern(pattern),
		CustomDays: decodeWeekdays(customDays),
	}
	t.CreatedAt = time.Unix(createdAt, 0)
	return &t, nil
}

func scanCompletion(scan func(...any) error) (*domain.TaskCompletion, error) {
	var c domain.TaskCompletion
	var day, completedAt int64
	err := scan(&c.ID, &c.TaskID, &c.UserID, &day, &completedAt, &c.Token)
	if err != nil {
		return nil, err
	}
	c.Day = time.Unix(day, 0).UTC()
	c.CompletedAt = time.Unix(completedAt, 0)
	return &c, nil
}

// encodeWeekdays serializes weekdays as "1,3,5".
func encodeWeekdays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(s string) []time.Weekday {
	if s == "" {
		return nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}
