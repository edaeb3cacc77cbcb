package domain

import "time"

// ─── Tracker Types ──────────────────────────────────────────────────────────
// Trackable items: recurring tasks, food entries, workout sessions.
// These feed the coordinator; they never carry derived progress state.

// Task is a recurring habit or one-off to-do.
type Task struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Title      string         `json:"title"`
	Notes      string         `json:"notes,omitempty"`
	Difficulty Difficulty     `json:"difficulty"`
	Category   string         `json:"category,omitempty"`
	BaseXP     int64          `json:"base_xp"`
	Rule       RecurrenceRule `json:"rule"`
	CreatedAt  time.Time      `json:"created_at"`
	Archived   bool           `json:"archived"`
}

// TaskCompletion records one completed day for a task. Task + Day is unique
// (one completion per calendar day). Token links back to the event-log
// entry so the completion can be undone.
type TaskCompletion struct {
	ID          int64     `json:"id"`
	TaskID      string    `json:"task_id"`
	UserID      string    `json:"user_id"`
	Day         time.Time `json:"day"`
	CompletedAt time.Time `json:"completed_at"`
	Token       string    `json:"token"`
}

// Food is one logged meal or snack.
type Food struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
	Calories int       `json:"calories,omitempty"`
	LoggedAt time.Time `json:"logged_at"`
	Token    string    `json:"token"`
}

// Workout is one logged exercise session.
type Workout struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Category    string     `json:"category,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	DurationMin int        `json:"duration_min,omitempty"`
	LoggedAt    time.Time  `json:"logged_at"`
	Token       string     `json:"token"`
}

// ─── Weekly Goals ───────────────────────────────────────────────────────────

// GoalKind categorizes what a weekly goal counts.
type GoalKind string

const (
	GoalTasks    GoalKind = "tasks"
	GoalMeals    GoalKind = "meals"
	GoalWorkouts GoalKind = "workouts"
	GoalStreak   GoalKind = "streak"
)

// Goal is a weekly challenge with progress tracking.
type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Kind        GoalKind  `json:"kind"`
	Description string    `json:"description"`
	Target      int       `json:"target"`
	Progress    int       `json:"progress"`
	RewardXP    int64     `json:"reward_xp"`
	ExpiresAt   time.Time `json:"expires_at"`
	Completed   bool      `json:"completed"`
}

// IsExpired returns true if the goal deadline has passed.
func (g Goal) IsExpired() bool {
	return time.Now().After(g.ExpiresAt)
}

// GoalTemplate defines the pool of possible weekly goals.
type GoalTemplate struct {
	Kind        GoalKind `json:"kind"`
	Target      int      `json:"target"`
	Description string   `json:"description"`
	RewardXP    int64    `json:"reward_xp"`
}

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyAchievement  NotificationType = "achievement"
	NotifyLevelUp      NotificationType = "level_up"
	NotifyGoalComplete NotificationType = "goal_complete"
)

// Notification is a user-facing message.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// NotificationPolicy governs how often notifications are created.
type NotificationPolicy struct {
	MaxPerDay  int    `json:"max_per_day"`
	QuietStart string `json:"quiet_start"` // "22:00"
	QuietEnd   string `json:"quiet_end"`   // "08:00"
}

// DefaultNotificationPolicy returns the shipped policy: a few per day,
// nothing overnight.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		MaxPerDay:  3,
		QuietStart: "22:00",
		QuietEnd:   "08:00",
	}
}
