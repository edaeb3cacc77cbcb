package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Callers branch with
// errors.Is; infrastructure failures are wrapped around ErrPersistence.

var (
	// Event validation errors
	ErrMissingToken    = errors.New("event token is required")
	ErrMissingUser     = errors.New("event user id is required")
	ErrMissingPayload  = errors.New("event payload is required")
	ErrUnknownSource   = errors.New("unknown event source")
	ErrInvalidRule     = errors.New("invalid recurrence rule")
	ErrInvalidPayload  = errors.New("event payload is missing required fields")
	ErrNegativeBaseXP  = errors.New("base xp must not be negative")

	// Event processing errors
	ErrDuplicateToken  = errors.New("event token already processed")
	ErrEventNotFound   = errors.New("no event recorded for token")
	ErrAlreadyReversed = errors.New("event has already been reversed")
	ErrNotReversible   = errors.New("event is not reversible")

	// Store errors
	ErrPersistence     = errors.New("progress store unavailable")
	ErrVersionConflict = errors.New("concurrent progress update detected")
	ErrProgressMissing = errors.New("user progress not found")

	// Tracker errors
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskArchived     = errors.New("task is archived")
	ErrAlreadyCompleted = errors.New("task already completed for that day")
	ErrNotCompleted     = errors.New("task has no completion for that day")
	ErrFoodNotFound     = errors.New("food entry not found")
	ErrWorkoutNotFound  = errors.New("workout entry not found")

	// Goal errors
	ErrGoalNotFound = errors.New("goal not found")

	// Achievement errors
	ErrAchievementNotFound   = errors.New("achievement not found")
	ErrAchievementNotPending = errors.New("achievement is not pending claim")
)
