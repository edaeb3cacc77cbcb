package domain

import "time"

// ─── Event Sources ──────────────────────────────────────────────────────────

// EventSource identifies the kind of action that produced an event.
type EventSource string

const (
	SourceTaskCompleted   EventSource = "task_completed"
	SourceTaskUncompleted EventSource = "task_uncompleted"
	SourceFoodLogged      EventSource = "food_logged"
	SourceFoodDeleted     EventSource = "food_deleted"
	SourceWorkoutLogged   EventSource = "workout_logged"
	SourceWorkoutDeleted  EventSource = "workout_deleted"
	SourceGoalCompleted   EventSource = "goal_completed"
)

// reversalSources maps an additive source to the source recorded for its
// reversal entry. Goal completions are terminal — goals cannot be un-done.
var reversalSources = map[EventSource]EventSource{
	SourceTaskCompleted: SourceTaskUncompleted,
	SourceFoodLogged:    SourceFoodDeleted,
	SourceWorkoutLogged: SourceWorkoutDeleted,
}

// ReversalSource returns the source used when reversing an event of source s.
func (s EventSource) ReversalSource() (EventSource, bool) {
	r, ok := reversalSources[s]
	return r, ok
}

// Valid reports whether s is a known processable source.
func (s EventSource) Valid() bool {
	switch s {
	case SourceTaskCompleted, SourceFoodLogged, SourceWorkoutLogged, SourceGoalCompleted:
		return true
	}
	return false
}

// ─── Payload Variants ───────────────────────────────────────────────────────
// One variant per processable source. The coordinator dispatches on the
// concrete type; no stringly-typed branching.

// Payload is the source-specific part of an ActionEvent.
type Payload interface {
	Source() EventSource
	Validate() error
}

// TaskCompletedPayload snapshots everything streak and XP math needs when a
// task is completed. History holds completion days prior to this event —
// the day being completed is NOT included.
type TaskCompletedPayload struct {
	TaskID        string         `json:"task_id"`
	Title         string         `json:"title"`
	Difficulty    Difficulty     `json:"difficulty"`
	Category      string         `json:"category"`
	BaseXP        int64          `json:"base_xp"`
	History       []time.Time    `json:"history,omitempty"`
	Rule          RecurrenceRule `json:"rule"`
	TaskCreatedAt time.Time      `json:"task_created_at"`
}

func (p TaskCompletedPayload) Source() EventSource { return SourceTaskCompleted }

func (p TaskCompletedPayload) Validate() error {
	if p.TaskID == "" {
		return ErrInvalidPayload
	}
	if !p.Difficulty.Valid() {
		return ErrInvalidPayload
	}
	if p.BaseXP < 0 {
		return ErrNegativeBaseXP
	}
	return p.Rule.Validate()
}

// FoodLoggedPayload describes a logged meal. Food has no streak; it earns
// flat XP plus any category bonus.
type FoodLoggedPayload struct {
	FoodID   string `json:"food_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	BaseXP   int64  `json:"base_xp"`
}

func (p FoodLoggedPayload) Source() EventSource { return SourceFoodLogged }

func (p FoodLoggedPayload) Validate() error {
	if p.FoodID == "" {
		return ErrInvalidPayload
	}
	if p.BaseXP < 0 {
		return ErrNegativeBaseXP
	}
	return nil
}

// WorkoutLoggedPayload describes a logged workout session.
type WorkoutLoggedPayload struct {
	WorkoutID  string     `json:"workout_id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	BaseXP     int64      `json:"base_xp"`
}

func (p WorkoutLoggedPayload) Source() EventSource { return SourceWorkoutLogged }

func (p WorkoutLoggedPayload) Validate() error {
	if p.WorkoutID == "" {
		return ErrInvalidPayload
	}
	if !p.Difficulty.Valid() {
		return ErrInvalidPayload
	}
	if p.BaseXP < 0 {
		return ErrNegativeBaseXP
	}
	return nil
}

// GoalCompletedPayload awards the flat reward for a finished weekly goal.
type GoalCompletedPayload struct {
	GoalID      string `json:"goal_id"`
	Description string `json:"description"`
	RewardXP    int64  `json:"reward_xp"`
}

func (p GoalCompletedPayload) Source() EventSource { return SourceGoalCompleted }

func (p GoalCompletedPayload) Validate() error {
	if p.GoalID == "" {
		return ErrInvalidPayload
	}
	if p.RewardXP < 0 {
		return ErrNegativeBaseXP
	}
	return nil
}

// ─── ActionEvent ────────────────────────────────────────────────────────────

// ActionEvent is one logical user action submitted for processing.
// Token must be globally unique per action — it is the idempotency key and
// the handle for later reversal.
type ActionEvent struct {
	Token      string
	UserID     string
	OccurredAt time.Time
	Payload    Payload
}

// Source returns the event's source, derived from its payload.
func (e ActionEvent) Source() EventSource {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Source()
}

// Validate checks the event envelope and its payload.
func (e ActionEvent) Validate() error {
	if e.Token == "" {
		return ErrMissingToken
	}
	if e.UserID == "" {
		return ErrMissingUser
	}
	if e.Payload == nil {
		return ErrMissingPayload
	}
	if !e.Payload.Source().Valid() {
		return ErrUnknownSource
	}
	return e.Payload.Validate()
}

// ─── Results ────────────────────────────────────────────────────────────────

// ProcessResult summarizes one processed event for the caller.
type ProcessResult struct {
	Success              bool     `json:"success"`
	XPAwarded            int64    `json:"xp_awarded"`
	NewLevel             int      `json:"new_level"`
	LeveledUp            bool     `json:"leveled_up"`
	AchievementsUnlocked []string `json:"achievements_unlocked"`
	Token                string   `json:"token"`
}

// ReverseResult summarizes one reversed event.
type ReverseResult struct {
	Success    bool  `json:"success"`
	XPReversed int64 `json:"xp_reversed"`
}

// ─── Event Log ──────────────────────────────────────────────────────────────

// EventStatus is the lifecycle state of an EventLog entry.
// completed→reversed is the only transition; failed and reversed are terminal.
type EventStatus string

const (
	EventCompleted EventStatus = "completed"
	EventFailed    EventStatus = "failed"
	EventReversed  EventStatus = "reversed"
)

// Valid reports whether s is a known ledger status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventCompleted, EventFailed, EventReversed:
		return true
	}
	return false
}

// ContractData is the full computed outcome of one event — everything that
// was decided during processing, preserved for audit and duplicate replies.
type ContractData struct {
	Result        ProcessResult       `json:"result"`
	Breakdown     XPBreakdown         `json:"breakdown"`
	Streak        StreakResult        `json:"streak"`
	Crossings     []ThresholdCrossing `json:"crossings,omitempty"`
	CounterDeltas map[string]int64    `json:"counter_deltas,omitempty"`
	CategoryXP    map[string]int64    `json:"category_xp,omitempty"`

	// OriginalToken is set only on reversal entries and points at the
	// event that was undone.
	OriginalToken string `json:"original_token,omitempty"`
}

// UndoInstructions invert an event's side effects without replaying any
// business logic. The stored amounts are authoritative even if XP rules
// change between process and reverse.
type UndoInstructions struct {
	SubtractXP       int64            `json:"subtract_xp"` // negative delta, added to TotalXP
	LockAchievements []string         `json:"lock_achievements,omitempty"`
	RevertLevel      int              `json:"revert_level"`
	CounterDeltas    map[string]int64 `json:"counter_deltas,omitempty"`  // amounts to subtract
	CategoryXP       map[string]int64 `json:"category_xp,omitempty"`     // amounts to subtract
}

// Empty reports whether the instructions would change nothing. Reversal
// entries carry empty instructions and are themselves not reversible.
func (u UndoInstructions) Empty() bool {
	return u.SubtractXP == 0 && len(u.LockAchievements) == 0 &&
		len(u.CounterDeltas) == 0 && len(u.CategoryXP) == 0
}

// ReversalData bundles the undo instructions with before/after snapshots.
type ReversalData struct {
	Undo          UndoInstructions `json:"undo"`
	PreviousState UserProgress     `json:"previous_state"`
	FinalState    UserProgress     `json:"final_state"`
}

// EventLog is one entry of the append-only event ledger. Immutable once
// written except for the completed→reversed status transition.
type EventLog struct {
	Token           string       `json:"token"`
	UserID          string       `json:"user_id"`
	Source          EventSource  `json:"source"`
	Contract        ContractData `json:"contract"`
	Reversal        ReversalData `json:"reversal"`
	Status          EventStatus  `json:"status"`
	Timestamp       time.Time    `json:"timestamp"`
	ReversedAt      *time.Time   `json:"reversed_at,omitempty"`
	ReversedByToken string       `json:"reversed_by_token,omitempty"`
}
