package domain

import "time"

// ─── Difficulty ─────────────────────────────────────────────────────────────

// Difficulty is the effort tier of a task or workout.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ─── Streak / XP / Threshold outputs ────────────────────────────────────────

// StreakResult holds the computed streak lengths for one item.
// Best >= Current always holds after any update.
type StreakResult struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// XPBreakdown itemizes how one XP award was computed. Pure data: the same
// inputs always produce the same breakdown.
type XPBreakdown struct {
	BaseXP               int64   `json:"base_xp"`
	StreakMultiplier     float64 `json:"streak_multiplier"`
	DifficultyMultiplier float64 `json:"difficulty_multiplier"`
	CategoryBonus        int64   `json:"category_bonus"`
	MilestoneBonus       int64   `json:"milestone_bonus"`
	TotalXP              int64   `json:"total_xp"`
}

// CrossingKind classifies which counter dimension crossed a threshold.
type CrossingKind string

const (
	CrossTotal      CrossingKind = "total"
	CrossStreak     CrossingKind = "streak"
	CrossStreakBest CrossingKind = "streak_best"
)

// ThresholdCrossing records one threshold newly crossed by an event.
// Produced only where previousValue < Threshold <= newValue.
type ThresholdCrossing struct {
	Kind        CrossingKind `json:"kind"`
	Dimension   string       `json:"dimension"`
	Threshold   int64        `json:"threshold"`
	JustCrossed bool         `json:"just_crossed"`
}

// ─── Counter dimensions ─────────────────────────────────────────────────────
// Counter names used in UserProgress.Counters and achievement definitions.

const (
	DimTasksCompleted  = "tasks_completed"
	DimFoodsLogged     = "foods_logged"
	DimWorkoutsLogged  = "workouts_logged"
	DimGoalsCompleted  = "goals_completed"
	DimActionsTotal    = "actions_total"
	DimStreak          = "streak"
	DimStreakBest      = "streak_best"
)

// ─── User Progress ──────────────────────────────────────────────────────────

// UserProgress is the per-user cumulative progress aggregate. The
// coordinator is its only writer; Version serializes concurrent updates
// via compare-and-swap at the store.
type UserProgress struct {
	UserID               string           `json:"user_id"`
	TotalXP              int64            `json:"total_xp"`
	Level                int              `json:"level"`
	CategoryXP           map[string]int64 `json:"category_xp,omitempty"`
	Counters             map[string]int64 `json:"counters,omitempty"`
	PendingAchievements  []string         `json:"pending_achievements,omitempty"`
	ClaimedAchievements  []string         `json:"claimed_achievements,omitempty"`
	Version              int64            `json:"version"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// NewUserProgress returns a fresh level-1 progress record.
func NewUserProgress(userID string) UserProgress {
	return UserProgress{
		UserID:     userID,
		Level:      1,
		CategoryXP: map[string]int64{},
		Counters:   map[string]int64{},
	}
}

// Clone deep-copies the aggregate, for pre-mutation snapshots.
func (p UserProgress) Clone() UserProgress {
	c := p
	c.CategoryXP = make(map[string]int64, len(p.CategoryXP))
	for k, v := range p.CategoryXP {
		c.CategoryXP[k] = v
	}
	c.Counters = make(map[string]int64, len(p.Counters))
	for k, v := range p.Counters {
		c.Counters[k] = v
	}
	c.PendingAchievements = append([]string(nil), p.PendingAchievements...)
	c.ClaimedAchievements = append([]string(nil), p.ClaimedAchievements...)
	return c
}

// HasAchievement reports whether id is pending or claimed.
func (p UserProgress) HasAchievement(id string) bool {
	for _, a := range p.PendingAchievements {
		if a == id {
			return true
		}
	}
	for _, a := range p.ClaimedAchievements {
		if a == id {
			return true
		}
	}
	return false
}

// RemoveAchievement deletes id from both the pending and claimed sets.
func (p *UserProgress) RemoveAchievement(id string) {
	p.PendingAchievements = removeString(p.PendingAchievements, id)
	p.ClaimedAchievements = removeString(p.ClaimedAchievements, id)
}

// Counter returns the named counter, zero if absent.
func (p UserProgress) Counter(name string) int64 {
	if p.Counters == nil {
		return 0
	}
	return p.Counters[name]
}

// AddCounter adds delta to the named counter, clamping at zero.
func (p *UserProgress) AddCounter(name string, delta int64) {
	if p.Counters == nil {
		p.Counters = map[string]int64{}
	}
	v := p.Counters[name] + delta
	if v < 0 {
		v = 0
	}
	p.Counters[name] = v
}

// AddCategoryXP adds delta to the named category, clamping at zero.
func (p *UserProgress) AddCategoryXP(category string, delta int64) {
	if category == "" {
		return
	}
	if p.CategoryXP == nil {
		p.CategoryXP = map[string]int64{}
	}
	v := p.CategoryXP[category] + delta
	if v < 0 {
		v = 0
	}
	p.CategoryXP[category] = v
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
