package progression

import (
	"sort"

	"github.com/vigor-app/vigor/internal/domain"
)

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatGettingStarted AchievementCategory = "getting_started"
	CatConsistency    AchievementCategory = "consistency"
	CatNutrition      AchievementCategory = "nutrition"
	CatTraining       AchievementCategory = "training"
	CatDedication     AchievementCategory = "dedication"
)

// AchievementDef defines a single achievement. Each achievement is pinned
// to one counter dimension and one threshold; it unlocks the first time
// that counter crosses the threshold.
type AchievementDef struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Category  AchievementCategory `json:"category"`
	Icon      string              `json:"icon"`
	RewardXP  int64               `json:"reward_xp"`
	Dimension string              `json:"dimension"`
	Threshold int64               `json:"threshold"`
}

// Catalog returns the full achievement catalog.
func Catalog() []AchievementDef {
	return []AchievementDef{
		// ── Getting Started ────────────────────────────────────────────
		{
			ID: "first_task", Name: "First Step", Category: CatGettingStarted,
			Icon: "🎯", RewardXP: 50, Dimension: domain.DimTasksCompleted, Threshold: 1,
		},
		{
			ID: "first_meal", Name: "Food for Thought", Category: CatGettingStarted,
			Icon: "🍎", RewardXP: 30, Dimension: domain.DimFoodsLogged, Threshold: 1,
		},
		{
			ID: "first_workout", Name: "Warming Up", Category: CatGettingStarted,
			Icon: "🏃", RewardXP: 50, Dimension: domain.DimWorkoutsLogged, Threshold: 1,
		},
		{
			ID: "first_goal", Name: "Goal Getter", Category: CatGettingStarted,
			Icon: "🏁", RewardXP: 50, Dimension: domain.DimGoalsCompleted, Threshold: 1,
		},

		// ── Consistency (streaks) ──────────────────────────────────────
		{
			ID: "streak_7", Name: "Week Warrior", Category: CatConsistency,
			Icon: "🔥", RewardXP: 200, Dimension: domain.DimStreak, Threshold: 7,
		},
		{
			ID: "streak_14", Name: "Fortnight Force", Category: CatConsistency,
			Icon: "📅", RewardXP: 300, Dimension: domain.DimStreak, Threshold: 14,
		},
		{
			ID: "streak_30", Name: "Monthly Machine", Category: CatConsistency,
			Icon: "💪", RewardXP: 1000, Dimension: domain.DimStreak, Threshold: 30,
		},
		{
			ID: "streak_100", Name: "Centurion", Category: CatConsistency,
			Icon: "🏛️", RewardXP: 5000, Dimension: domain.DimStreak, Threshold: 100,
		},
		{
			ID: "best_streak_60", Name: "Personal Best", Category: CatConsistency,
			Icon: "⭐", RewardXP: 2000, Dimension: domain.DimStreakBest, Threshold: 60,
		},

		// ── Nutrition ──────────────────────────────────────────────────
		{
			ID: "meals_50", Name: "Meal Tracker", Category: CatNutrition,
			Icon: "🥗", RewardXP: 200, Dimension: domain.DimFoodsLogged, Threshold: 50,
		},
		{
			ID: "meals_250", Name: "Nutrition Nerd", Category: CatNutrition,
			Icon: "📒", RewardXP: 800, Dimension: domain.DimFoodsLogged, Threshold: 250,
		},
		{
			ID: "meals_1000", Name: "Macro Master", Category: CatNutrition,
			Icon: "👨‍🍳", RewardXP: 3000, Dimension: domain.DimFoodsLogged, Threshold: 1000,
		},

		// ── Training ───────────────────────────────────────────────────
		{
			ID: "workouts_25", Name: "Regular", Category: CatTraining,
			Icon: "🏋️", RewardXP: 300, Dimension: domain.DimWorkoutsLogged, Threshold: 25,
		},
		{
			ID: "workouts_100", Name: "Gym Rat", Category: CatTraining,
			Icon: "🦾", RewardXP: 1200, Dimension: domain.DimWorkoutsLogged, Threshold: 100,
		},
		{
			ID: "workouts_500", Name: "Iron Will", Category: CatTraining,
			Icon: "🥇", RewardXP: 5000, Dimension: domain.DimWorkoutsLogged, Threshold: 500,
		},

		// ── Dedication (cross-domain) ──────────────────────────────────
		{
			ID: "tasks_100", Name: "Habit Builder", Category: CatDedication,
			Icon: "🧱", RewardXP: 500, Dimension: domain.DimTasksCompleted, Threshold: 100,
		},
		{
			ID: "tasks_1000", Name: "Task Master", Category: CatDedication,
			Icon: "⚙️", RewardXP: 3000, Dimension: domain.DimTasksCompleted, Threshold: 1000,
		},
		{
			ID: "actions_250", Name: "All-Rounder", Category: CatDedication,
			Icon: "🎪", RewardXP: 600, Dimension: domain.DimActionsTotal, Threshold: 250,
		},
		{
			ID: "actions_1000", Name: "Lifestyle", Category: CatDedication,
			Icon: "🌟", RewardXP: 2500, Dimension: domain.DimActionsTotal, Threshold: 1000,
		},
		{
			ID: "goals_10", Name: "Finisher", Category: CatDedication,
			Icon: "🏆", RewardXP: 800, Dimension: domain.DimGoalsCompleted, Threshold: 10,
		},
	}
}

// AchievementIndex is the catalog indexed for crossing lookups.
type AchievementIndex struct {
	defs        []AchievementDef
	byID        map[string]AchievementDef
	byDimension map[string][]AchievementDef
}

// NewAchievementIndex builds an index over the given definitions.
func NewAchievementIndex(defs []AchievementDef) *AchievementIndex {
	idx := &AchievementIndex{
		defs:        defs,
		byID:        make(map[string]AchievementDef, len(defs)),
		byDimension: make(map[string][]AchievementDef),
	}
	for _, d := range defs {
		idx.byID[d.ID] = d
		idx.byDimension[d.Dimension] = append(idx.byDimension[d.Dimension], d)
	}
	for dim := range idx.byDimension {
		ds := idx.byDimension[dim]
		sort.Slice(ds, func(i, j int) bool { return ds[i].Threshold < ds[j].Threshold })
	}
	return idx
}

// Definitions returns all indexed achievement definitions.
func (idx *AchievementIndex) Definitions() []AchievementDef { return idx.defs }

// ByID looks up one definition.
func (idx *AchievementIndex) ByID(id string) (AchievementDef, bool) {
	d, ok := idx.byID[id]
	return d, ok
}

// ThresholdsFor returns the ascending thresholds defined for a dimension.
func (idx *AchievementIndex) ThresholdsFor(dimension string) []int64 {
	ds := idx.byDimension[dimension]
	if len(ds) == 0 {
		return nil
	}
	out := make([]int64, len(ds))
	for i, d := range ds {
		out[i] = d.Threshold
	}
	return out
}

// ForCrossing maps a threshold crossing to its achievement, if any.
func (idx *AchievementIndex) ForCrossing(c domain.ThresholdCrossing) (AchievementDef, bool) {
	for _, d := range idx.byDimension[c.Dimension] {
		if d.Threshold == c.Threshold {
			return d, true
		}
	}
	return AchievementDef{}, false
}
