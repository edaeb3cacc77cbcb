package progression

import (
	"math"

	"github.com/vigor-app/vigor/internal/domain"
)

// Tuning holds the XP calculation knobs. Loaded from config at startup;
// the zero value is unusable — use DefaultTuning as the base.
type Tuning struct {
	// StreakBonusPerDay is the multiplier growth per consecutive day.
	StreakBonusPerDay float64
	// StreakBonusCap saturates the streak bonus so long streaks cannot
	// produce runaway rewards.
	StreakBonusCap float64
	// DifficultyMultipliers is the fixed lookup per tier. Unknown or empty
	// difficulty resolves to 1.0.
	DifficultyMultipliers map[domain.Difficulty]float64
	// CategoryBonuses is an additive per-category incentive, zero-default.
	CategoryBonuses map[string]int64
}

// DefaultTuning returns the shipped reward tuning:
// +5% per streak day capped at +50%, easy/medium/hard at 1.0/1.25/1.5.
func DefaultTuning() Tuning {
	return Tuning{
		StreakBonusPerDay: 0.05,
		StreakBonusCap:    0.50,
		DifficultyMultipliers: map[domain.Difficulty]float64{
			domain.DifficultyEasy:   1.0,
			domain.DifficultyMedium: 1.25,
			domain.DifficultyHard:   1.5,
		},
		CategoryBonuses: map[string]int64{},
	}
}

// StreakMultiplier returns the capped streak multiplier for a streak length.
func (t Tuning) StreakMultiplier(streak int) float64 {
	if streak < 0 {
		streak = 0
	}
	bonus := float64(streak) * t.StreakBonusPerDay
	if bonus > t.StreakBonusCap {
		bonus = t.StreakBonusCap
	}
	return 1.0 + bonus
}

// DifficultyMultiplier returns the fixed multiplier for a tier, 1.0 for
// unknown tiers (food and goal events carry no difficulty).
func (t Tuning) DifficultyMultiplier(d domain.Difficulty) float64 {
	if m, ok := t.DifficultyMultipliers[d]; ok {
		return m
	}
	return 1.0
}

// CategoryBonus returns the additive bonus for a category, zero-default.
func (t Tuning) CategoryBonus(category string) int64 {
	return t.CategoryBonuses[category]
}

// CalculateXP computes one XP award. Pure and deterministic: identical
// inputs always produce an identical breakdown — the reversal contract
// depends on this. MilestoneBonus is supplied by the caller from threshold
// crossings; it is not computed here. The total never goes negative.
func (t Tuning) CalculateXP(base int64, streak int, difficulty domain.Difficulty, category string, milestoneBonus int64) domain.XPBreakdown {
	b := domain.XPBreakdown{
		BaseXP:               base,
		StreakMultiplier:     t.StreakMultiplier(streak),
		DifficultyMultiplier: t.DifficultyMultiplier(difficulty),
		CategoryBonus:        t.CategoryBonus(category),
		MilestoneBonus:       milestoneBonus,
	}
	total := int64(math.Round(float64(base)*b.StreakMultiplier*b.DifficultyMultiplier)) +
		b.CategoryBonus + b.MilestoneBonus
	if total < 0 {
		total = 0
	}
	b.TotalXP = total
	return b
}
