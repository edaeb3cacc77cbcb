package progression_test

import (
	"reflect"
	"testing"

	"github.com/vigor-app/vigor/internal/app/progression"
	"github.com/vigor-app/vigor/internal/domain"
)

func TestXP_Deterministic(t *testing.T) {
	tuning := progression.DefaultTuning()

	a := tuning.CalculateXP(20, 5, domain.DifficultyHard, "fitness", 200)
	b := tuning.CalculateXP(20, 5, domain.DifficultyHard, "fitness", 200)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs produced different breakdowns:\n%+v\n%+v", a, b)
	}
}

func TestXP_StreakMultiplierCapped(t *testing.T) {
	tuning := progression.DefaultTuning()

	if m := tuning.StreakMultiplier(0); m != 1.0 {
		t.Errorf("streak 0: expected 1.0, got %v", m)
	}
	if m := tuning.StreakMultiplier(5); m != 1.25 {
		t.Errorf("streak 5: expected 1.25, got %v", m)
	}
	if m := tuning.StreakMultiplier(10); m != 1.5 {
		t.Errorf("streak 10: expected cap 1.5, got %v", m)
	}
	if m := tuning.StreakMultiplier(1000); m != 1.5 {
		t.Errorf("streak 1000: expected cap 1.5, got %v", m)
	}
}

func TestXP_DifficultyTiers(t *testing.T) {
	tuning := progression.DefaultTuning()

	cases := []struct {
		diff domain.Difficulty
		want float64
	}{
		{domain.DifficultyEasy, 1.0},
		{domain.DifficultyMedium, 1.25},
		{domain.DifficultyHard, 1.5},
		{"", 1.0},        // food events carry no difficulty
		{"extreme", 1.0}, // unknown tier falls back
	}
	for _, c := range cases {
		if got := tuning.DifficultyMultiplier(c.diff); got != c.want {
			t.Errorf("difficulty %q: expected %v, got %v", c.diff, c.want, got)
		}
	}
}

func TestXP_RoundingAndBonuses(t *testing.T) {
	tuning := progression.DefaultTuning()

	// 10 * 1.05 * 1.0 = 10.5 → rounds to 11.
	b := tuning.CalculateXP(10, 1, domain.DifficultyEasy, "", 0)
	if b.TotalXP != 11 {
		t.Errorf("expected 10.5 to round to 11, got %d", b.TotalXP)
	}

	// 20 * 1.25 * 1.5 = 37.5 → 38, plus milestone 200.
	b = tuning.CalculateXP(20, 5, domain.DifficultyHard, "", 200)
	if b.TotalXP != 238 {
		t.Errorf("expected 238, got %d", b.TotalXP)
	}
}

func TestXP_CategoryBonusAdditive(t *testing.T) {
	tuning := progression.DefaultTuning()
	tuning.CategoryBonuses = map[string]int64{"fitness": 5}

	b := tuning.CalculateXP(10, 0, domain.DifficultyEasy, "fitness", 0)
	if b.TotalXP != 15 {
		t.Errorf("expected 10+5, got %d", b.TotalXP)
	}
	b = tuning.CalculateXP(10, 0, domain.DifficultyEasy, "other", 0)
	if b.TotalXP != 10 {
		t.Errorf("unlisted category: expected 10, got %d", b.TotalXP)
	}
}

func TestXP_NeverNegative(t *testing.T) {
	tuning := progression.DefaultTuning()
	tuning.CategoryBonuses = map[string]int64{"penalty": -1000}

	b := tuning.CalculateXP(10, 0, domain.DifficultyEasy, "penalty", 0)
	if b.TotalXP != 0 {
		t.Errorf("expected clamp to 0, got %d", b.TotalXP)
	}
}
