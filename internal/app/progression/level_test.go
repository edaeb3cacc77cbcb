package progression_test

import (
	"testing"

	"github.com/vigor-app/vigor/internal/app/progression"
)

func TestLevel_Curve(t *testing.T) {
	if xp := progression.XPForLevel(1); xp != 0 {
		t.Errorf("level 1 requires 0 XP, got %d", xp)
	}
	if xp := progression.XPForLevel(2); xp != 120 {
		t.Errorf("level 2: expected 120, got %d", xp)
	}
	// Requirements strictly increase up to the cap.
	prev := int64(-1)
	for l := 1; l <= progression.MaxLevel; l++ {
		xp := progression.XPForLevel(l)
		if xp <= prev && l > 1 {
			t.Fatalf("level %d requirement %d not above previous %d", l, xp, prev)
		}
		prev = xp
	}
}

func TestLevel_ForXP(t *testing.T) {
	cases := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{119, 1},
		{120, 2},
		{143, 2},
		{144, 3},
	}
	for _, c := range cases {
		if got := progression.LevelForXP(c.xp); got != c.want {
			t.Errorf("LevelForXP(%d): expected %d, got %d", c.xp, c.want, got)
		}
	}
}

func TestLevel_Cap(t *testing.T) {
	if got := progression.LevelForXP(1 << 62); got != progression.MaxLevel {
		t.Errorf("expected cap %d, got %d", progression.MaxLevel, got)
	}
	if got := progression.XPToNextLevel(1 << 62); got != 0 {
		t.Errorf("expected 0 XP to next at cap, got %d", got)
	}
}

func TestLevel_XPToNext(t *testing.T) {
	if got := progression.XPToNextLevel(100); got != 20 {
		t.Errorf("expected 20 remaining to level 2, got %d", got)
	}
}
