package progression

import "math"

// Level curve: exponential, L1–L100. The same formula is used everywhere a
// level is derived — including reversal, which recomputes level from the
// restored XP total rather than trusting a stored value blindly.

// MaxLevel is the level cap.
const MaxLevel = 100

// XPForLevel returns the cumulative XP required to reach a given level.
// Uses an exponential curve: 100 * 1.2^(level-1) for level >= 2.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	return int64(100 * math.Pow(1.2, float64(level-1)))
}

// LevelForXP returns the level for a given XP amount.
// Iterates upward until cumulative XP exceeds the target.
func LevelForXP(xp int64) int {
	level := 1
	for level < MaxLevel {
		required := XPForLevel(level + 1)
		if xp < required {
			return level
		}
		level++
	}
	return MaxLevel
}

// XPToNextLevel returns XP remaining from the given total until the next
// level, zero at the cap.
func XPToNextLevel(xp int64) int64 {
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 0
	}
	remaining := XPForLevel(level+1) - xp
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
