// Package progression implements the Vigor progression engine: streak and
// XP computation, threshold detection, the achievement catalog, and the
// event coordinator that ties them together with exact-undo semantics.
package progression

import (
	"sort"
	"time"

	"github.com/vigor-app/vigor/internal/domain"
)

// maxLookbackDays bounds the backward walk for the current streak. Streaks
// older than a year are reported as a year — the cost bound matters more
// than distinguishing "very long" from "even longer".
const maxLookbackDays = 365

// CalculateStreak computes current and best streak lengths for one item.
//
// History holds completion timestamps; they are normalized to UTC day
// boundaries and deduplicated before any comparison. For the once pattern
// any non-empty history yields {1,1}. For daily/custom the current streak
// walks backward from asOf: a day present in history always counts (history
// presence is authoritative, even on a not-due day), a due-but-absent day
// ends the streak, a not-due absent day is skipped. The best streak is a
// full chronological scan, resetting whenever a due day between two
// completions was missed.
func CalculateStreak(history []time.Time, rule domain.RecurrenceRule, createdAt, asOf time.Time) domain.StreakResult {
	days, set := normalizeDays(history)
	if len(days) == 0 {
		return domain.StreakResult{}
	}
	if rule.Pattern == domain.RecurOnce {
		return domain.StreakResult{Current: 1, Best: 1}
	}

	current := currentStreak(set, rule, createdAt, asOf)
	best := bestStreak(days, rule, createdAt)
	if current > best {
		best = current
	}
	return domain.StreakResult{Current: current, Best: best}
}

// currentStreak walks backward from asOf, bounded by maxLookbackDays.
func currentStreak(set map[time.Time]bool, rule domain.RecurrenceRule, createdAt, asOf time.Time) int {
	created := domain.CanonicalDay(createdAt)
	day := domain.CanonicalDay(asOf)

	streak := 0
	for i := 0; i < maxLookbackDays && !day.Before(created); i++ {
		switch {
		case set[day]:
			streak++
		case rule.DueOn(day, createdAt):
			return streak // gap found
		}
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// bestStreak scans the whole history chronologically. The run resets when
// any due day strictly between two consecutive completions was missed.
func bestStreak(days []time.Time, rule domain.RecurrenceRule, createdAt time.Time) int {
	best, run := 0, 0
	for i, d := range days {
		if i == 0 || cadenceBroken(days[i-1], d, rule, createdAt) {
			run = 1
		} else {
			run++
		}
		if run > best {
			best = run
		}
	}
	return best
}

// cadenceBroken reports whether a due day between prev and next was missed.
func cadenceBroken(prev, next time.Time, rule domain.RecurrenceRule, createdAt time.Time) bool {
	for day := prev.AddDate(0, 0, 1); day.Before(next); day = day.AddDate(0, 0, 1) {
		if rule.DueOn(day, createdAt) {
			return true
		}
	}
	return false
}

// normalizeDays dedupes history by UTC calendar day and returns the days
// sorted ascending plus a membership set.
func normalizeDays(history []time.Time) ([]time.Time, map[time.Time]bool) {
	set := make(map[time.Time]bool, len(history))
	for _, t := range history {
		set[domain.CanonicalDay(t)] = true
	}
	days := make([]time.Time, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, set
}
