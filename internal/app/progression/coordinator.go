package progression

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vigor-app/vigor/internal/domain"
	"github.com/vigor-app/vigor/internal/infra/metrics"
)

// Store is the persistence contract the coordinator depends on. Both commit
// methods are atomic: the progress mutation and the ledger write land
// together or not at all. Token uniqueness is enforced by the store's own
// unique key, not by a check here — check-then-act would leave a race
// window open.
type Store interface {
	// GetProgress returns the user's aggregate, a fresh zero-XP record if
	// none exists yet.
	GetProgress(userID string) (domain.UserProgress, error)
	// GetEventLog returns the ledger entry for a token, or
	// domain.ErrEventNotFound.
	GetEventLog(token string) (*domain.EventLog, error)
	// CommitEvent appends a ledger entry and applies the new progress state
	// in one transaction. Returns domain.ErrDuplicateToken if the token is
	// already present with a non-failed status, domain.ErrVersionConflict
	// if the progress aggregate changed underneath the caller.
	CommitEvent(entry domain.EventLog, progress domain.UserProgress) error
	// CommitReversal appends the reversal entry, marks the original entry
	// reversed, and applies the restored progress state in one transaction.
	CommitReversal(entry domain.EventLog, reversedToken string, reversedAt time.Time, progress domain.UserProgress) error
	// RecordFailure writes a failed ledger entry for audit. Best effort:
	// callers ignore its error.
	RecordFailure(entry domain.EventLog) error
}

// Coordinator orchestrates one event end to end: streak, XP, threshold
// crossings, achievement unlocks, the atomic progress commit, and the
// reversal contract that can undo all of it later.
type Coordinator struct {
	store   Store
	tuning  Tuning
	catalog *AchievementIndex
}

// New creates a coordinator over the given store with the standard catalog.
func New(store Store, tuning Tuning) *Coordinator {
	return &Coordinator{
		store:   store,
		tuning:  tuning,
		catalog: NewAchievementIndex(Catalog()),
	}
}

// Achievements exposes the catalog index (for API listing).
func (c *Coordinator) Achievements() *AchievementIndex { return c.catalog }

// counterOrder fixes the iteration order over counter deltas so crossings
// and unlock bonuses are deterministic.
var counterOrder = []string{
	domain.DimTasksCompleted,
	domain.DimFoodsLogged,
	domain.DimWorkoutsLogged,
	domain.DimGoalsCompleted,
	domain.DimActionsTotal,
}

// computation is the per-source intermediate: what the payload contributes
// before XP and crossings are resolved.
type computation struct {
	base       int64
	difficulty domain.Difficulty
	category   string
	streak     domain.StreakResult
	prevStreak domain.StreakResult
	deltas     map[string]int64
	hasStreak  bool
}

// Process runs one action event through the full pipeline.
//
// A token already present in the ledger with status completed is answered
// with the cached prior result — retried requests are idempotent and never
// double-apply. A reversed token is rejected: the action was undone, and
// re-doing it is a new action that needs a new token.
func (c *Coordinator) Process(event domain.ActionEvent) (domain.ProcessResult, error) {
	start := time.Now()

	if err := event.Validate(); err != nil {
		return domain.ProcessResult{}, err
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	// Idempotency guard: answer duplicates from the ledger. A failed entry
	// does not block a retry — the commit below replaces it.
	if prior, err := c.store.GetEventLog(event.Token); err == nil {
		switch prior.Status {
		case domain.EventCompleted:
			metrics.EventsDuplicate.Inc()
			return prior.Contract.Result, nil
		case domain.EventReversed:
			return domain.ProcessResult{}, domain.ErrDuplicateToken
		}
	} else if !errors.Is(err, domain.ErrEventNotFound) {
		return domain.ProcessResult{}, err
	}

	progress, err := c.store.GetProgress(event.UserID)
	if err != nil {
		return domain.ProcessResult{}, err
	}
	previous := progress.Clone()

	comp := c.compute(event.Payload, occurredAt)

	// Counters first: milestone bonuses depend on post-update counter
	// values, so crossings are resolved before the XP total.
	crossings, unlocked := c.resolveCrossings(progress, comp)
	var milestoneBonus int64
	var unlockedIDs []string
	for _, def := range unlocked {
		milestoneBonus += def.RewardXP
		unlockedIDs = append(unlockedIDs, def.ID)
	}

	breakdown := c.tuning.CalculateXP(comp.base, comp.streak.Current, comp.difficulty, comp.category, milestoneBonus)

	// Apply deltas to the aggregate.
	progress.TotalXP += breakdown.TotalXP
	progress.Level = LevelForXP(progress.TotalXP)
	progress.AddCategoryXP(comp.category, breakdown.TotalXP)
	for dim, delta := range comp.deltas {
		progress.AddCounter(dim, delta)
	}
	progress.PendingAchievements = append(progress.PendingAchievements, unlockedIDs...)
	progress.UpdatedAt = occurredAt

	result := domain.ProcessResult{
		Success:              true,
		XPAwarded:            breakdown.TotalXP,
		NewLevel:             progress.Level,
		LeveledUp:            progress.Level > previous.Level,
		AchievementsUnlocked: unlockedIDs,
		Token:                event.Token,
	}

	undo := domain.UndoInstructions{
		SubtractXP:       -breakdown.TotalXP,
		LockAchievements: unlockedIDs,
		RevertLevel:      previous.Level,
		CounterDeltas:    comp.deltas,
	}
	if comp.category != "" {
		undo.CategoryXP = map[string]int64{comp.category: breakdown.TotalXP}
	}

	entry := domain.EventLog{
		Token:  event.Token,
		UserID: event.UserID,
		Source: event.Source(),
		Contract: domain.ContractData{
			Result:        result,
			Breakdown:     breakdown,
			Streak:        comp.streak,
			Crossings:     crossings,
			CounterDeltas: comp.deltas,
			CategoryXP:    undo.CategoryXP,
		},
		Reversal: domain.ReversalData{
			Undo:          undo,
			PreviousState: previous,
			FinalState:    progress.Clone(),
		},
		Status:    domain.EventCompleted,
		Timestamp: occurredAt,
	}

	// Single commit point: ledger append and progress mutation land
	// together. On failure the aggregate is untouched and the caller may
	// retry the whole call under the same token.
	if err := c.store.CommitEvent(entry, progress); err != nil {
		if errors.Is(err, domain.ErrDuplicateToken) {
			// Lost a race with a concurrent submission of the same token.
			if prior, lookupErr := c.store.GetEventLog(event.Token); lookupErr == nil && prior.Status == domain.EventCompleted {
				metrics.EventsDuplicate.Inc()
				return prior.Contract.Result, nil
			}
			return domain.ProcessResult{}, err
		}
		failed := entry
		failed.Status = domain.EventFailed
		failed.Reversal = domain.ReversalData{}
		_ = c.store.RecordFailure(failed)
		metrics.EventsFailed.WithLabelValues(string(event.Source()), "commit").Inc()
		return domain.ProcessResult{}, fmt.Errorf("commit event %s: %w", event.Token, err)
	}

	metrics.EventsProcessed.WithLabelValues(string(event.Source())).Inc()
	metrics.XPAwarded.Add(float64(breakdown.TotalXP))
	if result.LeveledUp {
		metrics.LevelUps.Inc()
	}
	for _, def := range unlocked {
		metrics.AchievementsUnlocked.WithLabelValues(string(def.Category)).Inc()
	}
	metrics.ProcessLatency.Observe(time.Since(start).Seconds())

	return result, nil
}

// compute derives the per-source contribution. Dispatch is a type switch
// over the payload variants — each variant carries exactly the fields its
// source needs.
func (c *Coordinator) compute(payload domain.Payload, occurredAt time.Time) computation {
	switch p := payload.(type) {
	case domain.TaskCompletedPayload:
		// History excludes the completion being processed. The previous
		// streak is measured as of the day before, the new streak with
		// today's completion added — the pair feeds crossing detection.
		prev := CalculateStreak(p.History, p.Rule, p.TaskCreatedAt, occurredAt.AddDate(0, 0, -1))
		next := CalculateStreak(append(append([]time.Time(nil), p.History...), occurredAt), p.Rule, p.TaskCreatedAt, occurredAt)
		return computation{
			base:       p.BaseXP,
			difficulty: p.Difficulty,
			category:   p.Category,
			streak:     next,
			prevStreak: prev,
			hasStreak:  true,
			deltas: map[string]int64{
				domain.DimTasksCompleted: 1,
				domain.DimActionsTotal:   1,
			},
		}
	case domain.FoodLoggedPayload:
		return computation{
			base:     p.BaseXP,
			category: p.Category,
			deltas: map[string]int64{
				domain.DimFoodsLogged:  1,
				domain.DimActionsTotal: 1,
			},
		}
	case domain.WorkoutLoggedPayload:
		return computation{
			base:       p.BaseXP,
			difficulty: p.Difficulty,
			category:   p.Category,
			deltas: map[string]int64{
				domain.DimWorkoutsLogged: 1,
				domain.DimActionsTotal:   1,
			},
		}
	case domain.GoalCompletedPayload:
		return computation{
			base: p.RewardXP,
			deltas: map[string]int64{
				domain.DimGoalsCompleted: 1,
				domain.DimActionsTotal:   1,
			},
		}
	}
	return computation{deltas: map[string]int64{}}
}

// resolveCrossings runs threshold detection over every counter dimension
// the event touches, plus the streak dimensions for streak-bearing events,
// and maps each new crossing to a not-yet-held achievement.
func (c *Coordinator) resolveCrossings(progress domain.UserProgress, comp computation) ([]domain.ThresholdCrossing, []AchievementDef) {
	var crossings []domain.ThresholdCrossing
	for _, dim := range counterOrder {
		delta, ok := comp.deltas[dim]
		if !ok {
			continue
		}
		prev := progress.Counter(dim)
		crossings = append(crossings, DetectCrossings(
			prev, prev+delta, c.catalog.ThresholdsFor(dim), domain.CrossTotal, dim)...)
	}
	if comp.hasStreak {
		crossings = append(crossings, DetectCrossings(
			int64(comp.prevStreak.Current), int64(comp.streak.Current),
			c.catalog.ThresholdsFor(domain.DimStreak), domain.CrossStreak, domain.DimStreak)...)
		crossings = append(crossings, DetectCrossings(
			int64(comp.prevStreak.Best), int64(comp.streak.Best),
			c.catalog.ThresholdsFor(domain.DimStreakBest), domain.CrossStreakBest, domain.DimStreakBest)...)
	}

	var unlocked []AchievementDef
	for _, cr := range crossings {
		def, ok := c.catalog.ForCrossing(cr)
		if !ok || progress.HasAchievement(def.ID) {
			continue
		}
		unlocked = append(unlocked, def)
	}
	return crossings, unlocked
}

// Reverse undoes a previously processed event by token. This is a
// structural undo, not a replay: the stored instructions are applied as-is,
// so the restored state matches the pre-event state even if reward rules
// have changed since. The reversal itself is appended to the ledger under
// a fresh token for full auditability.
func (c *Coordinator) Reverse(token string) (domain.ReverseResult, error) {
	entry, err := c.store.GetEventLog(token)
	if err != nil {
		return domain.ReverseResult{}, err
	}
	switch entry.Status {
	case domain.EventReversed:
		return domain.ReverseResult{}, domain.ErrAlreadyReversed
	case domain.EventFailed:
		return domain.ReverseResult{}, domain.ErrNotReversible
	}
	reversalSource, ok := entry.Source.ReversalSource()
	if !ok || entry.Reversal.Undo.Empty() {
		// Reversal entries and goal completions are terminal.
		return domain.ReverseResult{}, domain.ErrNotReversible
	}

	progress, err := c.store.GetProgress(entry.UserID)
	if err != nil {
		return domain.ReverseResult{}, err
	}

	undo := entry.Reversal.Undo
	progress.TotalXP += undo.SubtractXP
	if progress.TotalXP < 0 {
		progress.TotalXP = 0
	}
	// Level is re-derived from the restored total via the one level curve,
	// not copied from the snapshot — keeps every level in the system
	// consistent with the same formula.
	progress.Level = LevelForXP(progress.TotalXP)
	for _, id := range undo.LockAchievements {
		progress.RemoveAchievement(id)
	}
	for dim, delta := range undo.CounterDeltas {
		progress.AddCounter(dim, -delta)
	}
	for category, amount := range undo.CategoryXP {
		progress.AddCategoryXP(category, -amount)
	}
	now := time.Now()
	progress.UpdatedAt = now

	xpReversed := -undo.SubtractXP
	reversalToken := uuid.NewString()
	reversalEntry := domain.EventLog{
		Token:  reversalToken,
		UserID: entry.UserID,
		Source: reversalSource,
		Contract: domain.ContractData{
			OriginalToken: entry.Token,
			Result: domain.ProcessResult{
				Success: true,
				Token:   reversalToken,
			},
		},
		Status:    domain.EventCompleted,
		Timestamp: now,
	}

	if err := c.store.CommitReversal(reversalEntry, entry.Token, now, progress); err != nil {
		return domain.ReverseResult{}, fmt.Errorf("commit reversal of %s: %w", entry.Token, err)
	}

	metrics.EventsReversed.WithLabelValues(string(entry.Source)).Inc()
	return domain.ReverseResult{Success: true, XPReversed: xpReversed}, nil
}
