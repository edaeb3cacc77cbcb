// Package goals manages weekly goals: a small pool of templates, three
// goals generated per user per week, progress recorded from processed
// events, and the flat XP award on completion routed back through the
// coordinator as its own event.
package goals

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/vigor-app/vigor/internal/app/progression"
	"github.com/vigor-app/vigor/internal/domain"
	"github.com/vigor-app/vigor/internal/infra/sqlite"
)

// Service manages weekly goals.
type Service struct {
	db      *sqlite.DB
	coord   *progression.Coordinator
	perWeek int
}

// NewService creates a goal service generating three goals per week.
func NewService(db *sqlite.DB, coord *progression.Coordinator) *Service {
	return &Service{db: db, coord: coord, perWeek: 3}
}

// WithPerWeek sets how many goals are generated each week.
func (s *Service) WithPerWeek(n int) *Service {
	if n > 0 {
		s.perWeek = n
	}
	return s
}

// goalPool is the set of possible weekly goal templates.
var goalPool = []domain.GoalTemplate{
	{Kind: domain.GoalTasks, Target: 10, Description: "Complete 10 tasks", RewardXP: 150},
	{Kind: domain.GoalTasks, Target: 20, Description: "Complete 20 tasks", RewardXP: 300},
	{Kind: domain.GoalMeals, Target: 15, Description: "Log 15 meals", RewardXP: 150},
	{Kind: domain.GoalMeals, Target: 21, Description: "Log 21 meals", RewardXP: 250},
	{Kind: domain.GoalWorkouts, Target: 3, Description: "Finish 3 workouts", RewardXP: 200},
	{Kind: domain.GoalWorkouts, Target: 5, Description: "Finish 5 workouts", RewardXP: 350},
	{Kind: domain.GoalStreak, Target: 7, Description: "Hold a 7-day streak", RewardXP: 200},
}

// EnsureWeeklyGoals returns the user's active goals, generating a fresh
// set (expiring next Monday 00:00 UTC) if none are active.
func (s *Service) EnsureWeeklyGoals(userID string) ([]domain.Goal, error) {
	active, err := s.db.ListActiveGoals(userID)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return active, nil
	}
	return s.generateAt(userID, time.Now())
}

// generateAt creates the week's goals for the week containing now.
func (s *Service) generateAt(userID string, now time.Time) ([]domain.Goal, error) {
	expiry := nextMonday(now)
	selected := pickUniqueGoals(goalPool, s.perWeek, now.UnixNano())

	var goals []domain.Goal
	for i, tmpl := range selected {
		goal := domain.Goal{
			ID:          fmt.Sprintf("goal-%s-%s-%d-%d", userID, tmpl.Kind, expiry.Unix(), i),
			UserID:      userID,
			Kind:        tmpl.Kind,
			Description: tmpl.Description,
			Target:      tmpl.Target,
			RewardXP:    tmpl.RewardXP,
			ExpiresAt:   expiry,
		}
		if err := s.db.InsertGoal(goal); err != nil {
			return nil, fmt.Errorf("insert goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, nil
}

// Active returns the user's current goals.
func (s *Service) Active(userID string) ([]domain.Goal, error) {
	return s.db.ListActiveGoals(userID)
}

// History returns all of the user's goals, completed and expired included.
func (s *Service) History(userID string) ([]domain.Goal, error) {
	return s.db.ListGoals(userID)
}

// RecordProgress adds delta to the user's active goals of the given kind
// and completes any that reach their target. A completed goal's reward is
// granted through the coordinator as a goal_completed event, so it lands
// in the ledger like any other award. Negative deltas (from reversals)
// roll progress back but never un-complete a finished goal.
func (s *Service) RecordProgress(userID string, kind domain.GoalKind, delta int) ([]domain.Goal, error) {
	active, err := s.db.ListActiveGoals(userID)
	if err != nil {
		return nil, err
	}

	var completed []domain.Goal
	for _, goal := range active {
		if goal.Kind != kind {
			continue
		}
		updated, err := s.db.UpdateGoalProgress(goal.ID, delta)
		if err != nil {
			return nil, err
		}
		if updated.Progress < updated.Target || updated.Completed {
			continue
		}
		if err := s.completeAndAward(userID, updated); err != nil {
			return nil, err
		}
		completed = append(completed, *updated)
	}
	return completed, nil
}

// RecordStreak aligns active streak goals with a just-computed task
// streak. Progress is a high-water mark, not a sum: it only ever rises,
// so a reversal that shortens one task's streak never lowers it.
func (s *Service) RecordStreak(userID string, current int) ([]domain.Goal, error) {
	active, err := s.db.ListActiveGoals(userID)
	if err != nil {
		return nil, err
	}

	var completed []domain.Goal
	for _, goal := range active {
		if goal.Kind != domain.GoalStreak || current <= goal.Progress {
			continue
		}
		updated, err := s.db.SetGoalProgress(goal.ID, current)
		if err != nil {
			return nil, err
		}
		if updated.Progress < updated.Target || updated.Completed {
			continue
		}
		if err := s.completeAndAward(userID, updated); err != nil {
			return nil, err
		}
		completed = append(completed, *updated)
	}
	return completed, nil
}

// completeAndAward marks the goal completed and routes its reward through
// the coordinator as a goal_completed event.
func (s *Service) completeAndAward(userID string, goal *domain.Goal) error {
	if err := s.db.CompleteGoal(goal.ID); err != nil {
		return err
	}
	goal.Completed = true

	_, err := s.coord.Process(domain.ActionEvent{
		Token:  uuid.NewString(),
		UserID: userID,
		Payload: domain.GoalCompletedPayload{
			GoalID:      goal.ID,
			Description: goal.Description,
			RewardXP:    goal.RewardXP,
		},
	})
	if err != nil {
		return fmt.Errorf("award goal %s: %w", goal.ID, err)
	}
	return nil
}

// CleanupExpired removes goals that expired before now.
func (s *Service) CleanupExpired() (int64, error) {
	return s.db.DeleteExpiredGoals(time.Now())
}

// nextMonday returns the next Monday at 00:00 UTC after the given time.
func nextMonday(t time.Time) time.Time {
	t = domain.CanonicalDay(t)
	daysUntilMonday := (8 - int(t.Weekday())) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}
	return t.AddDate(0, 0, daysUntilMonday)
}

// pickUniqueGoals selects n random templates, preferring unique kinds.
func pickUniqueGoals(pool []domain.GoalTemplate, n int, seed int64) []domain.GoalTemplate {
	r := rand.New(rand.NewSource(seed))

	shuffled := make([]domain.GoalTemplate, len(pool))
	copy(shuffled, pool)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	seen := make(map[domain.GoalKind]bool)
	var result []domain.GoalTemplate
	for _, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		if !seen[tmpl.Kind] {
			seen[tmpl.Kind] = true
			result = append(result, tmpl)
		}
	}
	for _, tmpl := range shuffled {
		if len(result) >= n {
			break
		}
		dup := false
		for _, picked := range result {
			if picked.Kind == tmpl.Kind && picked.Target == tmpl.Target {
				dup = true
				break
			}
		}
		if !dup {
			result = append(result, tmpl)
		}
	}
	return result
}
