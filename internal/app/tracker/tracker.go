// Package tracker implements the trackable-item services: tasks, foods,
// and workouts. Each mutation that earns or forfeits XP flows through the
// progression coordinator as a tokenized event; the token is stored with
// the item so the derived effects can be undone exactly when the item is
// uncompleted or deleted.
package tracker

import (
	"log"

	"github.com/vigor-app/vigor/internal/app/goals"
	"github.com/vigor-app/vigor/internal/app/notify"
	"github.com/vigor-app/vigor/internal/app/progression"
	"github.com/vigor-app/vigor/internal/domain"
	"github.com/vigor-app/vigor/internal/infra/sqlite"
)

// Service manages trackable items and routes their events through the
// coordinator. Goals and notifications are optional collaborators — nil
// disables them (tests mostly run without).
type Service struct {
	db     *sqlite.DB
	coord  *progression.Coordinator
	goals  *goals.Service
	notify *notify.Service
}

// NewService creates a tracker service.
func NewService(db *sqlite.DB, coord *progression.Coordinator) *Service {
	return &Service{db: db, coord: coord}
}

// WithGoals attaches the weekly-goal service.
func (s *Service) WithGoals(g *goals.Service) *Service {
	s.goals = g
	return s
}

// WithNotifications attaches the notification service.
func (s *Service) WithNotifications(n *notify.Service) *Service {
	s.notify = n
	return s
}

// afterProcess fans a successful result out to goals and notifications.
// Side channels only — failures are logged, never propagated, because the
// event itself has already committed.
func (s *Service) afterProcess(userID string, result domain.ProcessResult, kind domain.GoalKind) {
	if s.goals != nil {
		completed, err := s.goals.RecordProgress(userID, kind, 1)
		if err != nil {
			log.Printf("[tracker] goal progress for %s: %v", userID, err)
		}
		if s.notify != nil {
			for _, g := range completed {
				if _, err := s.notify.GoalCompleted(userID, g); err != nil {
					log.Printf("[tracker] goal notification: %v", err)
				}
			}
		}
	}
	if s.notify == nil {
		return
	}
	if result.LeveledUp {
		if _, err := s.notify.LeveledUp(userID, result.NewLevel); err != nil {
			log.Printf("[tracker] level notification: %v", err)
		}
	}
	for _, id := range result.AchievementsUnlocked {
		if def, ok := s.coord.Achievements().ByID(id); ok {
			if _, err := s.notify.AchievementUnlocked(userID, def.Name, def.Icon); err != nil {
				log.Printf("[tracker] achievement notification: %v", err)
			}
		}
	}
}

// recordStreakGoal feeds a task's post-completion streak into any active
// streak goals. Same side-channel contract as afterProcess.
func (s *Service) recordStreakGoal(userID string, current int) {
	if s.goals == nil {
		return
	}
	completed, err := s.goals.RecordStreak(userID, current)
	if err != nil {
		log.Printf("[tracker] streak goal for %s: %v", userID, err)
	}
	if s.notify == nil {
		return
	}
	for _, g := range completed {
		if _, err := s.notify.GoalCompleted(userID, g); err != nil {
			log.Printf("[tracker] goal notification: %v", err)
		}
	}
}

// afterReverse rolls goal progress back. Completed goals stay completed —
// the award already went through its own event.
func (s *Service) afterReverse(userID string, kind domain.GoalKind) {
	if s.goals == nil {
		return
	}
	if _, err := s.goals.RecordProgress(userID, kind, -1); err != nil {
		log.Printf("[tracker] goal rollback for %s: %v", userID, err)
	}
}
