// Package notify creates user-facing notifications under a throttling
// policy: a hard daily cap and quiet hours. Only positive moments are
// notified — achievement unlocks, level-ups, finished goals. Nothing nags.
package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vigor-app/vigor/internal/domain"
	"github.com/vigor-app/vigor/internal/infra/sqlite"
)

// Service manages notifications.
type Service struct {
	db     *sqlite.DB
	policy domain.NotificationPolicy
}

// NewService creates a notification service with the default policy.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db, policy: domain.DefaultNotificationPolicy()}
}

// NewServiceWithPolicy creates a notification service with a custom policy.
func NewServiceWithPolicy(db *sqlite.DB, policy domain.NotificationPolicy) *Service {
	return &Service{db: db, policy: policy}
}

// Create stores a notification if policy allows it.
// Returns the notification ID (0 if suppressed by policy) and any error.
func (s *Service) Create(n domain.Notification) (int64, error) {
	todayCount, err := s.db.NotificationCountToday(n.UserID)
	if err != nil {
		return 0, fmt.Errorf("count today: %w", err)
	}
	if todayCount >= s.policy.MaxPerDay {
		return 0, nil // Suppressed — daily limit reached
	}

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if s.isQuietHour(n.CreatedAt) {
		return 0, nil // Suppressed — quiet hours
	}

	id, err := s.db.InsertNotification(n)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return id, nil
}

// AchievementUnlocked notifies about a fresh unlock.
func (s *Service) AchievementUnlocked(userID, name, icon string) (int64, error) {
	return s.Create(domain.Notification{
		UserID: userID,
		Type:   domain.NotifyAchievement,
		Title:  "Achievement unlocked",
		Body:   fmt.Sprintf("%s %s", icon, name),
	})
}

// LeveledUp notifies about a level gain.
func (s *Service) LeveledUp(userID string, level int) (int64, error) {
	return s.Create(domain.Notification{
		UserID: userID,
		Type:   domain.NotifyLevelUp,
		Title:  "Level up!",
		Body:   fmt.Sprintf("You reached level %d", level),
	})
}

// GoalCompleted notifies about a finished weekly goal.
func (s *Service) GoalCompleted(userID string, goal domain.Goal) (int64, error) {
	return s.Create(domain.Notification{
		UserID: userID,
		Type:   domain.NotifyGoalComplete,
		Title:  "Weekly goal complete",
		Body:   fmt.Sprintf("%s (+%d XP)", goal.Description, goal.RewardXP),
	})
}

// Pending returns unshown notifications.
func (s *Service) Pending(userID string, limit int) ([]domain.Notification, error) {
	return s.db.ListPendingNotifications(userID, limit)
}

// MarkShown marks a notification as shown.
func (s *Service) MarkShown(id int64) error {
	return s.db.MarkNotificationShown(id)
}

// Policy returns the active notification policy.
func (s *Service) Policy() domain.NotificationPolicy {
	return s.policy
}

// isQuietHour returns true if the given time falls within quiet hours.
func (s *Service) isQuietHour(t time.Time) bool {
	startHour, startMin := parseHHMM(s.policy.QuietStart)
	endHour, endMin := parseHHMM(s.policy.QuietEnd)

	timeMinutes := t.Hour()*60 + t.Minute()
	startMinutes := startHour*60 + startMin
	endMinutes := endHour*60 + endMin

	if startMinutes > endMinutes {
		// Wraps midnight: e.g., 22:00 – 08:00
		return timeMinutes >= startMinutes || timeMinutes < endMinutes
	}
	return timeMinutes >= startMinutes && timeMinutes < endMinutes
}

// parseHHMM parses "HH:MM" into hour and minute.
func parseHHMM(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}
