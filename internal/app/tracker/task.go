package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vigor-app/vigor/internal/app/progression"
	"github.com/vigor-app/vigor/internal/domain"
)

// CreateTask validates and stores a new task.
func (s *Service) CreateTask(t domain.Task) (domain.Task, error) {
	if t.UserID == "" {
		return domain.Task{}, domain.ErrMissingUser
	}
	if t.Title == "" {
		return domain.Task{}, domain.ErrInvalidPayload
	}
	if !t.Difficulty.Valid() {
		t.Difficulty = domain.DifficultyMedium
	}
	if t.BaseXP <= 0 {
		t.BaseXP = defaultTaskXP(t.Difficulty)
	}
	if t.Rule.Pattern == "" {
		t.Rule.Pattern = domain.RecurOnce
	}
	if err := t.Rule.Validate(); err != nil {
		return domain.Task{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if err := s.db.InsertTask(t); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// Task returns one task, checking ownership.
func (s *Service) Task(userID, taskID string) (*domain.Task, error) {
	t, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}

// Tasks lists a user's active tasks.
func (s *Service) Tasks(userID string) ([]domain.Task, error) {
	return s.db.ListTasks(userID, false)
}

// ArchiveTask archives a task. Its history and earned XP stay intact.
func (s *Service) ArchiveTask(userID, taskID string) error {
	if _, err := s.Task(userID, taskID); err != nil {
		return err
	}
	return s.db.ArchiveTask(taskID)
}

// CompleteTask marks a task completed for the day containing at, runs the
// completion event through the coordinator, and returns its result.
//
// The completion row is written first — its task+day unique key rejects a
// same-day double completion before any XP moves. If event processing then
// fails, the row is removed again.
func (s *Service) CompleteTask(userID, taskID string, at time.Time) (domain.ProcessResult, error) {
	task, err := s.Task(userID, taskID)
	if err != nil {
		return domain.ProcessResult{}, err
	}
	if task.Archived {
		return domain.ProcessResult{}, domain.ErrTaskArchived
	}
	if at.IsZero() {
		at = time.Now()
	}

	history, err := s.completionDays(taskID)
	if err != nil {
		return domain.ProcessResult{}, err
	}

	token := uuid.NewString()
	completionID, err := s.db.InsertCompletion(domain.TaskCompletion{
		TaskID:      taskID,
		UserID:      userID,
		Day:         domain.CanonicalDay(at),
		CompletedAt: at,
		Token:       token,
	})
	if err != nil {
		return domain.ProcessResult{}, err
	}

	result, err := s.coord.Process(domain.ActionEvent{
		Token:      token,
		UserID:     userID,
		OccurredAt: at,
		Payload: domain.TaskCompletedPayload{
			TaskID:        task.ID,
			Title:         task.Title,
			Difficulty:    task.Difficulty,
			Category:      task.Category,
			BaseXP:        task.BaseXP,
			History:       history,
			Rule:          task.Rule,
			TaskCreatedAt: task.CreatedAt,
		},
	})
	if err != nil {
		_ = s.db.DeleteCompletion(completionID)
		return domain.ProcessResult{}, fmt.Errorf("process completion: %w", err)
	}

	s.afterProcess(userID, result, domain.GoalTasks)
	s.recordStreakGoal(userID, s.streakOf(task, append(history, domain.CanonicalDay(at)), at).Current)
	return result, nil
}

// UncompleteTask undoes the completion for the day containing at: the
// stored event is reversed and the completion row removed.
func (s *Service) UncompleteTask(userID, taskID string, at time.Time) (domain.ReverseResult, error) {
	if _, err := s.Task(userID, taskID); err != nil {
		return domain.ReverseResult{}, err
	}
	completion, err := s.db.GetCompletion(taskID, at)
	if err != nil {
		return domain.ReverseResult{}, err
	}

	result, err := s.coord.Reverse(completion.Token)
	if err != nil {
		return domain.ReverseResult{}, err
	}
	if err := s.db.DeleteCompletion(completion.ID); err != nil {
		return result, fmt.Errorf("delete completion: %w", err)
	}

	s.afterReverse(userID, domain.GoalTasks)
	return result, nil
}

// Completions lists a task's completion history.
func (s *Service) Completions(userID, taskID string) ([]domain.TaskCompletion, error) {
	if _, err := s.Task(userID, taskID); err != nil {
		return nil, err
	}
	return s.db.ListCompletions(taskID)
}

// Streak computes the task's streak as of now.
func (s *Service) Streak(userID, taskID string) (domain.StreakResult, error) {
	task, err := s.Task(userID, taskID)
	if err != nil {
		return domain.StreakResult{}, err
	}
	history, err := s.completionDays(taskID)
	if err != nil {
		return domain.StreakResult{}, err
	}
	return s.streakOf(task, history, time.Now()), nil
}

func (s *Service) streakOf(task *domain.Task, history []time.Time, asOf time.Time) domain.StreakResult {
	return progression.CalculateStreak(history, task.Rule, task.CreatedAt, asOf)
}

// completionDays returns the task's completion days, oldest first.
func (s *Service) completionDays(taskID string) ([]time.Time, error) {
	completions, err := s.db.ListCompletions(taskID)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	days := make([]time.Time, len(completions))
	for i, c := range completions {
		days[i] = c.Day
	}
	return days, nil
}

// defaultTaskXP is the base award when a task doesn't set its own.
func defaultTaskXP(d domain.Difficulty) int64 {
	switch d {
	case domain.DifficultyEasy:
		return 10
	case domain.DifficultyHard:
		return 30
	default:
		return 20
	}
}
