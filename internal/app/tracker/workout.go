package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vigor-app/vigor/internal/domain"
)

// defaultWorkoutXP is the base award for a workout before multipliers.
const defaultWorkoutXP = 25

// LogWorkout stores a workout session and processes its event.
func (s *Service) LogWorkout(w domain.Workout) (domain.ProcessResult, error) {
	if w.UserID == "" {
		return domain.ProcessResult{}, domain.ErrMissingUser
	}
	if w.Name == "" {
		return domain.ProcessResult{}, domain.ErrInvalidPayload
	}
	if !w.Difficulty.Valid() {
		w.Difficulty = domain.DifficultyMedium
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.LoggedAt.IsZero() {
		w.LoggedAt = time.Now()
	}
	w.Token = uuid.NewString()

	if err := s.db.InsertWorkout(w); err != nil {
		return domain.ProcessResult{}, fmt.Errorf("insert workout: %w", err)
	}

	result, err := s.coord.Process(domain.ActionEvent{
		Token:      w.Token,
		UserID:     w.UserID,
		OccurredAt: w.LoggedAt,
		Payload: domain.WorkoutLoggedPayload{
			WorkoutID:  w.ID,
			Name:       w.Name,
			Category:   w.Category,
			Difficulty: w.Difficulty,
			BaseXP:     defaultWorkoutXP,
		},
	})
	if err != nil {
		_ = s.db.DeleteWorkout(w.ID)
		return domain.ProcessResult{}, fmt.Errorf("process workout log: %w", err)
	}

	s.afterProcess(w.UserID, result, domain.GoalWorkouts)
	return result, nil
}

// Workouts lists a user's workout sessions.
func (s *Service) Workouts(userID string, limit int) ([]domain.Workout, error) {
	return s.db.ListWorkouts(userID, limit)
}

// DeleteWorkout removes a workout entry and reverses its event.
func (s *Service) DeleteWorkout(userID, workoutID string) (domain.ReverseResult, error) {
	w, err := s.db.GetWorkout(workoutID)
	if err != nil {
		return domain.ReverseResult{}, err
	}
	if w.UserID != userID {
		return domain.ReverseResult{}, domain.ErrWorkoutNotFound
	}

	result, err := s.coord.Reverse(w.Token)
	if err != nil {
		return domain.ReverseResult{}, err
	}
	if err := s.db.DeleteWorkout(workoutID); err != nil {
		return result, fmt.Errorf("delete workout: %w", err)
	}

	s.afterReverse(userID, domain.GoalWorkouts)
	return result, nil
}
