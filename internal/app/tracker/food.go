package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vigor-app/vigor/internal/domain"
)

// defaultFoodXP is the flat award for logging a meal.
const defaultFoodXP = 5

// LogFood stores a food entry and processes its event.
func (s *Service) LogFood(f domain.Food) (domain.ProcessResult, error) {
	if f.UserID == "" {
		return domain.ProcessResult{}, domain.ErrMissingUser
	}
	if f.Name == "" {
		return domain.ProcessResult{}, domain.ErrInvalidPayload
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.LoggedAt.IsZero() {
		f.LoggedAt = time.Now()
	}
	f.Token = uuid.NewString()

	if err := s.db.InsertFood(f); err != nil {
		return domain.ProcessResult{}, fmt.Errorf("insert food: %w", err)
	}

	result, err := s.coord.Process(domain.ActionEvent{
		Token:      f.Token,
		UserID:     f.UserID,
		OccurredAt: f.LoggedAt,
		Payload: domain.FoodLoggedPayload{
			FoodID:   f.ID,
			Name:     f.Name,
			Category: f.Category,
			BaseXP:   defaultFoodXP,
		},
	})
	if err != nil {
		_ = s.db.DeleteFood(f.ID)
		return domain.ProcessResult{}, fmt.Errorf("process food log: %w", err)
	}

	s.afterProcess(f.UserID, result, domain.GoalMeals)
	return result, nil
}

// Foods lists a user's food entries.
func (s *Service) Foods(userID string, limit int) ([]domain.Food, error) {
	return s.db.ListFoods(userID, limit)
}

// DeleteFood removes a food entry and reverses its event.
func (s *Service) DeleteFood(userID, foodID string) (domain.ReverseResult, error) {
	f, err := s.db.GetFood(foodID)
	if err != nil {
		return domain.ReverseResult{}, err
	}
	if f.UserID != userID {
		return domain.ReverseResult{}, domain.ErrFoodNotFound
	}

	result, err := s.coord.Reverse(f.Token)
	if err != nil {
		return domain.ReverseResult{}, err
	}
	if err := s.db.DeleteFood(foodID); err != nil {
		return result, fmt.Errorf("delete food: %w", err)
	}

	s.afterReverse(userID, domain.GoalMeals)
	return result, nil
}
