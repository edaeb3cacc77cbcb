package tracker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vigor-app/vigor/internal/app/goals"
	"github.com/vigor-app/vigor/internal/app/progression"
	"github.com/vigor-app/vigor/internal/app/tracker"
	"github.com/vigor-app/vigor/internal/domain"
	"github.com/vigor-app/vigor/internal/infra/sqlite"
)

func testService(t *testing.T) (*tracker.Service, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	coord := progression.New(db, progression.DefaultTuning())
	return tracker.NewService(db, coord), db
}

func newDailyTask(t *testing.T, svc *tracker.Service, user string) domain.Task {
	t.Helper()
	task, err := svc.CreateTask(domain.Task{
		UserID:     user,
		Title:      "Morning run",
		Difficulty: domain.DifficultyEasy,
		Rule:       domain.RecurrenceRule{Pattern: domain.RecurDaily},
		CreatedAt:  time.Now().AddDate(0, 0, -30),
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

// ═══════════════════════════════════════════════════════════════════════════
// Tasks
// ═══════════════════════════════════════════════════════════════════════════

func TestCreateTask_Defaults(t *testing.T) {
	svc, _ := testService(t)

	task, err := svc.CreateTask(domain.Task{UserID: "u1", Title: "Stretch"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == "" {
		t.Error("expected generated ID")
	}
	if task.Difficulty != domain.DifficultyMedium {
		t.Errorf("expected medium default, got %s", task.Difficulty)
	}
	if task.BaseXP != 20 {
		t.Errorf("expected 20 base XP for medium, got %d", task.BaseXP)
	}
	if task.Rule.Pattern != domain.RecurOnce {
		t.Errorf("expected once default, got %s", task.Rule.Pattern)
	}
}

func TestCreateTask_Invalid(t *testing.T) {
	svc, _ := testService(t)

	if _, err := svc.CreateTask(domain.Task{Title: "No owner"}); !errors.Is(err, domain.ErrMissingUser) {
		t.Errorf("expected ErrMissingUser, got %v", err)
	}
	if _, err := svc.CreateTask(domain.Task{UserID: "u1"}); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Errorf("expected ErrInvalidPayload for empty title, got %v", err)
	}
	_, err := svc.CreateTask(domain.Task{
		UserID: "u1", Title: "Bad rule",
		Rule: domain.RecurrenceRule{Pattern: domain.RecurCustom},
	})
	if !errors.Is(err, domain.ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule, got %v", err)
	}
}

func TestCompleteTask_AwardsAndRecords(t *testing.T) {
	svc, db := testService(t)
	task := newDailyTask(t, svc, "u1")

	at := time.Now()
	result, err := svc.CompleteTask("u1", task.ID, at)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.XPAwarded <= 0 {
		t.Errorf("expected XP award, got %d", result.XPAwarded)
	}

	completions, _ := svc.Completions("u1", task.ID)
	if len(completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(completions))
	}
	if completions[0].Token == "" {
		t.Error("completion missing its event token")
	}

	p, _ := db.GetProgress("u1")
	if p.TotalXP != result.XPAwarded {
		t.Errorf("progress XP %d != awarded %d", p.TotalXP, result.XPAwarded)
	}
}

func TestCompleteTask_SameDayRejected(t *testing.T) {
	svc, db := testService(t)
	task := newDailyTask(t, svc, "u1")

	at := time.Now()
	first, err := svc.CompleteTask("u1", task.ID, at)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := svc.CompleteTask("u1", task.ID, at.Add(time.Hour)); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}

	p, _ := db.GetProgress("u1")
	if p.TotalXP != first.XPAwarded {
		t.Errorf("double completion leaked XP: %d", p.TotalXP)
	}
}

func TestUncompleteTask_RoundTrip(t *testing.T) {
	svc, db := testService(t)
	task := newDailyTask(t, svc, "u1")

	at := time.Now()
	result, err := svc.CompleteTask("u1", task.ID, at)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	rev, err := svc.UncompleteTask("u1", task.ID, at)
	if err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	if rev.XPReversed != result.XPAwarded {
		t.Errorf("expected %d reversed, got %d", result.XPAwarded, rev.XPReversed)
	}

	p, _ := db.GetProgress("u1")
	if p.TotalXP != 0 {
		t.Errorf("expected 0 XP after undo, got %d", p.TotalXP)
	}
	completions, _ := svc.Completions("u1", task.ID)
	if len(completions) != 0 {
		t.Errorf("completion row not removed: %d", len(completions))
	}

	// The day is free again: re-completing mints a fresh event token.
	if _, err := svc.CompleteTask("u1", task.ID, at); err != nil {
		t.Fatalf("re-complete after undo: %v", err)
	}
}

func TestUncompleteTask_NothingToUndo(t *testing.T) {
	svc, _ := testService(t)
	task := newDailyTask(t, svc, "u1")

	if _, err := svc.UncompleteTask("u1", task.ID, time.Now()); !errors.Is(err, domain.ErrNotCompleted) {
		t.Errorf("expected ErrNotCompleted, got %v", err)
	}
}

func TestCompleteTask_ArchivedRejected(t *testing.T) {
	svc, _ := testService(t)
	task := newDailyTask(t, svc, "u1")

	if err := svc.ArchiveTask("u1", task.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := svc.CompleteTask("u1", task.ID, time.Now()); !errors.Is(err, domain.ErrTaskArchived) {
		t.Errorf("expected ErrTaskArchived, got %v", err)
	}
}

func TestTask_OwnershipEnforced(t *testing.T) {
	svc, _ := testService(t)
	task := newDailyTask(t, svc, "u1")

	if _, err := svc.Task("intruder", task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound for other user, got %v", err)
	}
	if _, err := svc.CompleteTask("intruder", task.ID, time.Now()); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound on complete, got %v", err)
	}
}

func TestTaskStreak_GrowsWithCompletions(t *testing.T) {
	svc, _ := testService(t)
	task := newDailyTask(t, svc, "u1")

	now := time.Now()
	if _, err := svc.CompleteTask("u1", task.ID, now.AddDate(0, 0, -1)); err != nil {
		t.Fatalf("yesterday: %v", err)
	}
	if _, err := svc.CompleteTask("u1", task.ID, now); err != nil {
		t.Fatalf("today: %v", err)
	}

	streak, err := svc.Streak("u1", task.ID)
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak.Current != 2 {
		t.Errorf("expected streak 2, got %d", streak.Current)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Foods & Workouts
// ═══════════════════════════════════════════════════════════════════════════

func TestFood_LogAndDelete(t *testing.T) {
	svc, db := testService(t)

	result, err := svc.LogFood(domain.Food{UserID: "u1", Name: "Oats", Category: "breakfast"})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	// Flat 5 XP plus the first_meal unlock.
	if result.XPAwarded != 35 {
		t.Errorf("expected 35 XP, got %d", result.XPAwarded)
	}

	foods, _ := svc.Foods("u1", 0)
	if len(foods) != 1 {
		t.Fatalf("expected 1 food, got %d", len(foods))
	}

	rev, err := svc.DeleteFood("u1", foods[0].ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rev.XPReversed != result.XPAwarded {
		t.Errorf("expected %d reversed, got %d", result.XPAwarded, rev.XPReversed)
	}

	p, _ := db.GetProgress("u1")
	if p.TotalXP != 0 || p.Counter(domain.DimFoodsLogged) != 0 {
		t.Errorf("food deletion did not restore state: %+v", p)
	}
	foods, _ = svc.Foods("u1", 0)
	if len(foods) != 0 {
		t.Errorf("food row not removed")
	}
}

func TestFood_DeleteOtherUsers(t *testing.T) {
	svc, _ := testService(t)

	if _, err := svc.LogFood(domain.Food{UserID: "u1", Name: "Oats"}); err != nil {
		t.Fatalf("log: %v", err)
	}
	foods, _ := svc.Foods("u1", 0)
	if _, err := svc.DeleteFood("intruder", foods[0].ID); !errors.Is(err, domain.ErrFoodNotFound) {
		t.Errorf("expected ErrFoodNotFound, got %v", err)
	}
}

func TestWorkout_LogAndDelete(t *testing.T) {
	svc, db := testService(t)

	result, err := svc.LogWorkout(domain.Workout{
		UserID: "u1", Name: "Deadlifts", Difficulty: domain.DifficultyHard, DurationMin: 45,
	})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	// round(25 * 1.5) + 50 for first_workout.
	if result.XPAwarded != 88 {
		t.Errorf("expected 88 XP, got %d", result.XPAwarded)
	}

	workouts, _ := svc.Workouts("u1", 0)
	if len(workouts) != 1 {
		t.Fatalf("expected 1 workout, got %d", len(workouts))
	}

	if _, err := svc.DeleteWorkout("u1", workouts[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	p, _ := db.GetProgress("u1")
	if p.TotalXP != 0 || p.HasAchievement("first_workout") {
		t.Errorf("workout deletion did not restore state: %+v", p)
	}
}

func TestCompleteTask_StreakGoalCompletes(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	coord := progression.New(db, progression.DefaultTuning())
	svc := tracker.NewService(db, coord).WithGoals(goals.NewService(db, coord))

	goal := domain.Goal{
		ID: "g-streak", UserID: "u1", Kind: domain.GoalStreak,
		Description: "Hold a 7-day streak", Target: 7, RewardXP: 200,
		ExpiresAt: time.Now().Add(8 * 24 * time.Hour),
	}
	if err := db.InsertGoal(goal); err != nil {
		t.Fatalf("insert goal: %v", err)
	}

	task := newDailyTask(t, svc, "u1")
	now := time.Now()
	for i := 6; i >= 0; i-- {
		if _, err := svc.CompleteTask("u1", task.ID, now.AddDate(0, 0, -i)); err != nil {
			t.Fatalf("complete day -%d: %v", i, err)
		}
	}

	g, err := db.GetGoal("g-streak")
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if g.Progress != 7 {
		t.Errorf("streak goal progress = %d, want 7", g.Progress)
	}
	if !g.Completed {
		t.Error("streak goal not completed after a 7-day streak")
	}

	p, _ := db.GetProgress("u1")
	if p.Counter(domain.DimGoalsCompleted) != 1 {
		t.Errorf("goals counter = %d, want 1", p.Counter(domain.DimGoalsCompleted))
	}
}
