package sqlite_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vigor-app/vigor/internal/domain"
	"github.com/vigor-app/vigor/internal/infra/sqlite"
)

func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func completedEntry(token, user string) domain.EventLog {
	return domain.EventLog{
		Token:  token,
		UserID: user,
		Source: domain.SourceTaskCompleted,
		Contract: domain.ContractData{
			Result: domain.ProcessResult{Success: true, XPAwarded: 10, Token: token},
		},
		Reversal: domain.ReversalData{
			Undo: domain.UndoInstructions{SubtractXP: -10},
		},
		Status:    domain.EventCompleted,
		Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress + Ledger
// ═══════════════════════════════════════════════════════════════════════════

func TestProgress_FreshUserIsZero(t *testing.T) {
	db := testDB(t)

	p, err := db.GetProgress("nobody")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.TotalXP != 0 || p.Level != 1 || p.Version != 0 {
		t.Errorf("expected zero aggregate at level 1, got %+v", p)
	}
}

func TestCommitEvent_RoundTrip(t *testing.T) {
	db := testDB(t)

	p, _ := db.GetProgress("u1")
	p.TotalXP = 10
	if err := db.CommitEvent(completedEntry("tok-1", "u1"), p); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := db.GetEventLog("tok-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Status != domain.EventCompleted || got.Contract.Result.XPAwarded != 10 {
		t.Errorf("ledger entry mangled: %+v", got)
	}

	stored, _ := db.GetProgress("u1")
	if stored.TotalXP != 10 || stored.Version != 1 {
		t.Errorf("expected XP 10 version 1, got %+v", stored)
	}
}

func TestCommitEvent_DuplicateToken(t *testing.T) {
	db := testDB(t)

	p, _ := db.GetProgress("u1")
	p.TotalXP = 10
	if err := db.CommitEvent(completedEntry("tok-1", "u1"), p); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	p2, _ := db.GetProgress("u1")
	p2.TotalXP = 20
	err := db.CommitEvent(completedEntry("tok-1", "u1"), p2)
	if !errors.Is(err, domain.ErrDuplicateToken) {
		t.Fatalf("expected ErrDuplicateToken, got %v", err)
	}

	// The losing commit must not have touched the aggregate.
	stored, _ := db.GetProgress("u1")
	if stored.TotalXP != 10 {
		t.Errorf("duplicate commit leaked progress: %d", stored.TotalXP)
	}
}

func TestCommitEvent_StaleVersionRejected(t *testing.T) {
	db := testDB(t)

	p, _ := db.GetProgress("u1") // version 0
	p.TotalXP = 10
	if err := db.CommitEvent(completedEntry("tok-1", "u1"), p); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	// Second writer still holds version 0.
	stale := p
	stale.TotalXP = 99
	err := db.CommitEvent(completedEntry("tok-2", "u1"), stale)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestCommitEvent_ReplacesFailedEntry(t *testing.T) {
	db := testDB(t)

	failed := completedEntry("tok-1", "u1")
	failed.Status = domain.EventFailed
	if err := db.RecordFailure(failed); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	p, _ := db.GetProgress("u1")
	p.TotalXP = 10
	if err := db.CommitEvent(completedEntry("tok-1", "u1"), p); err != nil {
		t.Fatalf("retry commit: %v", err)
	}

	got, _ := db.GetEventLog("tok-1")
	if got.Status != domain.EventCompleted {
		t.Errorf("expected completed after retry, got %s", got.Status)
	}
}

func TestCommitReversal_StampsOriginal(t *testing.T) {
	db := testDB(t)

	p, _ := db.GetProgress("u1")
	p.TotalXP = 10
	if err := db.CommitEvent(completedEntry("tok-1", "u1"), p); err != nil {
		t.Fatalf("commit: %v", err)
	}

	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	reversal := domain.EventLog{
		Token:     "tok-rev",
		UserID:    "u1",
		Source:    domain.SourceTaskUncompleted,
		Contract:  domain.ContractData{OriginalToken: "tok-1"},
		Status:    domain.EventCompleted,
		Timestamp: now,
	}
	restored, _ := db.GetProgress("u1")
	restored.TotalXP = 0
	if err := db.CommitReversal(reversal, "tok-1", now, restored); err != nil {
		t.Fatalf("commit reversal: %v", err)
	}

	orig, _ := db.GetEventLog("tok-1")
	if orig.Status != domain.EventReversed {
		t.Errorf("expected reversed status, got %s", orig.Status)
	}
	if orig.ReversedAt == nil || orig.ReversedByToken != "tok-rev" {
		t.Errorf("reversal stamp missing: %+v", orig)
	}

	// Consistency probe the health check relies on.
	if n, err := db.CountTornReversals(); err != nil || n != 0 {
		t.Errorf("expected 0 unstamped reversals, got %d (%v)", n, err)
	}

	// A second reversal of the same original must lose the status race.
	reversal2 := reversal
	reversal2.Token = "tok-rev-2"
	again, _ := db.GetProgress("u1")
	err := db.CommitReversal(reversal2, "tok-1", now, again)
	if !errors.Is(err, domain.ErrAlreadyReversed) {
		t.Errorf("expected ErrAlreadyReversed, got %v", err)
	}
}

func TestListEvents_FilterAndLimit(t *testing.T) {
	db := testDB(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, tok := range []string{"tok-a", "tok-b", "tok-c"} {
		p, _ := db.GetProgress("u1")
		e := completedEntry(tok, "u1")
		e.Timestamp = base.AddDate(0, 0, i)
		if err := db.CommitEvent(e, p); err != nil {
			t.Fatalf("commit %s: %v", tok, err)
		}
	}

	all, err := db.ListEvents("u1", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}

	limited, _ := db.ListEvents("u1", time.Time{}, time.Time{}, 2)
	if len(limited) != 2 {
		t.Errorf("expected limit 2, got %d", len(limited))
	}

	windowed, _ := db.ListEvents("u1", base.AddDate(0, 0, 1), base.AddDate(0, 0, 1), 0)
	if len(windowed) != 1 || windowed[0].Token != "tok-b" {
		t.Errorf("expected only tok-b in window, got %+v", windowed)
	}

	other, _ := db.ListEvents("someone-else", time.Time{}, time.Time{}, 0)
	if len(other) != 0 {
		t.Errorf("expected no events for other user, got %d", len(other))
	}
}

func TestClaimAchievement(t *testing.T) {
	db := testDB(t)

	p, _ := db.GetProgress("u1")
	p.PendingAchievements = []string{"first_task"}
	entry := completedEntry("tok-1", "u1")
	if err := db.CommitEvent(entry, p); err != nil {
		t.Fatalf("commit: %v", err)
	}

	claimed, err := db.ClaimAchievement("u1", "first_task")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed.PendingAchievements) != 0 {
		t.Errorf("pending not cleared: %v", claimed.PendingAchievements)
	}
	if len(claimed.ClaimedAchievements) != 1 || claimed.ClaimedAchievements[0] != "first_task" {
		t.Errorf("claimed not recorded: %v", claimed.ClaimedAchievements)
	}

	if _, err := db.ClaimAchievement("u1", "first_task"); !errors.Is(err, domain.ErrAchievementNotPending) {
		t.Errorf("expected ErrAchievementNotPending on re-claim, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Tracker storage
// ═══════════════════════════════════════════════════════════════════════════

func TestTask_RoundTripWithCustomDays(t *testing.T) {
	db := testDB(t)

	task := domain.Task{
		ID:         "t1",
		UserID:     "u1",
		Title:      "Lift",
		Difficulty: domain.DifficultyHard,
		Category:   "fitness",
		BaseXP:     30,
		Rule: domain.RecurrenceRule{
			Pattern:    domain.RecurCustom,
			CustomDays: []time.Weekday{time.Monday, time.Thursday},
		},
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := db.InsertTask(task); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := db.GetTask("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Rule.Pattern != domain.RecurCustom {
		t.Errorf("pattern lost: %s", got.Rule.Pattern)
	}
	if len(got.Rule.CustomDays) != 2 || got.Rule.CustomDays[0] != time.Monday || got.Rule.CustomDays[1] != time.Thursday {
		t.Errorf("custom days mangled: %v", got.Rule.CustomDays)
	}

	if err := db.ArchiveTask("t1"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	active, _ := db.ListTasks("u1", false)
	if len(active) != 0 {
		t.Errorf("archived task still listed: %d", len(active))
	}
	all, _ := db.ListTasks("u1", true)
	if len(all) != 1 {
		t.Errorf("archived task missing from full list: %d", len(all))
	}
}

func TestCompletion_OnePerDay(t *testing.T) {
	db := testDB(t)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	c := domain.TaskCompletion{
		TaskID: "t1", UserID: "u1", Day: day,
		CompletedAt: day.Add(9 * time.Hour), Token: "tok-1",
	}
	if _, err := db.InsertCompletion(c); err != nil {
		t.Fatalf("insert: %v", err)
	}

	c.Token = "tok-2"
	if _, err := db.InsertCompletion(c); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Errorf("expected ErrAlreadyCompleted, got %v", err)
	}

	// A different day is fine.
	c.Day = day.AddDate(0, 0, 1)
	if _, err := db.InsertCompletion(c); err != nil {
		t.Fatalf("next day insert: %v", err)
	}

	got, err := db.GetCompletion("t1", day)
	if err != nil {
		t.Fatalf("get completion: %v", err)
	}
	if got.Token != "tok-1" {
		t.Errorf("expected original token, got %s", got.Token)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Goals + Notifications storage
// ═══════════════════════════════════════════════════════════════════════════

func TestGoal_ProgressAndCompletion(t *testing.T) {
	db := testDB(t)

	g := domain.Goal{
		ID: "g1", UserID: "u1", Kind: domain.GoalTasks,
		Description: "Complete 10 tasks", Target: 10, RewardXP: 150,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := db.InsertGoal(g); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := db.UpdateGoalProgress("g1", 3)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Progress != 3 {
		t.Errorf("expected progress 3, got %d", updated.Progress)
	}

	if err := db.CompleteGoal("g1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	active, _ := db.ListActiveGoals("u1")
	if len(active) != 0 {
		t.Errorf("completed goal still active: %d", len(active))
	}
}

func TestGoal_ExpiredCleanup(t *testing.T) {
	db := testDB(t)

	g := domain.Goal{
		ID: "g-old", UserID: "u1", Kind: domain.GoalMeals,
		Description: "Log 15 meals", Target: 15, RewardXP: 150,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := db.InsertGoal(g); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := db.DeleteExpiredGoals(time.Now())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired goal removed, got %d", n)
	}
}

func TestNotification_CountAndShown(t *testing.T) {
	db := testDB(t)

	id, err := db.InsertNotification(domain.Notification{
		UserID: "u1", Type: domain.NotifyAchievement,
		Title: "Week Warrior", Body: "7-day streak!", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	count, _ := db.NotificationCountToday("u1")
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	pending, _ := db.ListPendingNotifications("u1", 10)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}

	if err := db.MarkNotificationShown(id); err != nil {
		t.Fatalf("mark shown: %v", err)
	}
	pending, _ = db.ListPendingNotifications("u1", 10)
	if len(pending) != 0 {
		t.Errorf("expected none pending after shown, got %d", len(pending))
	}
}

func TestListEventsByStatus_UserScoped(t *testing.T) {
	db := testDB(t)

	p1, _ := db.GetProgress("u1")
	if err := db.CommitEvent(completedEntry("tok-1", "u1"), p1); err != nil {
		t.Fatalf("commit tok-1: %v", err)
	}
	p1, _ = db.GetProgress("u1")
	if err := db.CommitEvent(completedEntry("tok-2", "u1"), p1); err != nil {
		t.Fatalf("commit tok-2: %v", err)
	}
	p2, _ := db.GetProgress("u2")
	if err := db.CommitEvent(completedEntry("tok-3", "u2"), p2); err != nil {
		t.Fatalf("commit tok-3: %v", err)
	}

	failed := completedEntry("tok-4", "u1")
	failed.Status = domain.EventFailed
	if err := db.RecordFailure(failed); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	completed, err := db.ListEventsByStatus("u1", domain.EventCompleted, 0)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed entries for u1, got %d", len(completed))
	}
	for _, e := range completed {
		if e.UserID != "u1" {
			t.Errorf("foreign entry leaked: %s", e.Token)
		}
	}

	fails, err := db.ListEventsByStatus("u1", domain.EventFailed, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(fails) != 1 || fails[0].Token != "tok-4" {
		t.Fatalf("expected tok-4 failed, got %+v", fails)
	}

	if none, _ := db.ListEventsByStatus("u2", domain.EventReversed, 0); len(none) != 0 {
		t.Errorf("unexpected reversed entries: %+v", none)
	}
}

func TestListGoals_AllStatuses(t *testing.T) {
	db := testDB(t)

	for _, g := range []domain.Goal{
		{ID: "g1", UserID: "u1", Kind: domain.GoalTasks, Description: "Complete 10 tasks",
			Target: 10, RewardXP: 150, ExpiresAt: time.Now().Add(24 * time.Hour)},
		{ID: "g2", UserID: "u1", Kind: domain.GoalMeals, Description: "Log 15 meals",
			Target: 15, RewardXP: 150, Completed: true, ExpiresAt: time.Now().Add(24 * time.Hour)},
		{ID: "g3", UserID: "u2", Kind: domain.GoalWorkouts, Description: "Finish 3 workouts",
			Target: 3, RewardXP: 200, ExpiresAt: time.Now().Add(24 * time.Hour)},
	} {
		if err := db.InsertGoal(g); err != nil {
			t.Fatalf("insert %s: %v", g.ID, err)
		}
	}

	all, err := db.ListGoals("u1")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 goals for u1, got %d", len(all))
	}
	active, _ := db.ListActiveGoals("u1")
	if len(active) != 1 || active[0].ID != "g1" {
		t.Fatalf("expected only g1 active, got %+v", active)
	}
}

func TestSetGoalProgress_Absolute(t *testing.T) {
	db := testDB(t)

	goal := domain.Goal{
		ID: "g1", UserID: "u1", Kind: domain.GoalStreak, Description: "Hold a 7-day streak",
		Target: 7, RewardXP: 200, ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := db.InsertGoal(goal); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := db.SetGoalProgress("g1", 5)
	if err != nil {
		t.Fatalf("set progress: %v", err)
	}
	if updated.Progress != 5 {
		t.Errorf("progress = %d, want 5", updated.Progress)
	}

	// Absolute, not additive.
	updated, err = db.SetGoalProgress("g1", 6)
	if err != nil {
		t.Fatalf("set progress again: %v", err)
	}
	if updated.Progress != 6 {
		t.Errorf("progress = %d, want 6", updated.Progress)
	}
}
