package health

import (
	"context"
	"testing"

	"github.com/vigor-app/vigor/internal/infra/sqlite"
)

func newTestDB(t *testing.T) (*sqlite.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dir
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestChecker_AllHealthy(t *testing.T) {
	db, dir := newTestDB(t)

	c := NewChecker(db, dir)
	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 4 {
		t.Fatalf("Statuses() = %d, want 4", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
		if s.CheckedAt.IsZero() {
			t.Errorf("check %q missing timestamp", s.Name)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true")
	}
}

func TestChecker_MissingDataDir(t *testing.T) {
	db, _ := newTestDB(t)

	c := NewChecker(db, "/path/that/does/not/exist")
	c.runAll(context.Background())

	if c.IsHealthy() {
		t.Error("expected unhealthy with missing data dir")
	}
	var found bool
	for _, s := range c.Statuses() {
		if s.Name == "data_dir" {
			found = true
			if s.Healthy {
				t.Error("data_dir check should fail")
			}
		}
	}
	if !found {
		t.Error("data_dir check missing")
	}
}

func TestChecker_EmptyStatusesBeforeRun(t *testing.T) {
	db, dir := newTestDB(t)

	c := NewChecker(db, dir)
	if got := c.Statuses(); len(got) != 0 {
		t.Errorf("expected no statuses before first run, got %d", len(got))
	}
	// No checks run yet means nothing failing.
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be vacuously true before first run")
	}
}
