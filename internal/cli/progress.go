package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vigor-app/vigor/internal/app/progression"
	"github.com/vigor-app/vigor/internal/daemon"
	"github.com/vigor-app/vigor/internal/domain"
	"github.com/vigor-app/vigor/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Maximum events to show")
	eventsCmd.Flags().StringVar(&eventsStatus, "status", "", "Filter by status (completed, failed, reversed)")
}

var progressCmd = &cobra.Command{
	Use:   "progress <user>",
	Short: "Show a user's level, XP and achievements",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	db, err := sqlite.Open(daemon.VigorHome())
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := db.GetProgress(args[0])
	if err != nil {
		return err
	}

	next := progression.XPToNextLevel(p.TotalXP)
	fmt.Printf("User:      %s\n", p.UserID)
	fmt.Printf("Level:     %d  %s\n", p.Level, levelBar(p.TotalXP, p.Level))
	fmt.Printf("Total XP:  %d", p.TotalXP)
	if next > 0 {
		fmt.Printf("  (%d to next level)", next)
	}
	fmt.Println()

	if len(p.Counters) > 0 {
		fmt.Println("\nCounters:")
		for _, dim := range []string{"tasks_completed", "foods_logged", "workouts_logged", "goals_completed", "streak", "streak_best"} {
			if v, ok := p.Counters[dim]; ok {
				fmt.Printf("  %-18s %d\n", dim, v)
			}
		}
	}
	if len(p.PendingAchievements) > 0 {
		fmt.Printf("\nUnclaimed achievements: %s\n", strings.Join(p.PendingAchievements, ", "))
	}
	if len(p.ClaimedAchievements) > 0 {
		fmt.Printf("Claimed achievements:   %s\n", strings.Join(p.ClaimedAchievements, ", "))
	}
	return nil
}

// levelBar renders progress toward the next level as a 20-char bar.
func levelBar(totalXP int64, level int) string {
	const width = 20

	if level >= progression.MaxLevel {
		return "[" + strings.Repeat("=", width) + "]"
	}
	start := progression.XPForLevel(level)
	span := progression.XPForLevel(level+1) - start
	if span <= 0 {
		return "[" + strings.Repeat("=", width) + "]"
	}
	filled := int(float64(totalXP-start) / float64(span) * width)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(".", width-filled) + "]"
}

var (
	eventsLimit  int
	eventsStatus string
)

var eventsCmd = &cobra.Command{
	Use:   "events <user>",
	Short: "Show a user's recent event log",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	db, err := sqlite.Open(daemon.VigorHome())
	if err != nil {
		return err
	}
	defer db.Close()

	var events []domain.EventLog
	if eventsStatus != "" {
		status := domain.EventStatus(eventsStatus)
		if !status.Valid() {
			return fmt.Errorf("unknown event status %q", eventsStatus)
		}
		events, err = db.ListEventsByStatus(args[0], status, eventsLimit)
	} else {
		events, err = db.ListEvents(args[0], time.Time{}, time.Time{}, eventsLimit)
	}
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No events.")
		return nil
	}

	fmt.Printf("%-38s %-18s %-10s %-8s %s\n", "TOKEN", "SOURCE", "STATUS", "XP", "WHEN")
	for _, e := range events {
		fmt.Printf("%-38s %-18s %-10s %-8d %s\n",
			e.Token, e.Source, e.Status, e.Contract.Result.XPAwarded,
			e.Timestamp.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
