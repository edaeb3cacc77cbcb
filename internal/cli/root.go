// Package cli implements the Vigor command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vigor-app/vigor/internal/api"
)

var rootCmd = &cobra.Command{
	Use:   "vigor",
	Short: "Vigor — self-hosted habit and fitness tracking",
	Long: `Vigor is a self-hosted habit, nutrition and workout tracker with
streaks, XP, levels and achievements. One binary, local SQLite storage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version
	api.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
