// Package main provides the nutriscan CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nutriscan",
		Short: "Health risk scoring and nutrition insights",
		Long: `NutriScan scores health indicator readings into a composite risk,
projects risk trajectories, and aggregates logged food entries into
nutrition profiles.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: nearest .nutriscan/config.yaml)")

	rootCmd.AddCommand(
		newScoreCmd(),
		newTrendCmd(),
		newNutritionCmd(),
		newEngagementCmd(),
		newMigrateCmd(),
		newServeCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
