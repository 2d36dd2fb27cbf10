package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nutriscan/nutriscan/pkg/scoring"
	"github.com/nutriscan/nutriscan/pkg/surface"
)

func newTrendCmd() *cobra.Command {
	var (
		inputPath string
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Project the risk trajectory of a score history",
		Long: `Fits a least-squares line over a history of composite and category scores
and projects each series one assessment ahead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			engine, err := cfg.Engine()
			if err != nil {
				return err
			}
			return runTrend(engine, trendOpts{
				inputPath: inputPath,
				outputFmt: outputFmt,
			}, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "History file (JSON or YAML, - for stdin)")
	cmd.Flags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text, json or markdown")

	return cmd
}

type trendOpts struct {
	inputPath string
	outputFmt string
}

type trendInput struct {
	History []scoring.TrajectoryPoint `json:"history"`
}

func runTrend(engine *scoring.Engine, opts trendOpts, stdin io.Reader, stdout io.Writer) error {
	renderer, err := surface.New(opts.outputFmt)
	if err != nil {
		return err
	}

	var in trendInput
	if err := readInput(opts.inputPath, stdin, &in); err != nil {
		return err
	}
	// A history with undated points keeps its file order.
	if allDated(in.History) {
		sort.SliceStable(in.History, func(i, j int) bool {
			return in.History[i].AssessedAt.Before(in.History[j].AssessedAt)
		})
	}

	traj, err := engine.Trajectory(in.History)
	if err != nil {
		return fmt.Errorf("projecting trend: %w", err)
	}
	if err := renderer.RenderTrajectory(stdout, traj); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	return nil
}

func allDated(points []scoring.TrajectoryPoint) bool {
	for _, p := range points {
		if p.AssessedAt.IsZero() {
			return false
		}
	}
	return true
}
