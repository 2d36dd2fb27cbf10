package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/surface"
)

func newNutritionCmd() *cobra.Command {
	var (
		inputPath string
		outputFmt string
		goals     []string
		breakdown bool
		timezone  string
	)

	cmd := &cobra.Command{
		Use:   "nutrition",
		Short: "Aggregate food entries into a nutrition profile",
		Long: `Averages logged food entries, evaluates macronutrient balance and
micronutrient status, applies the risk and recommendation rules, and
assesses alignment with the given health goals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			agg, err := cfg.Aggregator()
			if err != nil {
				return err
			}
			return runNutrition(agg, nutritionOpts{
				inputPath: inputPath,
				outputFmt: outputFmt,
				goals:     goals,
				breakdown: breakdown,
				timezone:  firstNonEmpty(timezone, cfg.Server.ReportTimezone),
			}, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "Entries file (JSON or YAML, - for stdin)")
	cmd.Flags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text, json or markdown")
	cmd.Flags().StringSliceVar(&goals, "goal", nil, "Health goal to assess (repeatable), e.g. \"Weight Loss\"")
	cmd.Flags().BoolVar(&breakdown, "breakdown", false, "Include top foods, meal type and weekday breakdowns")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for weekday breakdowns (default: config report_timezone)")

	return cmd
}

type nutritionOpts struct {
	inputPath string
	outputFmt string
	goals     []string
	breakdown bool
	timezone  string
}

type nutritionInput struct {
	Entries []nutrition.Entry    `json:"entries"`
	Goals   []nutrition.GoalType `json:"goals,omitempty"`
}

func runNutrition(agg *nutrition.Aggregator, opts nutritionOpts, stdin io.Reader, stdout io.Writer) error {
	renderer, err := surface.New(opts.outputFmt)
	if err != nil {
		return err
	}
	loc := time.UTC
	if opts.timezone != "" {
		if loc, err = time.LoadLocation(opts.timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}

	var in nutritionInput
	if err := readInput(opts.inputPath, stdin, &in); err != nil {
		return err
	}
	for i, e := range in.Entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	goals := in.Goals
	for _, g := range opts.goals {
		goals = append(goals, nutrition.GoalType(g))
	}
	for _, g := range goals {
		if !g.Valid() {
			return fmt.Errorf("unknown goal %q", g)
		}
	}

	profile, err := agg.Aggregate(in.Entries)
	if err != nil {
		return fmt.Errorf("aggregating: %w", err)
	}
	report := &surface.NutritionReport{Profile: profile}
	if len(goals) > 0 {
		report.GoalAlignments = agg.AlignGoals(profile, goals)
	}
	if len(in.Entries) >= agg.MinTrendEntries() {
		if report.Trends, err = agg.Trends(in.Entries); err != nil {
			return fmt.Errorf("fitting trends: %w", err)
		}
	}
	if opts.breakdown {
		b := agg.Breakdown(in.Entries, loc)
		report.Breakdown = &b
	}

	if err := renderer.RenderNutrition(stdout, report); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	return nil
}
