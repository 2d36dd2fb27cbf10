package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nutriscan/nutriscan/pkg/engagement"
	"github.com/nutriscan/nutriscan/pkg/surface"
)

func newEngagementCmd() *cobra.Command {
	var (
		inputPath string
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "engagement",
		Short: "Score product engagement from interaction counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			scorer, err := cfg.EngagementScorer()
			if err != nil {
				return err
			}
			return runEngagement(scorer, engagementOpts{
				inputPath: inputPath,
				outputFmt: outputFmt,
			}, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "Interactions file (JSON or YAML, - for stdin)")
	cmd.Flags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text, json or markdown")

	return cmd
}

type engagementOpts struct {
	inputPath string
	outputFmt string
}

// engagementInput holds either aggregated patterns or a raw interaction log.
type engagementInput struct {
	Patterns     []engagement.Pattern  `json:"patterns,omitempty"`
	Interactions []engagement.Category `json:"interactions,omitempty"`
}

func runEngagement(scorer *engagement.Scorer, opts engagementOpts, stdin io.Reader, stdout io.Writer) error {
	renderer, err := surface.New(opts.outputFmt)
	if err != nil {
		return err
	}

	var in engagementInput
	if err := readInput(opts.inputPath, stdin, &in); err != nil {
		return err
	}
	patterns := in.Patterns
	if len(patterns) == 0 {
		patterns = engagement.Tally(in.Interactions)
	}
	for _, p := range patterns {
		if p.TotalInteractions < 0 {
			return fmt.Errorf("%s: total_interactions must not be negative", p.Category)
		}
	}

	report := &surface.EngagementReport{
		Score:           scorer.Score(patterns),
		Patterns:        patterns,
		Recommendations: scorer.Recommend(patterns),
	}
	if err := renderer.RenderEngagement(stdout, report); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	return nil
}
