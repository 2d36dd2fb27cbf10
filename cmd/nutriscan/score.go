package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nutriscan/nutriscan/internal/blobstore"
	"github.com/nutriscan/nutriscan/internal/insights"
	"github.com/nutriscan/nutriscan/internal/store"
	"github.com/nutriscan/nutriscan/pkg/scoring"
	"github.com/nutriscan/nutriscan/pkg/surface"
)

func newScoreCmd() *cobra.Command {
	var (
		inputPath  string
		outputFmt  string
		subjectID  string
		archiveDir string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score health indicator readings",
		Long: `Evaluates each reading against its reference range, combines the weighted
risks into a composite score, splits it into risk categories and evaluates
the predictive condition catalog.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			engine, err := cfg.Engine()
			if err != nil {
				return err
			}
			return runScore(cmd.Context(), engine, scoreOpts{
				inputPath:  inputPath,
				outputFmt:  outputFmt,
				subjectID:  subjectID,
				archiveDir: archiveDir,
			}, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "Readings file (JSON or YAML, - for stdin)")
	cmd.Flags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text, json or markdown")
	cmd.Flags().StringVar(&subjectID, "subject", "local", "Subject ID used for archived reports")
	cmd.Flags().StringVar(&archiveDir, "archive", "", "Directory to archive the assessment report in")

	return cmd
}

type scoreOpts struct {
	inputPath  string
	outputFmt  string
	subjectID  string
	archiveDir string
}

type scoreInput struct {
	Readings []scoring.IndicatorReading `json:"readings"`
}

func runScore(ctx context.Context, engine *scoring.Engine, opts scoreOpts, stdin io.Reader, stdout io.Writer) error {
	if opts.archiveDir != "" && !blobstore.ValidSegment(opts.subjectID) {
		return fmt.Errorf("invalid subject %q: use letters, digits, '-' and '_'", opts.subjectID)
	}
	renderer, err := surface.New(opts.outputFmt)
	if err != nil {
		return err
	}

	var in scoreInput
	if err := readInput(opts.inputPath, stdin, &in); err != nil {
		return err
	}

	a, err := engine.Assess(in.Readings)
	if err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	report := &surface.AssessmentReport{Assessment: a, Recommendations: engine.Recommend(a.Categories)}

	if opts.archiveDir != "" {
		saveAssessmentReport(ctx, opts.archiveDir, opts.subjectID, report)
	}

	if err := renderer.RenderAssessment(stdout, report); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	return nil
}

// saveAssessmentReport archives a report under dir in the service's key layout.
func saveAssessmentReport(ctx context.Context, dir, subjectID string, report *surface.AssessmentReport) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to marshal report: %v\n", err)
		return
	}
	key := blobstore.ReportKey(subjectID, insights.ReportKindAssessment, store.NewReportID())
	if err := blobstore.NewLocalStorage(dir).Put(ctx, key, data); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to archive report: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Report saved: %s/%s\n", dir, key)
}
