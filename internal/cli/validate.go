package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/artifact"
	"github.com/ndquoc/grounder/internal/llm"
	"github.com/ndquoc/grounder/internal/pipeline"
	"github.com/ndquoc/grounder/internal/validate"
)

var (
	validateModel  string
	validateLimit  int
	validateOut    string
	validateNoSkip bool
)

// validateCmd runs the rule-based validation pass over extraction records.
var validateCmd = &cobra.Command{
	Use:   "validate [extraction.json...]",
	Short: "Validate extractions with deterministic rules",
	Long: `Check every extracted person against the source passage: grounded field
offsets, role and predicate vocabulary, law article presence, and amount
plausibility. A model completeness check looks for missed people when a
provider is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		if validateModel != "" {
			cfg.Validator.Model = validateModel
		}
		outDir := filepath.Join(cfg.Paths.ReportsDir, "rules")
		if validateOut != "" {
			outDir = validateOut
		}

		provider, err := llm.NewProvider(cfg.LLM)
		if err != nil {
			return fmt.Errorf("initialize llm provider: %w", err)
		}
		if provider == nil {
			logger.Warn("no llm provider configured, completeness check disabled")
		}
		validator := validate.NewPeopleValidator(provider, cfg.Validator.Model, cfg.Validator.AmountCeilingVND, logger)

		files := args
		if len(files) == 0 {
			files, err = artifact.ListJSONFiles(cfg.Paths.ExtractionsDir)
			if err != nil {
				return err
			}
		}
		if validateLimit > 0 && len(files) > validateLimit {
			files = files[:validateLimit]
		}

		tasks := make([]pipeline.Task, 0, len(files))
		for _, path := range files {
			path := path
			outPath := filepath.Join(outDir, filepath.Base(path))
			tasks = append(tasks, pipeline.Task{
				ID:         filepath.Base(path),
				OutputPath: outPath,
				Run: func(ctx context.Context) error {
					record, err := artifact.LoadExtraction(path)
					if err != nil {
						return err
					}
					report := validator.Validate(ctx, record)
					report.SourceFile = path
					return artifact.WriteJSON(outPath, report)
				},
			})
		}

		runner := pipeline.NewRunner(logger,
			pipeline.WithSkipExisting(cfg.Validator.SkipExisting && !validateNoSkip))
		tally := runner.Run(cmd.Context(), tasks)

		summary, err := artifact.RebuildRuleBatchSummary(outDir, uuid.NewString(), logger)
		if err != nil {
			return fmt.Errorf("rebuild batch summary: %w", err)
		}

		logger.Info("validation finished",
			zap.Int("processed", tally.Processed),
			zap.Int("skipped", tally.Skipped),
			zap.Int("failed", tally.Failed),
			zap.Int("total_issues", summary.TotalIssues),
			zap.Int("critical_issues", summary.CriticalIssues))
		if tally.Failed > 0 {
			return fmt.Errorf("%d of %d extractions failed validation processing", tally.Failed, len(tasks))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateModel, "model", "", "validator model (default: configured)")
	validateCmd.Flags().IntVar(&validateLimit, "limit", 0, "process at most N extraction files")
	validateCmd.Flags().StringVar(&validateOut, "out", "", "report directory (default: <reports>/rules)")
	validateCmd.Flags().BoolVar(&validateNoSkip, "no-skip-existing", false, "revalidate files whose report exists")

	rootCmd.AddCommand(validateCmd)
}
