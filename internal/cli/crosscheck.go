package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ndquoc/grounder/internal/artifact"
	"github.com/ndquoc/grounder/internal/cache"
	"github.com/ndquoc/grounder/internal/llm"
	"github.com/ndquoc/grounder/internal/pipeline"
	"github.com/ndquoc/grounder/internal/validate"
)

var (
	crossModel       string
	crossLimit       int
	crossOut         string
	crossNoSkip      bool
	crossDryRun      bool
	crossSummaryOnly bool
	crossRateLimitMS int
	crossMaxChars    int
)

// crosscheckCmd runs the model-based second-opinion validation pass.
var crosscheckCmd = &cobra.Command{
	Use:   "crosscheck [extraction.json...]",
	Short: "Cross-check extractions with an external model",
	Long: `Send each extraction with its passage to a validating model for a
holistic verdict: supported, unsure, or unsupported. Usability is the
conjunction of the model's own flag and a locally derived rule, so the
model can only narrow it.

With --summary-only, no model is called; the batch summary is rebuilt by
replaying stored reports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		if crossModel != "" {
			cfg.Validator.Model = crossModel
		}
		if crossMaxChars > 0 {
			cfg.Validator.MaxPassageChars = crossMaxChars
		}
		outDir := filepath.Join(cfg.Paths.ReportsDir, "crosscheck")
		if crossOut != "" {
			outDir = crossOut
		}

		if crossSummaryOnly {
			summary, err := artifact.RebuildCrossBatchSummary(outDir, uuid.NewString(), cfg.Validator.Model, logger)
			if err != nil {
				return err
			}
			logger.Info("batch summary rebuilt",
				zap.Int("files", summary.TotalFilesProcessed),
				zap.Float64("usable_pct", summary.UsablePercentage),
				zap.Float64("supported_pct", summary.SupportedPercentage))
			return nil
		}

		var provider llm.Provider
		if !crossDryRun {
			var err error
			provider, err = llm.NewProvider(cfg.LLM)
			if err != nil {
				return fmt.Errorf("initialize llm provider: %w", err)
			}
			if provider == nil {
				return fmt.Errorf("crosscheck needs an llm provider (or --dry-run)")
			}
		}

		opts := []validate.CrossCheckerOption{validate.WithDryRun(crossDryRun)}
		if cfg.Cache.Enabled && !crossDryRun {
			responses := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
			opts = append(opts, validate.WithResponseCache(responses, cfg.Cache.DiskTTL))
		}
		checker := validate.NewCrossChecker(provider, cfg.Validator.Model, cfg.Validator.MaxPassageChars, logger, opts...)

		files := args
		var err error
		if len(files) == 0 {
			files, err = artifact.ListJSONFiles(cfg.Paths.ExtractionsDir)
			if err != nil {
				return err
			}
		}
		if crossLimit > 0 && len(files) > crossLimit {
			files = files[:crossLimit]
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
					report := checker.Check(ctx, record)
					report.SourceFile = path
					return artifact.WriteJSON(outPath, report)
				},
			})
		}

		rateLimit := cfg.Validator.RateLimit
		if crossRateLimitMS > 0 {
			rateLimit = time.Duration(crossRateLimitMS) * time.Millisecond
		}
		runnerOpts := []pipeline.Option{
			pipeline.WithSkipExisting(cfg.Validator.SkipExisting && !crossNoSkip),
		}
		if rateLimit > 0 {
			runnerOpts = append(runnerOpts, pipeline.WithRateLimit(rate.NewLimiter(rate.Every(rateLimit), 1)))
		}
		runner := pipeline.NewRunner(logger, runnerOpts...)
		tally := runner.Run(cmd.Context(), tasks)

		summary, err := artifact.RebuildCrossBatchSummary(outDir, uuid.NewString(), cfg.Validator.Model, logger)
		if err != nil {
			return fmt.Errorf("rebuild batch summary: %w", err)
		}

		if crossDryRun {
			logger.Info("dry run complete", zap.String("last_prompt_preview", truncateString(checker.LastPrompt(), 400)))
		}
		logger.Info("cross-check finished",
			zap.Int("processed", tally.Processed),
			zap.Int("skipped", tally.Skipped),
			zap.Int("failed", tally.Failed),
			zap.Float64("usable_pct", summary.UsablePercentage))
		if tally.Failed > 0 {
			return fmt.Errorf("%d of %d extractions failed cross-check processing", tally.Failed, len(tasks))
		}
		return nil
	},
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func init() {
	crosscheckCmd.Flags().StringVar(&crossModel, "model", "", "validator model (default: configured)")
	crosscheckCmd.Flags().IntVar(&crossLimit, "limit", 0, "process at most N extraction files")
	crosscheckCmd.Flags().StringVar(&crossOut, "out", "", "report directory (default: <reports>/crosscheck)")
	crosscheckCmd.Flags().BoolVar(&crossNoSkip, "no-skip-existing", false, "recheck files whose report exists")
	crosscheckCmd.Flags().BoolVar(&crossDryRun, "dry-run", false, "produce stub verdicts without calling any model")
	crosscheckCmd.Flags().BoolVar(&crossSummaryOnly, "summary-only", false, "rebuild the batch summary from stored reports")
	crosscheckCmd.Flags().IntVar(&crossRateLimitMS, "rate-limit-ms", 0, "minimum delay between model calls in milliseconds")
	crosscheckCmd.Flags().IntVar(&crossMaxChars, "max-passage-chars", 0, "truncate passages beyond this many characters")

	rootCmd.AddCommand(crosscheckCmd)
}
