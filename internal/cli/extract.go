package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/artifact"
	"github.com/ndquoc/grounder/internal/extract"
	"github.com/ndquoc/grounder/internal/ner"
	"github.com/ndquoc/grounder/internal/pipeline"
)

var (
	extractNERBackend string
	extractLimit      int
	extractOut        string
	extractNoSkip     bool
)

// extractCmd runs the baseline span extraction pass over article files.
var extractCmd = &cobra.Command{
	Use:   "extract [article.json...]",
	Short: "Extract candidate spans from article files",
	Long: `Run the regex detector bank and the NER backend over articles, writing one
span artifact per document. With no arguments, every article in the
configured articles directory is processed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		if extractNERBackend != "" {
			cfg.NER.Backend = extractNERBackend
		}
		outDir := cfg.Paths.SpansDir
		if extractOut != "" {
			outDir = extractOut
		}

		backend, err := ner.NewBackend(cfg.NER, logger)
		if err != nil {
			return fmt.Errorf("initialize ner backend: %w", err)
		}
		nerPipeline := ner.NewPipeline(backend)
		detectors := extract.DefaultDetectors()

		files := args
		if len(files) == 0 {
			files, err = artifact.ListJSONFiles(cfg.Paths.ArticlesDir)
			if err != nil {
				return err
			}
		}
		if extractLimit > 0 && len(files) > extractLimit {
			files = files[:extractLimit]
		}

		tasks := make([]pipeline.Task, 0, len(files))
		for _, path := range files {
			path := path
			outPath := filepath.Join(outDir, filepath.Base(path))
			tasks = append(tasks, pipeline.Task{
				ID:         filepath.Base(path),
				OutputPath: outPath,
				Run: func(ctx context.Context) error {
					return extractOne(path, outPath, detectors, nerPipeline, logger)
				},
			})
		}

		runner := pipeline.NewRunner(logger,
			pipeline.WithSkipExisting(cfg.Validator.SkipExisting && !extractNoSkip))
		tally := runner.Run(cmd.Context(), tasks)

		logger.Info("extraction finished",
			zap.Int("processed", tally.Processed),
			zap.Int("skipped", tally.Skipped),
			zap.Int("failed", tally.Failed))
		if tally.Failed > 0 {
			return fmt.Errorf("%d of %d articles failed", tally.Failed, len(tasks))
		}
		return nil
	},
}

func extractOne(path, outPath string, detectors []extract.Detector, nerPipeline *ner.Pipeline, logger *zap.Logger) error {
	article, err := artifact.LoadArticle(path)
	if err != nil {
		return err
	}

	result, err := extract.ProcessArticle(article, detectors, nerPipeline, logger)
	if err != nil {
		return fmt.Errorf("process %s: %w", article.DocID, err)
	}

	file := artifact.SpanFile{
		DocID:      article.DocID,
		Title:      article.Title,
		SourcePath: path,
		Stats:      result.Stats,
		Spans:      result.Spans,
	}
	if err := artifact.WriteJSON(outPath, file); err != nil {
		return err
	}

	logger.Info("extracted spans",
		zap.String("doc_id", article.DocID),
		zap.Int("spans", result.Stats.TotalSpans),
		zap.Int("sentences", result.Stats.Sentences))
	return nil
}

func init() {
	extractCmd.Flags().StringVar(&extractNERBackend, "ner-backend", "", "ner backend (auto|annotator|tokencls|simple|none)")
	extractCmd.Flags().IntVar(&extractLimit, "limit", 0, "process at most N articles")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "output directory (default: configured spans dir)")
	extractCmd.Flags().BoolVar(&extractNoSkip, "no-skip-existing", false, "reprocess articles whose span file exists")

	rootCmd.AddCommand(extractCmd)
}
