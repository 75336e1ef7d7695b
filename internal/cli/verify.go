package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/artifact"
	"github.com/ndquoc/grounder/internal/pipeline"
	"github.com/ndquoc/grounder/internal/verify"
)

var (
	verifyOut    string
	verifyLimit  int
	verifyNoSkip bool
)

// verifyCmd checks stored spans against their source documents.
var verifyCmd = &cobra.Command{
	Use:   "verify [spans.json...]",
	Short: "Verify extracted spans against source text",
	Long: `Re-slice every span out of its source document and drop those whose
offsets do not reproduce their text. Verified spans gain provenance
attributes; dropped spans are kept in the artifact for auditing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		outDir := cfg.Paths.VerifiedDir
		if verifyOut != "" {
			outDir = verifyOut
		}

		files := args
		var err error
		if len(files) == 0 {
			files, err = artifact.ListJSONFiles(cfg.Paths.SpansDir)
			if err != nil {
				return err
			}
		}
		if verifyLimit > 0 && len(files) > verifyLimit {
			files = files[:verifyLimit]
		}

		tasks := make([]pipeline.Task, 0, len(files))
		for _, path := range files {
			path := path
			outPath := filepath.Join(outDir, filepath.Base(path))
			tasks = append(tasks, pipeline.Task{
				ID:         filepath.Base(path),
				OutputPath: outPath,
				Run: func(ctx context.Context) error {
					return verifyOne(path, outPath, cfg.Paths.ArticlesDir, logger)
				},
			})
		}

		runner := pipeline.NewRunner(logger,
			pipeline.WithSkipExisting(cfg.Validator.SkipExisting && !verifyNoSkip))
		tally := runner.Run(cmd.Context(), tasks)

		logger.Info("verification finished",
			zap.Int("processed", tally.Processed),
			zap.Int("skipped", tally.Skipped),
			zap.Int("failed", tally.Failed))
		if tally.Failed > 0 {
			return fmt.Errorf("%d of %d span files failed", tally.Failed, len(tasks))
		}
		return nil
	},
}

func verifyOne(path, outPath, articlesDir string, logger *zap.Logger) error {
	spanFile, err := artifact.LoadSpanFile(path)
	if err != nil {
		return err
	}

	articlePath := spanFile.SourcePath
	if articlePath == "" {
		articlePath = filepath.Join(articlesDir, spanFile.DocID+".json")
	}
	if _, err := os.Stat(articlePath); err != nil {
		return fmt.Errorf("source article for %s: %w", spanFile.DocID, err)
	}
	article, err := artifact.LoadArticle(articlePath)
	if err != nil {
		return err
	}

	kept, dropped, stats := verify.VerifyDocument(spanFile.Spans, article.FullText())

	file := artifact.VerifiedFile{
		DocID:         spanFile.DocID,
		Title:         spanFile.Title,
		SourcePath:    articlePath,
		VerifierStats: stats,
		Spans:         kept,
		Dropped:       dropped,
	}
	if err := artifact.WriteJSON(outPath, file); err != nil {
		return err
	}

	logger.Info("verified spans",
		zap.String("doc_id", spanFile.DocID),
		zap.Int("verified", stats.Verified),
		zap.Int("dropped", stats.Dropped))
	return nil
}

func init() {
	verifyCmd.Flags().StringVar(&verifyOut, "out", "", "output directory (default: configured verified dir)")
	verifyCmd.Flags().IntVar(&verifyLimit, "limit", 0, "process at most N span files")
	verifyCmd.Flags().BoolVar(&verifyNoSkip, "no-skip-existing", false, "reprocess files whose verified output exists")

	rootCmd.AddCommand(verifyCmd)
}
