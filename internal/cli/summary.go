package cli

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ndquoc/grounder/internal/artifact"
)

var (
	summaryDir    string
	summaryManual bool
)

// summaryCmd rebuilds and prints batch summaries from stored reports.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Rebuild batch summaries from stored reports",
	Long: `Replay the stored cross-check reports through the summary reducer and
print the result. Underscore-prefixed files are skipped, so the summary
never counts itself.

With --manual, tally reviewer decisions instead of rebuilding.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		dir := filepath.Join(cfg.Paths.ReportsDir, "crosscheck")
		if summaryDir != "" {
			dir = summaryDir
		}

		if summaryManual {
			tally, err := artifact.SummarizeManualStatus(dir, logger)
			if err != nil {
				return err
			}
			fmt.Printf("Manual review status (%d reports):\n", tally.Total)
			fmt.Printf("  valid:     %d\n", tally.Valid)
			fmt.Printf("  invalid:   %d\n", tally.Invalid)
			fmt.Printf("  unlabeled: %d\n", tally.Unlabeled)
			return nil
		}

		summary, err := artifact.RebuildCrossBatchSummary(dir, uuid.NewString(), cfg.Validator.Model, logger)
		if err != nil {
			return err
		}

		fmt.Printf("Batch summary (%d reports):\n", summary.TotalFilesProcessed)
		fmt.Printf("  supported:   %d (%.2f%%)\n", summary.VerdictSupportedCount, summary.SupportedPercentage)
		fmt.Printf("  unsure:      %d\n", summary.VerdictUnsureCount)
		fmt.Printf("  unsupported: %d\n", summary.VerdictUnsupportedCount)
		fmt.Printf("  usable:      %d (%.2f%%)\n", summary.TotalUsable, summary.UsablePercentage)
		fmt.Printf("  issues:      %d, missing people: %d\n", summary.TotalIssues, summary.TotalMissingPeople)
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryDir, "dir", "", "report directory (default: <reports>/crosscheck)")
	summaryCmd.Flags().BoolVar(&summaryManual, "manual", false, "tally manual review statuses instead")

	rootCmd.AddCommand(summaryCmd)
}
