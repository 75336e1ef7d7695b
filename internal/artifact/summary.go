package artifact

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/model"
)

// Reserved names for derived files inside report directories.
const (
	CrossBatchSummaryFile = "_batch_summary.json"
	RuleBatchSummaryFile  = "_rule_batch_summary.json"
)

// RebuildCrossBatchSummary replays every stored cross-check report in dir
// through the summary reducer and writes the result back. Because usability
// and percentages are recomputed per registration, a rebuild after manual
// edits or a partial run always yields consistent numbers.
func RebuildCrossBatchSummary(dir, runID, validatorModel string, logger *zap.Logger) (*model.CrossBatchSummary, error) {
	files, err := ListJSONFiles(dir)
	if err != nil {
		return nil, err
	}

	summary := model.NewCrossBatchSummary(runID, validatorModel)
	for _, path := range files {
		var report model.CrossReport
		if err := ReadJSON(path, &report); err != nil {
			logger.Warn("skipping unreadable report", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}
		if summary.ValidatorModel == "" {
			summary.ValidatorModel = report.ValidatorModel
		}
		summary.Register(&report)
	}

	if err := WriteJSON(filepath.Join(dir, CrossBatchSummaryFile), summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// RebuildRuleBatchSummary replays every stored rule-based report in dir
// through the batch reducer and writes the result back.
func RebuildRuleBatchSummary(dir, runID string, logger *zap.Logger) (*model.BatchSummary, error) {
	files, err := ListJSONFiles(dir)
	if err != nil {
		return nil, err
	}

	summary := &model.BatchSummary{RunID: runID}
	for _, path := range files {
		var report model.Report
		if err := ReadJSON(path, &report); err != nil {
			logger.Warn("skipping unreadable report", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}
		summary.Register(&report)
	}

	if err := WriteJSON(filepath.Join(dir, RuleBatchSummaryFile), summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// ManualTally counts reviewer decisions recorded on stored cross-check
// reports.
type ManualTally struct {
	Total     int `json:"total"`
	Valid     int `json:"valid"`
	Invalid   int `json:"invalid"`
	Unlabeled int `json:"unlabeled"`
}

// SummarizeManualStatus tallies the manual_status field across stored
// cross-check reports without modifying anything.
func SummarizeManualStatus(dir string, logger *zap.Logger) (*ManualTally, error) {
	files, err := ListJSONFiles(dir)
	if err != nil {
		return nil, err
	}

	tally := &ManualTally{}
	for _, path := range files {
		var report model.CrossReport
		if err := ReadJSON(path, &report); err != nil {
			logger.Warn("skipping unreadable report", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}
		tally.Total++
		switch report.ManualStatus {
		case model.ManualStatusValid:
			tally.Valid++
		case model.ManualStatusInvalid:
			tally.Invalid++
		default:
			tally.Unlabeled++
		}
	}
	return tally, nil
}
