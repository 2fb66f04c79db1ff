package report

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"FlowTagger/internal/model"

	"github.com/sirupsen/logrus"
)

// Snapshot file names inside a snapshot directory.
const (
	SnapshotDataFile    = "report.dat"
	SnapshotSummaryFile = "summary.json"
)

// SummaryData holds the metadata for a snapshot, internal to the writer.
type SummaryData struct {
	RunID          string            `json:"run_id"`
	Source         string            `json:"source"`
	LookupEntries  int               `json:"lookup_entries"`
	Processed      uint64            `json:"processed"`
	Skipped        uint64            `json:"skipped"`
	SkipReasons    map[string]uint64 `json:"skip_reasons,omitempty"`
	DistinctTags   int               `json:"distinct_tags"`
	DistinctCombos int               `json:"distinct_combinations"`
	Timestamp      string            `json:"timestamp"`
}

// GobWriter writes the full report to disk in gob format, next to a JSON summary.
type GobWriter struct {
	rootPath string
	log      logrus.FieldLogger
}

// NewGobWriter creates a new snapshot writer rooted at rootPath.
func NewGobWriter(rootPath string, log logrus.FieldLogger) model.Writer {
	return &GobWriter{rootPath: rootPath, log: log}
}

// Name returns the writer type.
func (w *GobWriter) Name() string {
	return TypeGob
}

// Write stores the report under <root>/<timestamp>_<run id prefix>/.
func (w *GobWriter) Write(ctx context.Context, report *model.Report) error {
	// 1. Create snapshot directory
	snapshotDir := filepath.Join(w.rootPath, SnapshotDirName(report))
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// 2. Write the report itself
	dataPath := filepath.Join(snapshotDir, SnapshotDataFile)
	file, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", dataPath, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(report); err != nil {
		return fmt.Errorf("failed to encode report to gob for file '%s': %w", dataPath, err)
	}

	// 3. Write summary file
	summary := SummaryData{
		RunID:          report.RunID,
		Source:         report.Source,
		LookupEntries:  report.LookupEntries,
		Processed:      report.Processed,
		Skipped:        report.SkippedTotal(),
		DistinctTags:   len(report.TagCounts),
		DistinctCombos: len(report.CombinationCounts),
		Timestamp:      report.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if len(report.SkipCounts) > 0 {
		summary.SkipReasons = make(map[string]uint64, len(report.SkipCounts))
		for reason, n := range report.SkipCounts {
			summary.SkipReasons[string(reason)] = n
		}
	}

	summaryPath := filepath.Join(snapshotDir, SnapshotSummaryFile)
	summaryFile, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}

	w.log.WithField("dir", snapshotDir).Info("Snapshot written")
	return nil
}

// SnapshotDirName names the directory of a report's snapshot. The run id prefix
// keeps runs generated within the same second apart.
func SnapshotDirName(report *model.Report) string {
	name := report.GeneratedAt.Format(snapshotTimeFormat)
	runID := strings.ReplaceAll(report.RunID, "-", "")
	if len(runID) > 8 {
		runID = runID[:8]
	}
	if runID != "" {
		name += "_" + runID
	}
	return name
}

// ReadSnapshot decodes a report previously stored by GobWriter.
func ReadSnapshot(path string) (*model.Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	var report model.Report
	if err := gob.NewDecoder(file).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode gob data: %w", err)
	}
	return &report, nil
}
