package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/logging"
	"FlowTagger/internal/model"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func sampleReport() *model.Report {
	return &model.Report{
		RunID:         "6f1c1f8e-0000-4000-8000-000000000001",
		Source:        "flow.log",
		GeneratedAt:   time.Date(2024, 5, 4, 12, 30, 0, 0, time.UTC),
		LookupEntries: 2,
		Processed:     3,
		TagCounts: []model.TagCount{
			{Tag: "sv_P1", Count: 2},
			{Tag: model.UntaggedTag, Count: 1},
		},
		CombinationCounts: []model.CombinationCount{
			{Key: model.CombinationKey{Port: "25", Protocol: "tcp"}, Count: 2},
			{Key: model.CombinationKey{Port: "23", Protocol: "tcp"}, Count: 1},
		},
		Skipped:    []model.SkippedRecord{{Line: 4, Reason: model.SkipTooFewFields, Detail: "expected at least 14 fields, got 3"}},
		SkipCounts: map[model.SkipReason]uint64{model.SkipTooFewFields: 1},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	expected := "Tag Counts:\n" +
		"Tag\tCount\n" +
		"sv_P1\t2\n" +
		"Untagged\t1\n" +
		"\n" +
		"Port/Protocol Combination Counts:\n" +
		"Port\tProtocol\tCount\n" +
		"25\ttcp\t2\n" +
		"23\ttcp\t1\n"
	if buf.String() != expected {
		t.Errorf("Unexpected report:\n%s\nwant:\n%s", buf.String(), expected)
	}
}

func TestTextWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.txt")
	writer := NewTextWriter(path, logging.Discard())

	if err := writer.Write(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if !strings.HasPrefix(string(data), TagSectionTitle) || !strings.Contains(string(data), CombinationSectionTitle) {
		t.Errorf("Report is missing a section: %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected only the report in the output directory, found %d entries", len(entries))
	}
}

func TestGobWriter_Write(t *testing.T) {
	// 1. Write the snapshot
	tmpDir := t.TempDir()
	report := sampleReport()
	if err := NewGobWriter(tmpDir, logging.Discard()).Write(context.Background(), report); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// 2. Verify directory and files
	snapshotDir := filepath.Join(tmpDir, "2024-05-04_12-30-00_6f1c1f8e")
	summaryBytes, err := os.ReadFile(filepath.Join(snapshotDir, SnapshotSummaryFile))
	if err != nil {
		t.Fatalf("summary.json was not created: %v", err)
	}

	// 3. Verify summary content
	var summary SummaryData
	if err := json.Unmarshal(summaryBytes, &summary); err != nil {
		t.Fatalf("Failed to unmarshal summary.json: %v", err)
	}
	if summary.Processed != 3 || summary.Skipped != 1 || summary.SkipReasons["too_few_fields"] != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if summary.DistinctTags != 2 || summary.DistinctCombos != 2 {
		t.Errorf("Unexpected distinct counts in summary: %+v", summary)
	}

	// 4. Verify gob file content
	decoded, err := ReadSnapshot(filepath.Join(snapshotDir, SnapshotDataFile))
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if decoded.RunID != report.RunID || decoded.TagTotals()["sv_P1"] != 2 {
		t.Errorf("Decoded report does not match: %+v", decoded)
	}
	if decoded.CombinationCounts[1].Key.Port != "23" {
		t.Errorf("Decoded report lost row order: %+v", decoded.CombinationCounts)
	}
}

func TestGobWriter_SameSecondRuns(t *testing.T) {
	tmpDir := t.TempDir()
	writer := NewGobWriter(tmpDir, logging.Discard())

	// 1. Two runs generated within the same second
	first := sampleReport()
	second := sampleReport()
	second.RunID = "a0b1c2d3-0000-4000-8000-000000000002"
	second.Processed = 7
	for _, r := range []*model.Report{first, second} {
		if err := writer.Write(context.Background(), r); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	// 2. Each keeps its own snapshot
	for _, r := range []*model.Report{first, second} {
		decoded, err := ReadSnapshot(filepath.Join(tmpDir, SnapshotDirName(r), SnapshotDataFile))
		if err != nil {
			t.Fatalf("ReadSnapshot failed: %v", err)
		}
		if decoded.RunID != r.RunID || decoded.Processed != r.Processed {
			t.Errorf("Snapshot for run %s was overwritten: %+v", r.RunID, decoded)
		}
	}
}

func TestMetricsWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow_tagger.prom")
	if err := NewMetricsWriter(path, logging.Discard()).Write(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read metrics file: %v", err)
	}
	for _, want := range []string{
		"flow_tagger_records_processed_total 3",
		`flow_tagger_records_skipped_total{reason="too_few_fields"} 1`,
		`flow_tagger_records_skipped_total{reason="protocol_not_integer"} 0`,
		`flow_tagger_tag_records{tag="Untagged"} 1`,
		"flow_tagger_lookup_entries 2",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Metrics file is missing %q", want)
		}
	}
}

func TestChartWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.png")
	writer := NewChartWriter(config.ChartConfig{Path: path}, logging.Discard())

	if err := writer.Write(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("Expected a non-empty chart file, err=%v", err)
	}

	empty := filepath.Join(t.TempDir(), "empty.png")
	if err := NewChartWriter(config.ChartConfig{Path: empty}, logging.Discard()).Write(context.Background(), &model.Report{}); err != nil {
		t.Fatalf("Write of an empty report failed: %v", err)
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Errorf("Expected no chart for an empty report")
	}
}

func TestEncodeReport(t *testing.T) {
	data, err := EncodeReport(sampleReport())
	if err != nil {
		t.Fatalf("EncodeReport failed: %v", err)
	}

	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to decode message: %v", err)
	}
	fields := msg.AsMap()
	if fields["processed"] != float64(3) {
		t.Errorf("Unexpected processed value: %v", fields["processed"])
	}
	tags, ok := fields["tag_counts"].([]interface{})
	if !ok || len(tags) != 2 {
		t.Fatalf("Unexpected tag_counts: %v", fields["tag_counts"])
	}
	first := tags[0].(map[string]interface{})
	if first["tag"] != "sv_P1" || first["count"] != float64(2) {
		t.Errorf("Unexpected first tag row: %v", first)
	}
}

func TestFactoryRegistration(t *testing.T) {
	for _, name := range []string{TypeText, TypeGob, TypeClickHouse, TypeNATS, TypeMetrics, TypeChart} {
		if !factory.Registered(name) {
			t.Errorf("Writer type %q is not registered", name)
		}
	}

	cfg := &config.Config{Writers: []config.WriterDef{{Type: TypeText, Enabled: true}}}
	if _, err := factory.Create(cfg, logging.Discard()); err == nil {
		t.Errorf("Expected an error for a text writer without a path")
	}
}

func TestFindWriter_ByType(t *testing.T) {
	cfg, err := config.Parse([]byte(`
writers:
  - type: clickhouse
    enabled: false
  - type: clickhouse
    enabled: true
    clickhouse:
      host: ch-2
`))
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	def, ok := cfg.FindWriter(TypeClickHouse)
	if !ok || def.ClickHouse.Host != "ch-2" {
		t.Fatalf("Expected the enabled ClickHouse writer, got %+v (found=%v)", def, ok)
	}
	if _, ok := cfg.FindWriter(TypeNATS); ok {
		t.Errorf("Expected no NATS writer")
	}
}
