package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"FlowTagger/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// MetricsWriter writes run metrics in the node-exporter textfile format.
type MetricsWriter struct {
	path string
	log  logrus.FieldLogger
}

// NewMetricsWriter creates a new Prometheus textfile writer.
func NewMetricsWriter(path string, log logrus.FieldLogger) model.Writer {
	return &MetricsWriter{path: path, log: log}
}

// Name returns the writer type.
func (w *MetricsWriter) Name() string {
	return TypeMetrics
}

// Write gathers the report into a fresh registry and writes it to the textfile.
func (w *MetricsWriter) Write(ctx context.Context, report *model.Report) error {
	registry := prometheus.NewRegistry()

	processed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flow_tagger_records_processed_total",
		Help: "Flow-log records that were classified.",
	})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flow_tagger_records_skipped_total",
		Help: "Flow-log records left out of the counts, by reason.",
	}, []string{"reason"})
	tagRecords := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flow_tagger_tag_records",
		Help: "Records assigned to each tag in the last run.",
	}, []string{"tag"})
	combinations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flow_tagger_distinct_combinations",
		Help: "Distinct port/protocol combinations seen in the last run.",
	})
	lookupEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flow_tagger_lookup_entries",
		Help: "Entries in the lookup table used by the last run.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flow_tagger_last_run_timestamp_seconds",
		Help: "Unix time the last report was generated.",
	})
	registry.MustRegister(processed, skipped, tagRecords, combinations, lookupEntries, lastRun)

	processed.Add(float64(report.Processed))
	for _, reason := range model.SkipReasons {
		skipped.WithLabelValues(string(reason)).Add(float64(report.SkipCounts[reason]))
	}
	for _, tc := range report.TagCounts {
		tagRecords.WithLabelValues(tc.Tag).Set(float64(tc.Count))
	}
	combinations.Set(float64(len(report.CombinationCounts)))
	lookupEntries.Set(float64(report.LookupEntries))
	lastRun.Set(float64(report.GeneratedAt.Unix()))

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(w.path, registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	w.log.WithField("path", w.path).Info("Metrics written")
	return nil
}
