package report

import (
	"context"
	"fmt"

	"FlowTagger/internal/chstore"
	"FlowTagger/internal/config"
	"FlowTagger/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"
)

const createTagCountsTable = `
CREATE TABLE IF NOT EXISTS ` + chstore.TagCountsTable + ` (
    Timestamp   DateTime,
    RunID       String,
    Source      String,
    Tag         String,
    Count       UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (RunID, Tag);
`

const createCombinationCountsTable = `
CREATE TABLE IF NOT EXISTS ` + chstore.CombinationCountsTable + ` (
    Timestamp   DateTime,
    RunID       String,
    Source      String,
    DstPort     String,
    Protocol    String,
    Count       UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (RunID, DstPort, Protocol);
`

// ClickHouseWriter stores both count tables of a report in ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
	log  logrus.FieldLogger
}

// NewClickHouseWriter connects to ClickHouse and makes sure the tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig, log logrus.FieldLogger) (*ClickHouseWriter, error) {
	conn, err := chstore.Connect(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	for _, stmt := range []string{createTagCountsTable, createCombinationCountsTable} {
		if err := conn.Exec(context.Background(), stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Debug("Connected to ClickHouse and ensured tables exist")

	return &ClickHouseWriter{conn: conn, log: log}, nil
}

// Name returns the writer type.
func (w *ClickHouseWriter) Name() string {
	return TypeClickHouse
}

// Write inserts the tag and combination counts of the report.
func (w *ClickHouseWriter) Write(ctx context.Context, report *model.Report) error {
	if len(report.TagCounts) == 0 {
		return nil // Nothing to write
	}

	tagBatch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+chstore.TagCountsTable)
	if err != nil {
		return fmt.Errorf("failed to prepare tag batch: %w", err)
	}
	for _, tc := range report.TagCounts {
		if err := tagBatch.Append(report.GeneratedAt, report.RunID, report.Source, tc.Tag, tc.Count); err != nil {
			return fmt.Errorf("failed to append tag count to batch: %w", err)
		}
	}
	if err := tagBatch.Send(); err != nil {
		return fmt.Errorf("failed to send tag batch: %w", err)
	}

	comboBatch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+chstore.CombinationCountsTable)
	if err != nil {
		return fmt.Errorf("failed to prepare combination batch: %w", err)
	}
	for _, cc := range report.CombinationCounts {
		if err := comboBatch.Append(report.GeneratedAt, report.RunID, report.Source, cc.Key.Port, cc.Key.Protocol, cc.Count); err != nil {
			return fmt.Errorf("failed to append combination count to batch: %w", err)
		}
	}
	if err := comboBatch.Send(); err != nil {
		return fmt.Errorf("failed to send combination batch: %w", err)
	}

	w.log.WithFields(logrus.Fields{
		"run_id":       report.RunID,
		"tags":         len(report.TagCounts),
		"combinations": len(report.CombinationCounts),
	}).Info("Wrote counts to ClickHouse")
	return nil
}

// Close closes the ClickHouse connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
