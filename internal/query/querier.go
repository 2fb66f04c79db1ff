package query

import (
	"context"
	"fmt"
	"time"

	"FlowTagger/internal/chstore"
	"FlowTagger/internal/config"
	"FlowTagger/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// RunSummary describes one stored classification run.
type RunSummary struct {
	RunID       string
	Source      string
	GeneratedAt time.Time
	Records     uint64
}

// Querier defines the interface for reading stored run results.
type Querier interface {
	Runs(ctx context.Context, limit int) ([]RunSummary, error)
	TagCounts(ctx context.Context, runID string) ([]model.TagCount, error)
	CombinationCounts(ctx context.Context, runID string) ([]model.CombinationCount, error)
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn driver.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(ctx context.Context, cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := chstore.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

// Runs lists the most recent runs, newest first.
func (q *clickhouseQuerier) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := q.conn.Query(ctx, `
		SELECT RunID, any(Source), max(Timestamp) AS GeneratedAt, sum(Count)
		FROM `+chstore.TagCountsTable+`
		GROUP BY RunID
		ORDER BY GeneratedAt DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.RunID, &run.Source, &run.GeneratedAt, &run.Records); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TagCounts returns the tag counts of a run, largest first.
func (q *clickhouseQuerier) TagCounts(ctx context.Context, runID string) ([]model.TagCount, error) {
	rows, err := q.conn.Query(ctx, `
		SELECT Tag, sum(Count) AS Total
		FROM `+chstore.TagCountsTable+`
		WHERE RunID = ?
		GROUP BY Tag
		ORDER BY Total DESC, Tag`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var counts []model.TagCount
	for rows.Next() {
		var tc model.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// CombinationCounts returns the port/protocol combination counts of a run, largest first.
func (q *clickhouseQuerier) CombinationCounts(ctx context.Context, runID string) ([]model.CombinationCount, error) {
	rows, err := q.conn.Query(ctx, `
		SELECT DstPort, Protocol, sum(Count) AS Total
		FROM `+chstore.CombinationCountsTable+`
		WHERE RunID = ?
		GROUP BY DstPort, Protocol
		ORDER BY Total DESC, DstPort, Protocol`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var counts []model.CombinationCount
	for rows.Next() {
		var cc model.CombinationCount
		if err := rows.Scan(&cc.Key.Port, &cc.Key.Protocol, &cc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan combination count: %w", err)
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}
