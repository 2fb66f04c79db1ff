package flowaggregator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"FlowTagger/internal/engine/lookup"
	"FlowTagger/internal/engine/protocol"
	"FlowTagger/internal/model"

	"github.com/sirupsen/logrus"
)

// Config describes where the classified fields sit in a flow-log line.
type Config struct {
	DstPortIndex  int
	ProtocolIndex int
	MinFields     int
	Protocols     *protocol.Table
}

// FlowAggregator classifies flow-log lines against a lookup table and keeps
// the tag and port/protocol combination counts. It is not safe for concurrent use.
type FlowAggregator struct {
	cfg    Config
	lookup *lookup.Table
	log    logrus.FieldLogger

	tags         *counter[string]
	combinations *counter[model.CombinationKey]
	skipped      []model.SkippedRecord
	skipCounts   map[model.SkipReason]uint64
	lines        int
}

// NewFlowAggregator creates a new FlowAggregator for the given layout and lookup table.
func NewFlowAggregator(cfg Config, table *lookup.Table, log logrus.FieldLogger) (*FlowAggregator, error) {
	if table == nil {
		return nil, fmt.Errorf("lookup table is required")
	}
	if cfg.Protocols == nil {
		cfg.Protocols = protocol.Default()
	}
	if cfg.MinFields <= 0 {
		return nil, fmt.Errorf("min fields must be positive, got %d", cfg.MinFields)
	}
	if cfg.DstPortIndex < 0 || cfg.DstPortIndex >= cfg.MinFields {
		return nil, fmt.Errorf("destination port index %d is outside [0, %d)", cfg.DstPortIndex, cfg.MinFields)
	}
	if cfg.ProtocolIndex < 0 || cfg.ProtocolIndex >= cfg.MinFields {
		return nil, fmt.Errorf("protocol index %d is outside [0, %d)", cfg.ProtocolIndex, cfg.MinFields)
	}

	return &FlowAggregator{
		cfg:          cfg,
		lookup:       table,
		log:          log,
		tags:         newCounter[string](),
		combinations: newCounter[model.CombinationKey](),
		skipCounts:   make(map[model.SkipReason]uint64),
	}, nil
}

// ProcessLine classifies a single flow-log line and updates both count tables.
// A line that cannot be classified is recorded as skipped and a *model.SkipError is returned.
func (fa *FlowAggregator) ProcessLine(line string) (model.FlowRecord, error) {
	fa.lines++

	record, skipErr := fa.classify(fa.lines, line)
	if skipErr != nil {
		fa.recordSkip(skipErr)
		return model.FlowRecord{}, skipErr
	}

	fa.tags.inc(record.Tag)
	fa.combinations.inc(record.Key())
	return record, nil
}

// SkipOversizedLine accounts for a line the source could not read in full.
func (fa *FlowAggregator) SkipOversizedLine() error {
	fa.lines++
	skipErr := &model.SkipError{Record: model.SkippedRecord{
		Line:   fa.lines,
		Reason: model.SkipLineTooLong,
		Detail: "line exceeds the maximum line length",
	}}
	fa.recordSkip(skipErr)
	return skipErr
}

func (fa *FlowAggregator) recordSkip(skipErr *model.SkipError) {
	fa.skipped = append(fa.skipped, skipErr.Record)
	fa.skipCounts[skipErr.Record.Reason]++
	fa.log.WithFields(logrus.Fields{
		"line":   skipErr.Record.Line,
		"reason": skipErr.Record.Reason,
	}).Debug(skipErr.Record.Detail)
}

// classify extracts and resolves the fields of one line without touching the counts.
func (fa *FlowAggregator) classify(lineNo int, line string) (model.FlowRecord, *model.SkipError) {
	fields := strings.Fields(line)
	if len(fields) < fa.cfg.MinFields {
		return model.FlowRecord{}, &model.SkipError{Record: model.SkippedRecord{
			Line:   lineNo,
			Reason: model.SkipTooFewFields,
			Detail: fmt.Sprintf("expected at least %d fields, got %d", fa.cfg.MinFields, len(fields)),
		}}
	}

	protoField := fields[fa.cfg.ProtocolIndex]
	protoNum, err := strconv.Atoi(protoField)
	if err != nil {
		return model.FlowRecord{}, &model.SkipError{Record: model.SkippedRecord{
			Line:   lineNo,
			Reason: model.SkipProtocolNotNumber,
			Detail: fmt.Sprintf("protocol field %q is not an integer", protoField),
		}}
	}

	record := model.FlowRecord{
		Line:           lineNo,
		DstPort:        strings.TrimSpace(fields[fa.cfg.DstPortIndex]),
		ProtocolNumber: protoNum,
		Protocol:       fa.cfg.Protocols.Name(protoNum),
	}

	tag, ok := fa.lookup.ResolveKey(record.Key())
	if !ok {
		tag = model.UntaggedTag
	}
	record.Tag = tag
	return record, nil
}

// ProcessAll consumes every line of the source. Skipped and oversized lines do not
// stop the pass; a read error from the source or a cancelled context does.
func (fa *FlowAggregator) ProcessAll(ctx context.Context, source model.LineSource) error {
	for source.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Skips are recorded by the aggregator itself.
		if source.Oversized() {
			_ = fa.SkipOversizedLine()
			continue
		}
		_, _ = fa.ProcessLine(source.Text())
	}
	if err := source.Err(); err != nil {
		return fmt.Errorf("failed to read flow log: %w", err)
	}
	return nil
}

// Report returns the counts accumulated so far.
func (fa *FlowAggregator) Report() *model.Report {
	report := &model.Report{
		GeneratedAt:   time.Now().UTC(),
		LookupEntries: fa.lookup.Len(),
		Processed:     fa.tags.total(),
		Skipped:       append([]model.SkippedRecord(nil), fa.skipped...),
		SkipCounts:    make(map[model.SkipReason]uint64, len(fa.skipCounts)),
	}
	fa.tags.each(func(tag string, n uint64) {
		report.TagCounts = append(report.TagCounts, model.TagCount{Tag: tag, Count: n})
	})
	fa.combinations.each(func(key model.CombinationKey, n uint64) {
		report.CombinationCounts = append(report.CombinationCounts, model.CombinationCount{Key: key, Count: n})
	})
	for reason, n := range fa.skipCounts {
		report.SkipCounts[reason] = n
	}
	return report
}

// Lines returns the number of lines seen so far, skipped ones included.
func (fa *FlowAggregator) Lines() int {
	return fa.lines
}
