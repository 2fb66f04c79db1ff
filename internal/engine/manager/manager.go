package manager

import (
	"context"
	"errors"
	"fmt"
	"io"

	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/flowaggregator"
	reports "FlowTagger/internal/engine/impl/report"
	"FlowTagger/internal/engine/lookup"
	"FlowTagger/internal/engine/protocol"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"FlowTagger/pkg/flowlog"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrWriteFailed marks a run whose report could not be handed to every writer.
var ErrWriteFailed = errors.New("report output failed")

// Manager orchestrates a single classification run: lookup loading, the pass
// over the flow log, and handing the finished report to every writer.
type Manager struct {
	cfg       *config.Config
	log       logrus.FieldLogger
	lookup    *lookup.Table
	protocols *protocol.Table
	writers   []model.Writer
}

// NewManager loads the lookup table and creates the configured writers.
// Lookup failures are returned before any writer is created or any flow-log line is read.
func NewManager(cfg *config.Config, log logrus.FieldLogger) (*Manager, error) {
	// 1. Lookup table, fail fast
	table, err := lookup.Load(cfg.Input.LookupPath)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"path":    cfg.Input.LookupPath,
		"entries": table.Len(),
	}).Info("Lookup table loaded")

	// 2. Protocol table
	protocols := protocol.Default().WithOverrides(cfg.Classifier.Protocols)

	// 3. Writers
	writers, err := factory.Create(cfg, log)
	if err != nil {
		return nil, err
	}
	if len(writers) == 0 {
		log.Warn("No writers enabled, the report will only be returned to the caller")
	}

	return &Manager{
		cfg:       cfg,
		log:       log,
		lookup:    table,
		protocols: protocols,
		writers:   writers,
	}, nil
}

// Run classifies the configured flow log and writes the report.
func (m *Manager) Run(ctx context.Context) (*model.Report, error) {
	reader, err := flowlog.NewReader(m.cfg.Input.FlowLogPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	report, err := m.Process(ctx, reader)
	if err != nil {
		return nil, err
	}
	report.Source = m.cfg.Input.FlowLogPath

	if err := m.Write(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

// Process runs one classification pass over source and returns the finished report.
func (m *Manager) Process(ctx context.Context, source model.LineSource) (*model.Report, error) {
	agg, err := flowaggregator.NewFlowAggregator(flowaggregator.Config{
		DstPortIndex:  m.cfg.Classifier.DstPortIndex,
		ProtocolIndex: m.cfg.Classifier.ProtocolIndex,
		MinFields:     m.cfg.Classifier.MinFields,
		Protocols:     m.protocols,
	}, m.lookup, m.log)
	if err != nil {
		return nil, err
	}

	if err := agg.ProcessAll(ctx, source); err != nil {
		return nil, err
	}

	report := agg.Report()
	report.RunID = uuid.NewString()

	entry := m.log.WithFields(logrus.Fields{
		"run_id":    report.RunID,
		"lines":     agg.Lines(),
		"processed": report.Processed,
		"skipped":   report.SkippedTotal(),
	})
	if report.SkippedTotal() > 0 {
		entry.WithField("reasons", report.SkipCounts).Warn("Flow log processed with skipped lines")
	} else {
		entry.Info("Flow log processed")
	}
	return report, nil
}

// Write hands the report to every writer. Text report writers run last and only
// when all other writers succeeded, so a failed run leaves no new text report behind.
func (m *Manager) Write(ctx context.Context, report *model.Report) error {
	var text []model.Writer
	var errs []error
	for _, w := range m.writers {
		if w.Name() == reports.TypeText {
			text = append(text, w)
			continue
		}
		errs = m.writeOne(ctx, w, report, errs)
	}

	if len(errs) > 0 {
		if len(text) > 0 {
			m.log.Warn("Text report not written because another writer failed")
		}
		return fmt.Errorf("%w: %w", ErrWriteFailed, errors.Join(errs...))
	}

	for _, w := range text {
		errs = m.writeOne(ctx, w, report, errs)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrWriteFailed, errors.Join(errs...))
	}
	return nil
}

func (m *Manager) writeOne(ctx context.Context, w model.Writer, report *model.Report, errs []error) []error {
	if err := w.Write(ctx, report); err != nil {
		m.log.WithField("writer", w.Name()).WithError(err).Error("Writer failed")
		return append(errs, fmt.Errorf("writer '%s': %w", w.Name(), err))
	}
	return errs
}

// Close releases writer connections.
func (m *Manager) Close() error {
	var errs []error
	for _, w := range m.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing writer '%s': %w", w.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// LookupEntries returns the number of entries in the loaded lookup table.
func (m *Manager) LookupEntries() int {
	return m.lookup.Len()
}
