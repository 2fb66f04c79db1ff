package report

import (
	"context"
	"fmt"
	"time"

	"FlowTagger/internal/config"
	"FlowTagger/internal/model"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// NATSWriter publishes a protobuf-encoded report to a NATS subject.
type NATSWriter struct {
	nc      *nats.Conn
	subject string
	log     logrus.FieldLogger
}

// NewNATSWriter connects to the NATS server.
func NewNATSWriter(cfg config.NATSConfig, log logrus.FieldLogger) (*NATSWriter, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	log.WithFields(logrus.Fields{"url": url, "subject": cfg.Subject}).Info("NATS writer connected")
	return &NATSWriter{nc: nc, subject: cfg.Subject, log: log}, nil
}

// Name returns the writer type.
func (w *NATSWriter) Name() string {
	return TypeNATS
}

// Write publishes the report and waits for the server to acknowledge the flush.
func (w *NATSWriter) Write(ctx context.Context, report *model.Report) error {
	data, err := EncodeReport(report)
	if err != nil {
		return err
	}
	if err := w.nc.Publish(w.subject, data); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	if err := w.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	w.log.WithFields(logrus.Fields{"subject": w.subject, "bytes": len(data)}).Info("Report published")
	return nil
}

// Close drains and closes the NATS connection.
func (w *NATSWriter) Close() error {
	return w.nc.Drain()
}

// EncodeReport serializes a report as a protobuf Struct.
func EncodeReport(report *model.Report) ([]byte, error) {
	tags := make([]interface{}, 0, len(report.TagCounts))
	for _, tc := range report.TagCounts {
		tags = append(tags, map[string]interface{}{"tag": tc.Tag, "count": tc.Count})
	}
	combos := make([]interface{}, 0, len(report.CombinationCounts))
	for _, cc := range report.CombinationCounts {
		combos = append(combos, map[string]interface{}{
			"port":     cc.Key.Port,
			"protocol": cc.Key.Protocol,
			"count":    cc.Count,
		})
	}
	skips := make(map[string]interface{}, len(report.SkipCounts))
	for reason, n := range report.SkipCounts {
		skips[string(reason)] = n
	}

	msg, err := structpb.NewStruct(map[string]interface{}{
		"run_id":             report.RunID,
		"source":             report.Source,
		"generated_at":       report.GeneratedAt.UTC().Format(time.RFC3339),
		"processed":          report.Processed,
		"tag_counts":         tags,
		"combination_counts": combos,
		"skipped":            skips,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build report message: %w", err)
	}

	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report message: %w", err)
	}
	return data, nil
}
