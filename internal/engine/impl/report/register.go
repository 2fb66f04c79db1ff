package report

import (
	"fmt"

	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"

	"github.com/sirupsen/logrus"
)

// Writer types understood by the factory.
const (
	TypeText       = "text"
	TypeGob        = "gob"
	TypeClickHouse = "clickhouse"
	TypeNATS       = "nats"
	TypeMetrics    = "metrics"
	TypeChart      = "chart"
)

// snapshotTimeFormat names snapshot directories.
const snapshotTimeFormat = "2006-01-02_15-04-05"

// --- Factory Registration ---

func init() {
	factory.RegisterWriter(TypeText, func(def config.WriterDef, log logrus.FieldLogger) (model.Writer, error) {
		if def.Text.Path == "" {
			return nil, fmt.Errorf("text writer requires a path")
		}
		log.WithField("path", def.Text.Path).Info("Text report writer created")
		return NewTextWriter(def.Text.Path, log), nil
	})

	factory.RegisterWriter(TypeGob, func(def config.WriterDef, log logrus.FieldLogger) (model.Writer, error) {
		if def.Gob.RootPath == "" {
			return nil, fmt.Errorf("gob writer requires a root_path")
		}
		log.WithField("root_path", def.Gob.RootPath).Info("Gob snapshot writer created")
		return NewGobWriter(def.Gob.RootPath, log), nil
	})

	factory.RegisterWriter(TypeClickHouse, func(def config.WriterDef, log logrus.FieldLogger) (model.Writer, error) {
		writer, err := NewClickHouseWriter(def.ClickHouse, log)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"database": def.ClickHouse.Database,
			"addr":     fmt.Sprintf("%s:%d", def.ClickHouse.Host, def.ClickHouse.Port),
		}).Info("ClickHouse writer created")
		return writer, nil
	})

	factory.RegisterWriter(TypeNATS, func(def config.WriterDef, log logrus.FieldLogger) (model.Writer, error) {
		if def.NATS.Subject == "" {
			return nil, fmt.Errorf("nats writer requires a subject")
		}
		return NewNATSWriter(def.NATS, log)
	})

	factory.RegisterWriter(TypeMetrics, func(def config.WriterDef, log logrus.FieldLogger) (model.Writer, error) {
		if def.Metrics.Path == "" {
			return nil, fmt.Errorf("metrics writer requires a path")
		}
		return NewMetricsWriter(def.Metrics.Path, log), nil
	})

	factory.RegisterWriter(TypeChart, func(def config.WriterDef, log logrus.FieldLogger) (model.Writer, error) {
		if def.Chart.Path == "" {
			return nil, fmt.Errorf("chart writer requires a path")
		}
		return NewChartWriter(def.Chart, log), nil
	})
}
