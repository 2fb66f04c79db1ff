package report

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"FlowTagger/internal/config"
	"FlowTagger/internal/model"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ChartWriter renders the tag counts as a bar chart image.
type ChartWriter struct {
	cfg config.ChartConfig
	log logrus.FieldLogger
}

// NewChartWriter creates a new chart writer. The image format follows the file extension.
func NewChartWriter(cfg config.ChartConfig, log logrus.FieldLogger) model.Writer {
	if cfg.Title == "" {
		cfg.Title = "Flow records per tag"
	}
	if cfg.Width <= 0 {
		cfg.Width = 8
	}
	if cfg.Height <= 0 {
		cfg.Height = 4
	}
	return &ChartWriter{cfg: cfg, log: log}
}

// Name returns the writer type.
func (w *ChartWriter) Name() string {
	return TypeChart
}

// Write draws one bar per tag, in first-seen order.
func (w *ChartWriter) Write(ctx context.Context, report *model.Report) error {
	if len(report.TagCounts) == 0 {
		w.log.Warn("No tag counts, chart not written")
		return nil
	}

	values := make(plotter.Values, len(report.TagCounts))
	names := make([]string, len(report.TagCounts))
	for i, tc := range report.TagCounts {
		values[i] = float64(tc.Count)
		names[i] = tc.Tag
	}

	p := plot.New()
	p.Title.Text = w.cfg.Title
	p.Y.Label.Text = "Records"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = color.RGBA{R: 108, G: 92, B: 231, A: 255}
	p.Add(bars)
	p.NominalX(names...)

	if err := os.MkdirAll(filepath.Dir(w.cfg.Path), 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	if err := p.Save(vg.Length(w.cfg.Width)*vg.Inch, vg.Length(w.cfg.Height)*vg.Inch, w.cfg.Path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}

	w.log.WithField("path", w.cfg.Path).Info("Chart written")
	return nil
}
