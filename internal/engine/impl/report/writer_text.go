package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"FlowTagger/internal/model"

	"github.com/sirupsen/logrus"
)

// Section titles and column delimiter of the text report.
const (
	TagSectionTitle         = "Tag Counts:"
	CombinationSectionTitle = "Port/Protocol Combination Counts:"
	Delimiter               = "\t"
)

// TextWriter renders the report as two tab-delimited sections in a text file.
type TextWriter struct {
	path string
	log  logrus.FieldLogger
}

// NewTextWriter creates a new text report writer.
func NewTextWriter(path string, log logrus.FieldLogger) model.Writer {
	return &TextWriter{path: path, log: log}
}

// Name returns the writer type.
func (w *TextWriter) Name() string {
	return TypeText
}

// Write renders the report and replaces the output file with it.
func (w *TextWriter) Write(ctx context.Context, report *model.Report) error {
	var buf bytes.Buffer
	if err := Render(&buf, report); err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Rename keeps a reader from ever seeing a half-written report.
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("failed to move report to '%s': %w", w.path, err)
	}

	w.log.WithFields(logrus.Fields{
		"path":         w.path,
		"tags":         len(report.TagCounts),
		"combinations": len(report.CombinationCounts),
	}).Info("Report written")
	return nil
}

// Render writes the two report sections to out.
func Render(out io.Writer, report *model.Report) error {
	var buf bytes.Buffer

	buf.WriteString(TagSectionTitle + "\n")
	buf.WriteString("Tag" + Delimiter + "Count\n")
	for _, tc := range report.TagCounts {
		fmt.Fprintf(&buf, "%s%s%d\n", tc.Tag, Delimiter, tc.Count)
	}

	buf.WriteString("\n" + CombinationSectionTitle + "\n")
	buf.WriteString("Port" + Delimiter + "Protocol" + Delimiter + "Count\n")
	for _, cc := range report.CombinationCounts {
		fmt.Fprintf(&buf, "%s%s%s%s%d\n", cc.Key.Port, Delimiter, cc.Key.Protocol, Delimiter, cc.Count)
	}

	if _, err := out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
