package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/impl/report"
	"FlowTagger/internal/engine/manager"
	"FlowTagger/internal/logging"
	"FlowTagger/internal/model"
	"FlowTagger/internal/ui"

	"github.com/spf13/cobra"
)

type options struct {
	configPath  string
	lookupPath  string
	flowLogPath string
	outputPath  string
	print       bool
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "flow-tagger",
		Short:         "Tag flow-log records by destination port and protocol and count them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	rootCmd.Flags().StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "Configuration file")
	rootCmd.Flags().StringVar(&opts.lookupPath, "lookup", "", "Lookup table CSV (overrides input.lookup_path)")
	rootCmd.Flags().StringVar(&opts.flowLogPath, "flow-log", "", "Flow log file (overrides input.flow_log_path)")
	rootCmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Text report path (overrides the text writer path)")
	rootCmd.Flags().BoolVar(&opts.print, "print", false, "Print the report to the terminal")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "flow-tagger: %s\n", describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// 1. Load configuration
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, opts)

	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	log.WithField("config", opts.configPath).Debug("Configuration loaded")

	// 2. Lookup table and writers
	m, err := manager.NewManager(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.WithError(err).Warn("Failed to close writers")
		}
	}()

	// 3. Classify and write
	result, err := m.Run(ctx)
	if err != nil {
		return err
	}

	if opts.print {
		ui.PrintReport(os.Stdout, result)
	}
	return nil
}

// applyFlags lets command-line paths override the configuration file.
func applyFlags(cfg *config.Config, opts options) {
	if opts.lookupPath != "" {
		cfg.Input.LookupPath = opts.lookupPath
	}
	if opts.flowLogPath != "" {
		cfg.Input.FlowLogPath = opts.flowLogPath
	}
	if opts.outputPath == "" {
		return
	}
	if def, ok := cfg.FindWriter(report.TypeText); ok {
		def.Text.Path = opts.outputPath
		return
	}
	cfg.Writers = append(cfg.Writers, config.WriterDef{
		Type:    report.TypeText,
		Enabled: true,
		Text:    config.TextConfig{Path: opts.outputPath},
	})
}

// describe prefixes fatal errors with their classification.
func describe(err error) string {
	switch {
	case errors.Is(err, model.ErrResourceNotFound):
		return "resource not found: " + err.Error()
	case errors.Is(err, model.ErrMalformedInput):
		return "malformed input: " + err.Error()
	case errors.Is(err, manager.ErrWriteFailed):
		return "text report not written, other outputs may be partial: " + err.Error()
	default:
		return err.Error()
	}
}
