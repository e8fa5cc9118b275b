// Package main provides the qualify CLI: it evaluates one submission workbook
// and prints the eligibility report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"homeport-qualifier/internal/config"
	"homeport-qualifier/internal/models"
	"homeport-qualifier/internal/services/analysis"
	"homeport-qualifier/internal/services/report"
	"homeport-qualifier/internal/utils"
)

type options struct {
	sheet      string
	threshold  float64
	seed       uint64
	layoutFile string
	asJSON     bool
	plain      bool
	outputPath string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "qualify [workbook.xlsx]",
		Short: "Evaluate a homeport submission workbook",
		Long: `qualify reads a borrower submission workbook, computes the residual
income against the eligibility threshold and prints the report.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts, stdout)
		},
	}

	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Worksheet to read (default: layout sheet, Version#1)")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "Base threshold before the random premium (default: QUALIFIER_BASE_THRESHOLD or 2800)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Seed for the random premium (0: unseeded)")
	cmd.Flags().StringVar(&opts.layoutFile, "layout", "", "YAML or JSON layout file")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the calculation state as JSON instead of the report")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Strip <strong> markup from the report")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path (default: stdout)")

	return cmd
}

func run(cmd *cobra.Command, inputPath string, opts *options, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		cfg.BaseThreshold = opts.threshold
	}
	if cmd.Flags().Changed("seed") {
		cfg.RandomSeed = opts.seed
	}
	if opts.layoutFile != "" {
		cfg.LayoutFile = opts.layoutFile
	}
	if opts.sheet != "" {
		cfg.SheetName = opts.sheet
	}

	layout, err := cfg.ResolveLayout()
	if err != nil {
		return err
	}
	if opts.sheet != "" {
		layout.SheetName = opts.sheet
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer utils.Sync()

	svc := analysis.NewService(cfg, layout, nil)
	result, err := svc.AnalyzeFile(context.Background(), inputPath, filepath.Base(inputPath), models.RunSourceCLI)
	if err != nil {
		return fmt.Errorf("qualification failed: %w", err)
	}

	var out []byte
	switch {
	case opts.asJSON:
		out, err = json.MarshalIndent(result.State, "", "  ")
		if err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
	case opts.plain:
		out = []byte(report.StripMarkup(result.Report))
	default:
		out = []byte(result.Report)
	}

	if opts.outputPath != "" {
		if err := os.WriteFile(opts.outputPath, out, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	_, err = fmt.Fprintln(stdout, string(out))
	return err
}
