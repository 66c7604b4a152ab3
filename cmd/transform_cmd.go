// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xataio/tabmap/cmd/config"
	"github.com/xataio/tabmap/internal/log/zerolog"
	"github.com/xataio/tabmap/pkg/frame"
	loglib "github.com/xataio/tabmap/pkg/log"
	"github.com/xataio/tabmap/pkg/pipeline"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform applies the configured mappings to the input tables",
	RunE:  withSignalWatcher(transform),
	Example: `
	tabmap transform -c config.yaml -i customers.csv -o out
	tabmap transform -c config.env -i customers.csv -i orders.json -o out --concurrency 2
	tabmap transform --config config.yaml --log-level debug -i customers.csv -o out`,
}

var (
	errNoInputs = errors.New("at least one input table is required")
	errNoOutput = errors.New("output directory is required")
	errDupInput = errors.New("input tables must have distinct file names")
)

func transform(ctx context.Context, cmd *cobra.Command) error {
	inputs, err := cmd.Flags().GetStringArray("input")
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errNoInputs
	}
	outDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if outDir == "" {
		return errNoOutput
	}
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		base := filepath.Base(in)
		if _, found := seen[base]; found {
			return fmt.Errorf("%w: %s", errDupInput, base)
		}
		seen[base] = struct{}{}
	}

	logger := zerolog.NewLogger(&zerolog.Config{
		LogLevel: config.LogLevel(),
	})
	zerolog.SetGlobalLogger(logger)

	pipelineConfig, err := config.ParsePipelineConfig()
	if err != nil {
		return fmt.Errorf("parsing pipeline config: %w", err)
	}
	if concurrency, changed := changedIntFlag(cmd.Flags(), "concurrency"); changed {
		pipelineConfig.Concurrency = concurrency
	}

	provider, err := newInstrumentationProvider()
	if err != nil {
		return err
	}
	defer provider.Close()

	sp, _ := pterm.DefaultSpinner.WithText("transforming tables...").Start()
	err = func() error {
		p, err := pipeline.NewFromConfig(ctx, pipelineConfig,
			pipeline.WithLogger(zerolog.NewStdLogger(logger)),
			pipeline.WithInstrumentation(provider.NewInstrumentation("transform")))
		if err != nil {
			return fmt.Errorf("building pipeline: %w", err)
		}

		tables := make([]pipeline.Table, 0, len(inputs))
		for _, in := range inputs {
			sp.UpdateText(fmt.Sprintf("reading %s...", in))
			df, err := frame.ReadFile(in)
			if err != nil {
				return err
			}
			tables = append(tables, pipeline.Table{Name: in, Frame: df})
		}

		sp.UpdateText(fmt.Sprintf("transforming %d tables...", len(tables)))
		results, err := p.RunAll(ctx, tables)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		for _, res := range results {
			out := filepath.Join(outDir, filepath.Base(res.Name))
			if err := frame.WriteFile(out, res.Frame); err != nil {
				return err
			}
			zerolog.NewStdLogger(logger).Info("table transformed", loglib.Fields{"input": res.Name, "output": out})
		}

		sp.Success(fmt.Sprintf("%d tables transformed into %s", len(results), outDir))
		return nil
	}()
	if err != nil {
		sp.Fail(err.Error())
	}
	return err
}

// changedIntFlag returns the flag value only when it was set on the command
// line, so that it overrides the configuration file.
func changedIntFlag(fs *pflag.FlagSet, name string) (int, bool) {
	f := fs.Lookup(name)
	if f == nil || !f.Changed {
		return 0, false
	}
	v, err := fs.GetInt(name)
	if err != nil {
		return 0, false
	}
	return v, true
}
