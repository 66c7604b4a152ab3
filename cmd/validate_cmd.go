// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/tabmap/cmd/config"
	"github.com/xataio/tabmap/internal/json"
	"github.com/xataio/tabmap/pkg/pipeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate builds the configured transformers and loads their mappings without transforming any table",
	RunE:  withSignalWatcher(validate),
	Example: `
	tabmap validate -c config.yaml
	tabmap validate -c config.env --json`,
}

type validationReport struct {
	Valid  bool             `json:"valid"`
	Steps  []validationStep `json:"steps,omitempty"`
	Errors []string         `json:"errors,omitempty"`
}

type validationStep struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Columns []string `json:"columns"`
}

func (r *validationReport) PrettyPrint() string {
	var sb strings.Builder
	if r.Valid {
		sb.WriteString("configuration is valid\n")
	} else {
		sb.WriteString("configuration is not valid\n")
	}
	for _, step := range r.Steps {
		fmt.Fprintf(&sb, " - %s (%s): %s\n", step.Name, step.Type, strings.Join(step.Columns, ", "))
	}
	for _, err := range r.Errors {
		fmt.Fprintf(&sb, " error: %s\n", err)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func validate(ctx context.Context, cmd *cobra.Command) error {
	sp, _ := pterm.DefaultSpinner.WithText("validating tabmap configuration...").Start()

	report := newValidationReport(ctx)
	if report.Valid {
		sp.Success("configuration is valid")
	} else {
		sp.Warning("tabmap validation check identified issues: ", strings.Join(report.Errors, ", "))
	}

	if err := print(cmd, report); err != nil {
		return fmt.Errorf("failed to format tabmap validation report: %w", err)
	}
	return nil
}

func newValidationReport(ctx context.Context) *validationReport {
	report := &validationReport{}
	pipelineConfig, err := config.ParsePipelineConfig()
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("parsing pipeline config: %v", err))
		return report
	}
	if _, err := config.ParseInstrumentationConfig(); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("parsing instrumentation config: %v", err))
	}

	p, err := pipeline.NewFromConfig(ctx, pipelineConfig)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}
	for _, step := range p.Steps() {
		report.Steps = append(report.Steps, validationStep{
			Name:    step.Name,
			Type:    string(step.Transformer.Type()),
			Columns: step.Transformer.Columns(),
		})
	}
	report.Valid = len(report.Errors) == 0
	return report
}

type printer interface {
	PrettyPrint() string
}

func print(cmd *cobra.Command, p printer) error {
	str := p.PrettyPrint()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		jsonData, err := json.MarshalIndent(p, "", "\t")
		if err != nil {
			return err
		}
		str = string(jsonData)
	}

	fmt.Println(str) //nolint:forbidigo
	return nil
}
