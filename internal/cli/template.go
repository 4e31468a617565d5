package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Flexbotic/AppKalkulator-v2/internal/costtable"
)

// TemplateOptions holds flags for the template command.
type TemplateOptions struct {
	*RootOptions
	Output          string // output workbook path
	PlaceholderRows int
}

// TemplateResult summarizes a generated cost-table template.
type TemplateResult struct {
	Output    string   `json:"output"`
	Workcells int      `json:"workcells"`
	Sheets    []string `json:"sheets"`
}

// NewTemplateCommand creates the template command.
func NewTemplateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TemplateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "template [definitions-dir] -o costs.xlsx",
		Short: "Generate the empty cost-table workbook",
		Long: `Generate the empty cost-table workbook for a definitions directory.

The workbook has an INDEX sheet, one flat-cost sheet per workcell with
cost-table numbers and one sheet per cost-table selection. Fill in the
value cells and check the result with "kalkulator check".`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output workbook path")
	cmd.Flags().IntVar(&opts.PlaceholderRows, "placeholder-rows", 0, "blank rows per table block (default 20)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runTemplate(opts *TemplateOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	dir, err := pathArg(formatter, args, 0, opts.project().Definitions, "definitions directory")
	if err != nil {
		return err
	}
	defs, err := loadDefinitions(formatter, dir)
	if err != nil {
		return err
	}

	rows := opts.PlaceholderRows
	if rows == 0 {
		rows = opts.project().PlaceholderRows
	}
	if rows < 0 {
		msg := fmt.Sprintf("--placeholder-rows must not be negative, got %d", rows)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	doc, err := costtable.Encode(defs, costtable.Options{PlaceholderRows: rows})
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to encode cost table", err)
	}
	for _, name := range doc.SheetNames() {
		formatter.VerboseLog("Sheet: %s", name)
	}

	if err := doc.SaveXLSX(opts.Output); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to write template", err)
	}

	result := TemplateResult{Output: opts.Output, Workcells: len(defs), Sheets: doc.SheetNames()}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Wrote cost-table template for %d workcell(s) to %s\n\n", result.Workcells, result.Output)
	fmt.Fprintln(formatter.Writer, "Sheets:")
	for _, name := range result.Sheets {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	return nil
}
