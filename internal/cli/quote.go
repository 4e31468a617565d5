package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Flexbotic/AppKalkulator-v2/internal/expr"
	"github.com/Flexbotic/AppKalkulator-v2/internal/material"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/quote"
)

// QuoteOptions holds flags for the quote command.
type QuoteOptions struct {
	*RootOptions
	Request string // request file path
	Catalog string // material catalog workbook
}

// PricedLine is one priced line of the quote command output.
type PricedLine struct {
	ID string `json:"id"`
	*quote.Line
	Price    float64  `json:"price"`
	Warnings []string `json:"warnings,omitempty"`
}

// QuoteResult is the quote command output.
type QuoteResult struct {
	Lines []PricedLine `json:"lines"`
	Total float64      `json:"total"`
}

// NewQuoteCommand creates the quote command.
func NewQuoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QuoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "quote [definitions-dir] [costs.xlsx] --request request.yaml",
		Short: "Price a quote request",
		Long: `Price every line of a quote request file against a filled cost table.

A line names the workcell, the choice value, the formula (optional when the
default rules single one out), user values and table selections. Catalog
items attached to a line fill its mass and area inputs unless entered.

Example request:
  lines:
    - workcell_id: 11
      choice: OGNIOWY
      items:
        - {material_id: 0, length_mm: 1000, qty: 5}
    - workcell_id: 9
      formula: by_dm2
      user_values: {dm2: 10}
      table_picks: {cena_dm2: FARBA_PROSZKOWA}

Examples:
  kalkulator quote ./workcells costs.xlsx --request request.yaml
  kalkulator quote --request request.yaml --catalog materials.xlsx --format json`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Request, "request", "r", "", "quote request file (YAML)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "material catalog workbook")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func runQuote(opts *QuoteOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	project := opts.project()

	dir, err := pathArg(formatter, args, 0, project.Definitions, "definitions directory")
	if err != nil {
		return err
	}
	costs, err := pathArg(formatter, args, 1, project.Costs, "cost-table workbook")
	if err != nil {
		return err
	}

	qf, err := readQuoteFile(opts.Request)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read request", err)
	}

	defs, err := loadDefinitions(formatter, dir)
	if err != nil {
		return err
	}
	idx, err := loadCostIndex(formatter, defs, costs)
	if err != nil {
		return err
	}

	var catalog *material.Catalog
	if needsCatalog(qf) {
		path := opts.Catalog
		if path == "" {
			path = project.Catalog
		}
		if path != "" {
			if catalog, err = loadCatalog(formatter, path); err != nil {
				return err
			}
		}
	}

	result, err := priceLines(defs, idx, catalog, qf, opts.lineIDs())
	if err != nil {
		return formatter.Fail(ExitFailure, "quote failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for i, l := range result.Lines {
		fmt.Fprintf(w, "%d. %s [%s / %s] %s = %.2f\n", i+1, l.Workcell, l.Choice, l.FormulaID, l.Expr, l.Price)
		for _, key := range l.Bindings.Keys() {
			fmt.Fprintf(w, "     %s = %v\n", key, l.Bindings[key])
		}
		for _, warning := range l.Warnings {
			fmt.Fprintf(w, "     ! %s\n", warning)
		}
		formatter.VerboseLog("line %d id %s", i+1, l.ID)
	}
	fmt.Fprintf(w, "\nTotal: %.2f\n", result.Total)
	return nil
}

// priceLines prices every line in order and stops at the first failure.
func priceLines(defs model.Definitions, idx *model.CostIndex, catalog *material.Catalog, qf *QuoteFile, ids quote.LineIDGenerator) (*QuoteResult, error) {
	result := &QuoteResult{Lines: make([]PricedLine, 0, len(qf.Lines))}
	var total float64

	for i, line := range qf.Lines {
		lineNo := i + 1
		req, err := attachMaterials(catalog, lineNo, line)
		if err != nil {
			return nil, err
		}
		req, err = quote.WithMaterialDefaults(defs, req)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		priced, err := quote.Price(defs, idx, req)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		var warnings []string
		for _, v := range quote.CheckMinimums(priced.Formula(), req.UserValues) {
			warnings = append(warnings, v.String())
		}

		result.Lines = append(result.Lines, PricedLine{
			ID:       ids.NewID(),
			Line:     priced.Line,
			Price:    priced.Price,
			Warnings: warnings,
		})
		total += priced.Price
	}

	result.Total = expr.Round(total)
	return result, nil
}

func needsCatalog(qf *QuoteFile) bool {
	for _, l := range qf.Lines {
		if len(l.Items) > 0 {
			return true
		}
	}
	return false
}
