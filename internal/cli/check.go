package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/rules"
)

// CheckResult summarizes a decoded cost table.
type CheckResult struct {
	Valid     bool             `json:"valid"`
	Workcells []WorkcellCounts `json:"workcells"`
}

// WorkcellCounts counts the values a cost table holds for one workcell.
type WorkcellCounts struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	CostNumbers int    `json:"cost_numbers"`
	TableItems  int    `json:"table_items"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [definitions-dir] [costs.xlsx]",
		Short: "Check a filled cost-table workbook",
		Long: `Decode a filled cost-table workbook against the definitions.

Reports renamed or missing sheets, unparseable values, unknown choices or
tables and every cost value left blank. Faster feedback than pricing a
quote.

Exit codes:
  0 - Workbook is complete
  1 - Workbook does not decode or values are missing
  2 - Command error (invalid paths, bad definitions)`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	dir, err := pathArg(formatter, args, 0, opts.project().Definitions, "definitions directory")
	if err != nil {
		return err
	}
	costs, err := pathArg(formatter, args, 1, opts.project().Costs, "cost-table workbook")
	if err != nil {
		return err
	}

	defs, err := loadDefinitions(formatter, dir)
	if err != nil {
		return err
	}
	idx, err := loadCostIndex(formatter, defs, costs)
	if err != nil {
		return err
	}

	result := CheckResult{Valid: true, Workcells: countValues(defs, idx)}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Cost table complete: %s\n\n", costs)
	for _, wc := range result.Workcells {
		fmt.Fprintf(formatter.Writer, "  %s (id=%d): %d cost value(s), %d table item(s)\n",
			wc.Name, wc.ID, wc.CostNumbers, wc.TableItems)
	}
	return nil
}

// countValues counts the decoded values of every allowed (choice, formula)
// combination, workcells in id order.
func countValues(defs model.Definitions, idx *model.CostIndex) []WorkcellCounts {
	var out []WorkcellCounts
	for _, wc := range defs.Sorted() {
		counts := WorkcellCounts{ID: wc.ID, Name: wc.Name}
		for _, c := range rules.Combinations(wc) {
			for _, p := range c.Formula.CostNumbers() {
				if _, ok := idx.Number(wc.ID, c.Choice, c.Formula.ID, p.Key); ok {
					counts.CostNumbers++
				}
			}
			for _, tp := range c.Formula.TablePicks() {
				counts.TableItems += len(idx.TableItems(wc.ID, c.Choice, c.Formula.ID, tp.Key))
			}
		}
		out = append(out, counts)
	}
	return out
}
