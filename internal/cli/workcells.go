package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/rules"
)

// NewWorkcellsCommand creates the workcells command.
func NewWorkcellsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "workcells [definitions-dir]",
		Short: "List workcells",
		Long: `List the workcells declared in a definitions directory, sorted by name.

Examples:
  kalkulator workcells ./workcells
  kalkulator workcells ./workcells --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkcells(rootOpts, args, cmd)
		},
	}
}

func runWorkcells(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	dir, err := pathArg(formatter, args, 0, opts.project().Definitions, "definitions directory")
	if err != nil {
		return err
	}
	defs, err := loadDefinitions(formatter, dir)
	if err != nil {
		return err
	}

	list := defs.List()
	if formatter.Format == "json" {
		return formatter.Success(list)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%d workcell(s)\n\n", len(list))
	for _, wc := range list {
		fmt.Fprintf(w, "  %4d  %s", wc.ID, wc.Name)
		if wc.Description != "" {
			fmt.Fprintf(w, " - %s", wc.Description)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WorkcellOptions holds the flags of commands scoped to one workcell.
type WorkcellOptions struct {
	*RootOptions
	WorkcellID int
	Choice     string
}

// NewParamsCommand creates the params command.
func NewParamsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkcellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "params [definitions-dir] --workcell ID",
		Short: "Show the parameters of a workcell",
		Long: `Show the parameters a workcell's formulas use, grouped by source:
user-entered numbers, cost-table numbers and cost-table selections.

Example:
  kalkulator params ./workcells --workcell 11`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParams(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.WorkcellID, "workcell", 0, "workcell id")
	_ = cmd.MarkFlagRequired("workcell")

	return cmd
}

func runParams(opts *WorkcellOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	defs, err := workcellDefinitions(opts, formatter, args)
	if err != nil {
		return err
	}

	summary, _ := defs.Parameters(opts.WorkcellID)
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	w := formatter.Writer
	wc := defs[opts.WorkcellID]
	fmt.Fprintf(w, "%s (id=%d)\n", wc.Name, wc.ID)
	printParams(formatter, "User values", summary.UserNumbers)
	printParams(formatter, "Cost-table values", summary.CostNumbers)
	printParams(formatter, "Cost-table selections", summary.CostTables)
	return nil
}

func printParams(f *OutputFormatter, title string, entries []model.ParameterEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(f.Writer, "\n%s:\n", title)
	for _, e := range entries {
		fmt.Fprintf(f.Writer, "  %s: %s", e.Key, e.Label)
		if e.Unit != "" {
			fmt.Fprintf(f.Writer, " [%s]", e.Unit)
		}
		if e.Table != "" {
			fmt.Fprintf(f.Writer, " from %q", e.Table)
		}
		fmt.Fprintln(f.Writer)
	}
}

// FormulaListing is the formulas command output.
type FormulaListing struct {
	WorkcellID int      `json:"workcell_id"`
	Workcell   string   `json:"workcell"`
	ChoiceKey  string   `json:"choice_key"`
	Choice     string   `json:"choice"`
	Allowed    []string `json:"allowed"`
	Defaults   []string `json:"defaults"`
}

// NewFormulasCommand creates the formulas command.
func NewFormulasCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkcellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "formulas [definitions-dir] --workcell ID [--choice VALUE]",
		Short: "Show the formulas allowed under a choice",
		Long: `Show the formulas a workcell allows under one choice value and the
formulas its default rules select. Without --choice every choice value is
listed.

Examples:
  kalkulator formulas ./workcells --workcell 11 --choice OGNIOWY
  kalkulator formulas ./workcells --workcell 9`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormulas(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.WorkcellID, "workcell", 0, "workcell id")
	cmd.Flags().StringVar(&opts.Choice, "choice", "", "choice value (default: all)")
	_ = cmd.MarkFlagRequired("workcell")

	return cmd
}

func runFormulas(opts *WorkcellOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	defs, err := workcellDefinitions(opts, formatter, args)
	if err != nil {
		return err
	}
	wc := defs[opts.WorkcellID]

	choices := wc.ChoiceValues()
	if opts.Choice != "" {
		if !wc.HasChoiceValue(opts.Choice) {
			msg := fmt.Sprintf("workcell %s has no %s value %q (options: %s)",
				wc.Name, wc.ChoiceKey(), opts.Choice, strings.Join(wc.ChoiceValues(), ", "))
			_ = formatter.Error("UNKNOWN_CHOICE", msg, nil)
			return NewExitError(ExitFailure, msg)
		}
		choices = []string{opts.Choice}
	}

	listings := make([]FormulaListing, 0, len(choices))
	for _, cv := range choices {
		listings = append(listings, FormulaListing{
			WorkcellID: wc.ID,
			Workcell:   wc.Name,
			ChoiceKey:  wc.ChoiceKey(),
			Choice:     cv,
			Allowed:    formulaIDs(rules.AllowedFormulas(wc, cv)),
			Defaults:   formulaIDs(rules.DefaultFormulas(wc, cv)),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(listings)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s (id=%d)\n", wc.Name, wc.ID)
	for _, l := range listings {
		fmt.Fprintf(w, "\n%s = %s\n", l.ChoiceKey, l.Choice)
		for _, id := range l.Allowed {
			f, _ := wc.Formula(id)
			marker := " "
			if slices.Contains(l.Defaults, id) {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %s: %s  [%s]\n", marker, f.ID, f.Label, f.Expr)
		}
		if len(l.Allowed) == 0 {
			fmt.Fprintln(w, "  (no formulas allowed)")
		}
	}
	return nil
}

// workcellDefinitions loads the definitions and checks that the
// --workcell id exists.
func workcellDefinitions(opts *WorkcellOptions, formatter *OutputFormatter, args []string) (model.Definitions, error) {
	dir, err := pathArg(formatter, args, 0, opts.project().Definitions, "definitions directory")
	if err != nil {
		return nil, err
	}
	defs, err := loadDefinitions(formatter, dir)
	if err != nil {
		return nil, err
	}
	if _, ok := defs[opts.WorkcellID]; !ok {
		msg := fmt.Sprintf("workcell %d is not defined", opts.WorkcellID)
		_ = formatter.Error("UNKNOWN_WORKCELL", msg, nil)
		return nil, NewExitError(ExitFailure, msg)
	}
	return defs, nil
}

func formulaIDs(fs []*model.Formula) []string {
	ids := make([]string, len(fs))
	for i, f := range fs {
		ids[i] = f.ID
	}
	return ids
}
