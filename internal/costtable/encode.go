package costtable

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Flexbotic/AppKalkulator-v2/internal/grid"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/rules"
)

// DefaultPlaceholderRows is the number of blank item rows per table block.
const DefaultPlaceholderRows = 20

// ValueColumn is the 0-based column holding flat-cost values.
const ValueColumn = 3

// Column headers of the INDEX sheet and of flat-cost tables.
var (
	indexHeader  = []string{"workcell_id", "name", "source_file"}
	numberHeader = []string{"param_key", "label", "unit", "value"}
)

// Options configures the encoder.
type Options struct {
	// PlaceholderRows is the number of blank rows per table-pick block.
	// Zero means DefaultPlaceholderRows.
	PlaceholderRows int
}

// GenerateTemplate emits the empty cost-table document for defs with the
// default options.
func GenerateTemplate(defs model.Definitions) (*grid.Document, error) {
	return Encode(defs, Options{})
}

// Encode emits the empty cost-table document for defs: the INDEX sheet, a
// flat-cost sheet per workcell that has reachable CostNumber parameters and
// a sheet per reachable table-pick parameter.
func Encode(defs model.Definitions, opts Options) (*grid.Document, error) {
	placeholders := opts.PlaceholderRows
	if placeholders <= 0 {
		placeholders = DefaultPlaceholderRows
	}

	doc := grid.New()
	for _, ref := range PlanSheets(defs) {
		sheet, err := doc.AddSheet(ref.Name)
		if err != nil {
			return nil, fmt.Errorf("encode cost table: %w", err)
		}
		switch {
		case ref.Workcell == nil:
			writeIndex(sheet, defs)
		case ref.IsTable():
			writeTableSheet(sheet, ref.Workcell, ref.ParamKey, placeholders)
		default:
			writeWorkcellSheet(sheet, ref.Workcell)
		}
	}

	slog.Debug("encoded cost table", "workcells", len(defs), "sheets", len(doc.Sheets))
	return doc, nil
}

func writeIndex(sheet *grid.Sheet, defs model.Definitions) {
	sheet.AppendText(grid.StyleHeader, indexHeader...)
	for _, wc := range defs.Sorted() {
		sheet.Append(grid.StylePlain, grid.Num(float64(wc.ID)), grid.Str(wc.Name), textCell(wc.SourceFile))
	}
}

func writeWorkcellSheet(sheet *grid.Sheet, wc *model.Workcell) {
	title := sheet.AppendText(grid.StyleTitle, WorkcellTitle(wc))
	sheet.MergeCells(title, 0, len(numberHeader))
	sheet.AppendBlank(1)

	key := wc.ChoiceKey()
	for _, cv := range wc.ChoiceValues() {
		section := sheet.AppendText(grid.StyleSection, ChoiceSection(key, cv))
		sheet.MergeCells(section, 0, len(numberHeader))

		for _, f := range rules.AllowedFormulas(wc, cv) {
			numbers := f.CostNumbers()
			if len(numbers) == 0 {
				continue
			}
			sheet.AppendText(grid.StyleBold, FormulaHeading(f))
			sheet.AppendText(grid.StyleHeader, numberHeader...)
			for _, p := range numbers {
				sheet.AppendText(grid.StylePlain, p.Key, p.Label, p.Unit, "")
			}
			sheet.AppendBlank(1)
		}
		sheet.AppendBlank(1)
	}
}

func writeTableSheet(sheet *grid.Sheet, wc *model.Workcell, paramKey string, placeholders int) {
	titled := false
	for _, c := range rules.Combinations(wc) {
		tp, ok := tablePick(c.Formula, paramKey)
		if !ok {
			continue
		}
		if !titled {
			title := sheet.AppendText(grid.StyleTitle, wc.Name+" / "+tp.Table)
			sheet.MergeCells(title, 0, 1)
			sheet.AppendBlank(1)
			titled = true
		}

		block := sheet.AppendText(grid.StyleSection, BlockTitle(wc.ChoiceKey(), c.Choice, c.Formula))
		sheet.MergeCells(block, 0, 1)
		sheet.AppendText(grid.StyleHeader, tp.Table, strings.TrimSpace(tp.Label+" "+tp.Unit))
		sheet.AppendBlank(placeholders)
		sheet.AppendBlank(1)
	}
}

// WorkcellTitle is the first row of a flat-cost sheet.
func WorkcellTitle(wc *model.Workcell) string {
	return fmt.Sprintf("%s (id=%d)", wc.Name, wc.ID)
}

// ChoiceSection opens the rows of one choice value on a flat-cost sheet.
func ChoiceSection(choiceKey, choiceValue string) string {
	return choiceKey + " = " + choiceValue
}

// FormulaHeading opens the flat-cost table of one formula.
func FormulaHeading(f *model.Formula) string {
	return fmt.Sprintf("Formula: %s - %s", f.ID, f.Label)
}

// BlockTitle opens one (choice, formula) block on a table-pick sheet.
func BlockTitle(choiceKey, choiceValue string, f *model.Formula) string {
	return fmt.Sprintf("%s=%s | formula=%s (%s)", choiceKey, choiceValue, f.ID, f.Label)
}

func tablePick(f *model.Formula, key string) (model.TablePick, bool) {
	p, ok := f.Param(key)
	if !ok {
		return model.TablePick{}, false
	}
	tp, ok := p.(model.TablePick)
	return tp, ok
}

func textCell(s string) grid.Cell {
	if s == "" {
		return grid.Cell{}
	}
	return grid.Str(s)
}
