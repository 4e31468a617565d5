package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Flexbotic/AppKalkulator-v2/internal/costtable"
	"github.com/Flexbotic/AppKalkulator-v2/internal/grid"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
)

// BuildCostIndex generates the cost-table template for defs, writes costs
// into it, round-trips it through xlsx and decodes it. The result is what
// a user would get after filling the template by hand.
func BuildCostIndex(defs model.Definitions, costs Costs) (*model.CostIndex, error) {
	doc, err := costtable.GenerateTemplate(defs)
	if err != nil {
		return nil, err
	}
	if err := FillCosts(doc, defs, costs); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.WriteXLSX(&buf); err != nil {
		return nil, err
	}
	doc, err = grid.ReadXLSX(&buf)
	if err != nil {
		return nil, err
	}
	return costtable.LoadCostIndex(doc, defs)
}

// FillCosts writes cost values into a generated template.
func FillCosts(doc *grid.Document, defs model.Definitions, costs Costs) error {
	for i, n := range costs.Numbers {
		if err := fillNumber(doc, defs, n); err != nil {
			return fmt.Errorf("costs.numbers[%d]: %w", i, err)
		}
	}
	for i, item := range costs.Tables {
		if err := fillTableItem(doc, defs, item); err != nil {
			return fmt.Errorf("costs.tables[%d]: %w", i, err)
		}
	}
	return nil
}

func lookup(defs model.Definitions, workcell int, formula string) (*model.Workcell, *model.Formula, error) {
	wc, ok := defs[workcell]
	if !ok {
		return nil, nil, fmt.Errorf("workcell %d is not defined", workcell)
	}
	f, ok := wc.Formula(formula)
	if !ok {
		return nil, nil, fmt.Errorf("workcell %s has no formula %q", wc.Name, formula)
	}
	return wc, f, nil
}

func choiceOrDefault(choice string) string {
	if choice == "" {
		return model.DefaultChoice
	}
	return choice
}

// fillNumber finds the key row under the (choice, formula) heading of the
// workcell's flat-cost sheet.
func fillNumber(doc *grid.Document, defs model.Definitions, n CostNumber) error {
	wc, f, err := lookup(defs, n.Workcell, n.Formula)
	if err != nil {
		return err
	}
	name := costtable.WorkcellSheetName(wc.Name)
	sheet, ok := doc.Sheet(name)
	if !ok {
		return fmt.Errorf("template has no sheet %q", name)
	}

	section := costtable.ChoiceSection(wc.ChoiceKey(), choiceOrDefault(n.Choice))
	heading := costtable.FormulaHeading(f)
	sectionPrefix := costtable.ChoiceSection(wc.ChoiceKey(), "")
	inSection, inFormula := false, false
	for r := range sheet.Rows {
		first := sheet.Cell(r, 0).String()
		switch {
		case strings.HasPrefix(first, sectionPrefix):
			inSection, inFormula = first == section, false
		case strings.HasPrefix(first, "Formula:"):
			inFormula = inSection && first == heading
		case inFormula && first == n.Key:
			sheet.Set(r, costtable.ValueColumn, grid.Num(n.Value))
			return nil
		}
	}
	return fmt.Errorf("sheet %q has no row %s under %q / %q", name, n.Key, section, heading)
}

// fillTableItem appends an item row to the (choice, formula) block of the
// parameter's table sheet, inserting a row once the placeholders run out.
func fillTableItem(doc *grid.Document, defs model.Definitions, item TableItem) error {
	wc, f, err := lookup(defs, item.Workcell, item.Formula)
	if err != nil {
		return err
	}
	name := costtable.TableSheetName(wc.Name, item.Key)
	sheet, ok := doc.Sheet(name)
	if !ok {
		return fmt.Errorf("template has no sheet %q", name)
	}

	title := costtable.BlockTitle(wc.ChoiceKey(), choiceOrDefault(item.Choice), f)
	for r := range sheet.Rows {
		if sheet.Cell(r, 0).String() != title {
			continue
		}
		at := r + 2
		for !sheet.Cell(at, 0).IsBlank() {
			at++
		}
		cells := []grid.Cell{grid.Str(item.Item), grid.Num(item.Value)}
		if at+1 < len(sheet.Rows) && sheet.Cell(at+1, 0).IsBlank() {
			sheet.Set(at, 0, cells[0])
			sheet.Set(at, 1, cells[1])
		} else {
			sheet.InsertRow(at, grid.StylePlain, cells...)
		}
		return nil
	}
	return fmt.Errorf("sheet %q has no block %q", name, title)
}
