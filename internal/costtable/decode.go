package costtable

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Flexbotic/AppKalkulator-v2/internal/grid"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/rules"
)

// LoadCostIndex decodes a filled-in cost-table document against defs.
//
// The INDEX sheet is mandatory and maps workcell names to ids. Every other
// sheet is matched by name against the sheets the encoder plans for the
// listed workcells; an unmatched sheet with the "WC_" prefix is a renamed
// sheet, any other is ignored. Decoding never defaults a value:
// every CostNumber reachable through an allowed (choice, formula) pair
// must be filled and every reachable table-pick block must list at least
// one item, otherwise a MISSING_COST_VALUE error lists all gaps.
func LoadCostIndex(doc *grid.Document, defs model.Definitions) (*model.CostIndex, error) {
	d := &decoder{defs: defs, idx: model.NewCostIndex()}
	if err := d.readIndex(doc); err != nil {
		return nil, err
	}

	for _, sheet := range doc.Sheets {
		key := SheetKey(sheet.Name)
		if key == IndexSheet {
			continue
		}
		ref, planned := d.sheets[key]
		var err error
		switch {
		case d.ambiguous[key]:
			err = &Error{Code: ErrCodeDocumentStructure, Message: "sheet name is shared by more than one workcell listed in INDEX", Sheet: sheet.Name}
		case planned && ref.IsTable():
			err = d.decodeTableSheet(sheet, ref.Workcell, ref.ParamKey)
		case planned:
			err = d.decodeWorkcellSheet(sheet, ref.Workcell)
		case strings.HasPrefix(key, tablePrefix):
			err = &Error{Code: ErrCodeDocumentStructure, Message: "sheet does not match any workcell or table parameter listed in INDEX", Sheet: sheet.Name}
		default:
			slog.Debug("ignoring sheet", "sheet", sheet.Name)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := d.checkComplete(); err != nil {
		return nil, err
	}

	slog.Debug("decoded cost table", "workcells", len(d.listed), "sheets", len(doc.Sheets))
	return d.idx, nil
}

type decoder struct {
	defs model.Definitions
	idx  *model.CostIndex

	// listed holds the workcells named in INDEX.
	listed model.Definitions

	// sheets maps the folded name of every sheet planned for the listed
	// workcells to its owner. Names planned twice are in ambiguous.
	sheets    map[string]SheetRef
	ambiguous map[string]bool
}

func (d *decoder) readIndex(doc *grid.Document) error {
	sheet, ok := doc.Lookup(IndexSheet)
	if !ok {
		return &Error{Code: ErrCodeDocumentStructure, Message: "document has no INDEX sheet"}
	}
	if !sameText(cellText(sheet.Cell(0, 0)), indexHeader[0]) {
		return &Error{
			Code:    ErrCodeDocumentStructure,
			Message: fmt.Sprintf("INDEX header must start with %q", indexHeader[0]),
			Sheet:   sheet.Name,
			Row:     1,
		}
	}

	d.listed = make(model.Definitions)
	for r := 1; r < len(sheet.Rows); r++ {
		idCell := sheet.Cell(r, 0)
		if idCell.IsBlank() {
			continue
		}
		fail := func(format string, args ...any) error {
			return &Error{Code: ErrCodeDocumentStructure, Message: fmt.Sprintf(format, args...), Sheet: sheet.Name, Row: r + 1}
		}

		v, err := ParseNumber(idCell)
		if err != nil || v != math.Trunc(v) {
			return fail("workcell_id %q is not an integer", idCell.String())
		}
		id := int(v)
		name := cellText(sheet.Cell(r, 1))

		wc, ok := d.defs[id]
		if !ok {
			return fail("workcell id=%d (%s) is not defined", id, name)
		}
		if !sameText(name, wc.Name) {
			return fail("workcell id=%d is named %q but defined as %q", id, name, wc.Name)
		}
		d.listed[wc.ID] = wc
	}

	d.sheets = make(map[string]SheetRef)
	d.ambiguous = make(map[string]bool)
	for _, ref := range PlanSheets(d.listed)[1:] {
		key := SheetKey(ref.Name)
		if _, ok := d.sheets[key]; ok {
			d.ambiguous[key] = true
		}
		d.sheets[key] = ref
	}
	return nil
}

// decodeWorkcellSheet reads "<key> = <value>" sections, "Formula: <id> - ..."
// headings and the param_key/value tables beneath them.
func (d *decoder) decodeWorkcellSheet(sheet *grid.Sheet, wc *model.Workcell) error {
	choiceKey := wc.ChoiceKey()
	var (
		choice  string
		formula *model.Formula
	)
	errAt := func(code ErrorCode, row int, key, format string, args ...any) error {
		fid := ""
		if formula != nil {
			fid = formula.ID
		}
		return &Error{
			Code:       code,
			Message:    fmt.Sprintf(format, args...),
			Sheet:      sheet.Name,
			Row:        row + 1,
			WorkcellID: wc.ID,
			Workcell:   wc.Name,
			Choice:     choice,
			Formula:    fid,
			Key:        key,
		}
	}

	for r := 0; r < len(sheet.Rows); r++ {
		first := cellText(sheet.Cell(r, 0))

		if value, ok := parseChoiceSection(first, choiceKey); ok {
			if !wc.HasChoiceValue(value) {
				return errAt(ErrCodeUnknownChoice, r, "", "%q is not an option of %s (expected one of %s)",
					value, choiceKey, strings.Join(wc.ChoiceValues(), ", "))
			}
			choice, formula = value, nil
			continue
		}

		if id, ok := parseFormulaHeading(first); ok {
			if choice == "" {
				return errAt(ErrCodeDocumentStructure, r, "", "formula heading %q appears before any %s section", first, choiceKey)
			}
			f, ok := wc.Formula(id)
			if !ok {
				return errAt(ErrCodeDocumentStructure, r, "", "unknown formula %q", id)
			}
			if !rules.IsFormulaAllowed(f, choiceKey, choice) {
				return errAt(ErrCodeDocumentStructure, r, "", "formula %q is not allowed for %s = %s", id, choiceKey, choice)
			}
			formula = f
			continue
		}

		if !isNumberHeader(sheet, r) {
			continue
		}
		if formula == nil {
			return errAt(ErrCodeDocumentStructure, r, "", "value table without a preceding formula heading")
		}

		r++
		for ; r < len(sheet.Rows); r++ {
			key := cellText(sheet.Cell(r, 0))
			if key == "" {
				break
			}
			p, ok := formula.Param(key)
			if !ok || p.Kind() != model.KindCostNumber {
				return errAt(ErrCodeDocumentStructure, r, key, "%q is not a cost parameter of the formula", key)
			}
			v, err := ParseNumber(sheet.Cell(r, ValueColumn))
			if errors.Is(err, ErrBlankValue) {
				return errAt(ErrCodeMissingCostValue, r, key, "value is blank")
			}
			if err != nil {
				return errAt(ErrCodeValueParse, r, key, "%v", err)
			}
			d.idx.SetNumber(wc.ID, choice, formula.ID, key, v)
		}
	}
	return nil
}

// decodeTableSheet reads the "<key>=<value> | formula=<id> (...)" blocks of
// a table-pick sheet. Each block is a header row followed by item/value
// rows up to the first blank item name.
func (d *decoder) decodeTableSheet(sheet *grid.Sheet, wc *model.Workcell, paramKey string) error {
	choiceKey := wc.ChoiceKey()
	for r := 0; r < len(sheet.Rows); r++ {
		first := cellText(sheet.Cell(r, 0))
		if !strings.Contains(first, "|") || !strings.Contains(first, "formula=") {
			continue
		}

		fail := func(code ErrorCode, row int, choice, formula, format string, args ...any) error {
			return &Error{
				Code:       code,
				Message:    fmt.Sprintf(format, args...),
				Sheet:      sheet.Name,
				Row:        row + 1,
				WorkcellID: wc.ID,
				Workcell:   wc.Name,
				Choice:     choice,
				Formula:    formula,
				Key:        paramKey,
			}
		}

		key, choice, formulaID, ok := parseBlockTitle(first)
		if !ok {
			return fail(ErrCodeDocumentStructure, r, "", "", "malformed block title %q", first)
		}
		if key != choiceKey {
			return fail(ErrCodeDocumentStructure, r, choice, formulaID, "block is keyed on %q, workcell choice key is %q", key, choiceKey)
		}
		if !wc.HasChoiceValue(choice) {
			return fail(ErrCodeUnknownChoice, r, choice, formulaID, "%q is not an option of %s (expected one of %s)",
				choice, choiceKey, strings.Join(wc.ChoiceValues(), ", "))
		}
		f, ok := wc.Formula(formulaID)
		if !ok {
			return fail(ErrCodeDocumentStructure, r, choice, formulaID, "unknown formula %q", formulaID)
		}
		if !rules.IsFormulaAllowed(f, choiceKey, choice) {
			return fail(ErrCodeDocumentStructure, r, choice, formulaID, "formula %q is not allowed for %s=%s", formulaID, choiceKey, choice)
		}
		tp, ok := tablePick(f, paramKey)
		if !ok {
			return fail(ErrCodeDocumentStructure, r, choice, formulaID, "formula has no table parameter %q", paramKey)
		}

		r++
		if table := cellText(sheet.Cell(r, 0)); !sameText(table, tp.Table) {
			return fail(ErrCodeUnknownTable, r, choice, formulaID, "table %q is not declared, expected %q", table, tp.Table)
		}
		d.idx.EnsureTable(wc.ID, choice, f.ID, paramKey)

		r++
		for ; r < len(sheet.Rows); r++ {
			item := cellText(sheet.Cell(r, 0))
			if item == "" {
				break
			}
			v, err := ParseNumber(sheet.Cell(r, 1))
			if errors.Is(err, ErrBlankValue) {
				return fail(ErrCodeMissingCostValue, r, choice, formulaID, "item %q has no value", item)
			}
			if err != nil {
				return fail(ErrCodeValueParse, r, choice, formulaID, "item %q: %v", item, err)
			}
			d.idx.SetTableValue(wc.ID, choice, f.ID, paramKey, item, v)
		}
	}
	return nil
}

// checkComplete lists every reachable value the document left out.
func (d *decoder) checkComplete() error {
	var missing []string
	for _, wc := range d.defs.Sorted() {
		for _, c := range rules.Combinations(wc) {
			scope := fmt.Sprintf("%s/%s/%s/", wc.Name, c.Choice, c.Formula.ID)
			for _, p := range c.Formula.CostNumbers() {
				if _, ok := d.idx.Number(wc.ID, c.Choice, c.Formula.ID, p.Key); !ok {
					missing = append(missing, scope+p.Key)
				}
			}
			for _, tp := range c.Formula.TablePicks() {
				if len(d.idx.TableItems(wc.ID, c.Choice, c.Formula.ID, tp.Key)) == 0 {
					missing = append(missing, scope+tp.Key+" (table "+tp.Table+")")
				}
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &Error{
		Code:    ErrCodeMissingCostValue,
		Message: fmt.Sprintf("%d cost value(s) missing: %s", len(missing), strings.Join(missing, ", ")),
		Missing: missing,
	}
}

func parseChoiceSection(s, choiceKey string) (string, bool) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || strings.Contains(s, "|") || strings.TrimSpace(key) != choiceKey {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func parseFormulaHeading(s string) (string, bool) {
	rest, ok := strings.CutPrefix(s, "Formula:")
	if !ok {
		return "", false
	}
	id, _, _ := strings.Cut(rest, " - ")
	id = strings.TrimSpace(id)
	return id, id != ""
}

func isNumberHeader(sheet *grid.Sheet, row int) bool {
	return cellText(sheet.Cell(row, 0)) == numberHeader[0] &&
		cellText(sheet.Cell(row, ValueColumn)) == numberHeader[len(numberHeader)-1]
}

// parseBlockTitle splits "<key>=<value> | formula=<id> (<label>)". The id
// ends at the first space or parenthesis.
func parseBlockTitle(s string) (key, value, formulaID string, ok bool) {
	left, right, found := strings.Cut(s, "|")
	if !found {
		return "", "", "", false
	}
	key, value, found = strings.Cut(left, "=")
	if !found {
		return "", "", "", false
	}
	_, rest, found := strings.Cut(right, "formula=")
	if !found {
		return "", "", "", false
	}
	rest = strings.TrimSpace(rest)
	if i := strings.IndexAny(rest, " ("); i >= 0 {
		rest = rest[:i]
	}
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key == "" || value == "" || rest == "" {
		return "", "", "", false
	}
	return key, value, rest, true
}
