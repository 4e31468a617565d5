package costtable

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/rules"
)

const (
	// IndexSheet is the mandatory sheet mapping workcell names to ids.
	IndexSheet = "INDEX"

	// MaxSheetNameLen is the xlsx limit on sheet name length, in runes.
	MaxSheetNameLen = 31

	workcellPrefix = "WC__"
	tablePrefix    = "WC_"
)

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

var upper = cases.Upper(language.Und)

// SanitizeSheetName replaces characters xlsx forbids in sheet names and
// truncates to MaxSheetNameLen runes.
func SanitizeSheetName(name string) string {
	s := sheetNameReplacer.Replace(norm.NFC.String(name))
	if utf8.RuneCountInString(s) <= MaxSheetNameLen {
		return s
	}
	r := []rune(s)
	return string(r[:MaxSheetNameLen])
}

// SheetKey folds a sheet name for comparison. Spreadsheet applications
// treat sheet names case-insensitively.
func SheetKey(name string) string {
	return upper.String(norm.NFC.String(strings.TrimSpace(name)))
}

// WorkcellSheetName returns the sheet holding a workcell's flat costs.
func WorkcellSheetName(workcell string) string {
	return SanitizeSheetName(workcellPrefix + workcell)
}

// TableSheetName returns the sheet holding a table-pick parameter's items.
func TableSheetName(workcell, paramKey string) string {
	return SanitizeSheetName(tablePrefix + workcell + "_" + paramKey)
}

// SheetRef describes one sheet of the cost-table document.
type SheetRef struct {
	Name     string
	Workcell *model.Workcell

	// ParamKey is set for table-pick sheets.
	ParamKey string
}

// IsTable reports whether the sheet holds table-pick items.
func (s SheetRef) IsTable() bool { return s.ParamKey != "" }

// PlanSheets lists the sheets the encoder emits for defs, in document
// order: INDEX first, then per workcell (by id) its flat-cost sheet followed
// by one sheet per table-pick key in the order the keys are first reached.
// Sheets that would hold nothing are omitted.
func PlanSheets(defs model.Definitions) []SheetRef {
	plan := []SheetRef{{Name: IndexSheet}}
	for _, wc := range defs.Sorted() {
		if hasReachableCostNumbers(wc) {
			plan = append(plan, SheetRef{Name: WorkcellSheetName(wc.Name), Workcell: wc})
		}
		for _, key := range reachableTableKeys(wc) {
			plan = append(plan, SheetRef{Name: TableSheetName(wc.Name, key), Workcell: wc, ParamKey: key})
		}
	}
	return plan
}

func hasReachableCostNumbers(wc *model.Workcell) bool {
	for _, c := range rules.Combinations(wc) {
		if len(c.Formula.CostNumbers()) > 0 {
			return true
		}
	}
	return false
}

func reachableTableKeys(wc *model.Workcell) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, c := range rules.Combinations(wc) {
		for _, tp := range c.Formula.TablePicks() {
			if !seen[tp.Key] {
				seen[tp.Key] = true
				keys = append(keys, tp.Key)
			}
		}
	}
	return keys
}
