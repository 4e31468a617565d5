// Package rules decides which formulas of a workcell are allowed, and
// which are pre-selected, for a given choice value.
//
// Gating is single-axis: only rules whose param key equals the workcell's
// choice key (or "DEFAULT" for workcells without a choice) are ever
// evaluated. Rules on any other key are carried in the model but have no
// effect.
package rules

import "github.com/Flexbotic/AppKalkulator-v2/internal/model"

// IsFormulaAllowed reports whether formula f may be used when the workcell's
// choice key has the given value.
//
// The match is determined by:
//  1. No enabled_when rules: always allowed.
//  2. choiceKey is "DEFAULT": allowed unless some rule is keyed on "DEFAULT",
//     because there is no choice that could satisfy it.
//  3. Otherwise: if any rule is keyed on choiceKey, at least one of those
//     rules must equal choiceValue. Formulas with no rule on choiceKey are
//     allowed for every choice value.
func IsFormulaAllowed(f *model.Formula, choiceKey, choiceValue string) bool {
	return matches(f.EnabledWhen, choiceKey, choiceValue)
}

// IsFormulaDefault reports whether formula f matches its default_when rules
// under the given choice, using the same logic as IsFormulaAllowed.
func IsFormulaDefault(f *model.Formula, choiceKey, choiceValue string) bool {
	return matches(f.DefaultWhen, choiceKey, choiceValue)
}

func matches(rules []model.Rule, choiceKey, choiceValue string) bool {
	if len(rules) == 0 {
		return true
	}

	if choiceKey == model.DefaultChoice {
		for _, r := range rules {
			if r.ParamKey == model.DefaultChoice {
				return false
			}
		}
		return true
	}

	gated := false
	for _, r := range rules {
		if r.ParamKey != choiceKey {
			continue
		}
		gated = true
		if r.Equals == choiceValue {
			return true
		}
	}
	return !gated
}

// AllowedFormulas returns the formulas of wc allowed under choiceValue, in
// declaration order.
func AllowedFormulas(wc *model.Workcell, choiceValue string) []*model.Formula {
	key := wc.ChoiceKey()
	var out []*model.Formula
	for i := range wc.Formulas {
		if IsFormulaAllowed(&wc.Formulas[i], key, choiceValue) {
			out = append(out, &wc.Formulas[i])
		}
	}
	return out
}

// DefaultFormulas returns every allowed formula whose default_when rules
// match choiceValue. The caller gets the full match set: zero or several
// matches are an ambiguity for the caller to resolve, never an arbitrary
// pick.
func DefaultFormulas(wc *model.Workcell, choiceValue string) []*model.Formula {
	key := wc.ChoiceKey()
	var out []*model.Formula
	for _, f := range AllowedFormulas(wc, choiceValue) {
		if IsFormulaDefault(f, key, choiceValue) {
			out = append(out, f)
		}
	}
	return out
}

// Combination is one allowed (choice value, formula) pair of a workcell.
type Combination struct {
	Choice  string
	Formula *model.Formula
}

// Combinations enumerates every allowed (choice value, formula) pair of wc,
// choice values in option order and formulas in declaration order.
func Combinations(wc *model.Workcell) []Combination {
	var out []Combination
	for _, cv := range wc.ChoiceValues() {
		for _, f := range AllowedFormulas(wc, cv) {
			out = append(out, Combination{Choice: cv, Formula: f})
		}
	}
	return out
}
