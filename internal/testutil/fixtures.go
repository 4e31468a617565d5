// Package testutil holds workcell fixtures and deterministic generators
// shared by package tests.
package testutil

import "github.com/Flexbotic/AppKalkulator-v2/internal/model"

// Fixture workcell ids.
const (
	MalowanieID = 9
	OcynkID     = 11
)

func ptr(v float64) *float64 { return &v }

// Ocynk mirrors workcells/ocynk.cue: a choice workcell whose two formulas
// are each gated to one galvanizing type.
func Ocynk() *model.Workcell {
	hot := []model.Rule{{ParamKey: "typ_ocynku", Equals: "OGNIOWY"}}
	galvanic := []model.Rule{{ParamKey: "typ_ocynku", Equals: "GALWANICZNY"}}
	return &model.Workcell{
		ID:          OcynkID,
		Name:        "Ocynk",
		Description: "Ocynk ogniowy lub galwaniczny",
		SourceFile:  "ocynk.cue",
		Choice: &model.ChoiceParam{
			Key:     "typ_ocynku",
			Label:   "Typ ocynku",
			Options: []string{"OGNIOWY", "GALWANICZNY"},
		},
		Formulas: []model.Formula{
			{
				ID:    "by_kg",
				Label: "Wycena (ogniowy) wg masy",
				Expr:  "kg * cena_kg",
				Params: []model.Param{
					model.UserNumber{Key: "kg", Label: "Masa [kg]", Unit: "kg", Min: ptr(0), Feeds: model.FeedsMass},
					model.CostNumber{Key: "cena_kg", Label: "Cena [zł/kg]", Unit: "zł/kg"},
				},
				EnabledWhen: hot,
				DefaultWhen: hot,
			},
			{
				ID:    "by_dm2",
				Label: "Wycena (galwaniczny) wg powierzchni",
				Expr:  "dm2 * cena_dm2",
				Params: []model.Param{
					model.UserNumber{Key: "dm2", Label: "Powierzchnia [dm²]", Unit: "dm2", Min: ptr(0), Feeds: model.FeedsArea},
					model.CostNumber{Key: "cena_dm2", Label: "Cena [zł/dm²]", Unit: "zł/dm2"},
				},
				EnabledWhen: galvanic,
				DefaultWhen: galvanic,
			},
		},
	}
}

// Malowanie mirrors workcells/malowanie.cue: a workcell without a choice
// whose price comes from a catalog table.
func Malowanie() *model.Workcell {
	return &model.Workcell{
		ID:          MalowanieID,
		Name:        "Malowanie",
		Description: "Malowanie proszkowe",
		SourceFile:  "malowanie.cue",
		Formulas: []model.Formula{
			{
				ID:    "by_dm2",
				Label: "Wycena wg powierzchni",
				Expr:  "dm2 * cena_dm2",
				Params: []model.Param{
					model.UserNumber{Key: "dm2", Label: "Powierzchnia", Unit: "dm2", Min: ptr(0), Feeds: model.FeedsArea},
					model.TablePick{Key: "cena_dm2", Label: "Cena", Unit: "zł/dm2", Table: "Rodzaje farby"},
				},
			},
		},
	}
}

// Definitions returns both fixture workcells.
func Definitions() model.Definitions {
	return model.Definitions{
		OcynkID:     Ocynk(),
		MalowanieID: Malowanie(),
	}
}
