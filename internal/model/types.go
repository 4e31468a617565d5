package model

// DefaultChoice is both the choice key and the single choice value used
// for workcells that declare no choice parameter.
const DefaultChoice = "DEFAULT"

// Workcell represents a priceable manufacturing operation.
// SourceFile names the definition file the workcell was declared in;
// Formulas keep declaration order.
type Workcell struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	SourceFile  string       `json:"source_file"`
	Choice      *ChoiceParam `json:"choice,omitempty"`
	Formulas    []Formula    `json:"formulas"`
}

// ChoiceParam is the single-select workcell-level option that gates formulas.
type ChoiceParam struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
}

// Formula is one pricing method of a workcell.
type Formula struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Expr        string  `json:"expr"`
	Params      []Param `json:"params"`
	EnabledWhen []Rule  `json:"enabled_when"`
	DefaultWhen []Rule  `json:"default_when"`
}

// Rule is a single equality test against a parameter value.
type Rule struct {
	ParamKey string `json:"param"`
	Equals   string `json:"equals"`
}

// ChoiceKey returns the workcell's choice key, or DefaultChoice when the
// workcell has no choice parameter.
func (w *Workcell) ChoiceKey() string {
	if w.Choice == nil {
		return DefaultChoice
	}
	return w.Choice.Key
}

// ChoiceValues returns the ordered choice options, or [DefaultChoice] when
// the workcell has no choice parameter.
func (w *Workcell) ChoiceValues() []string {
	if w.Choice == nil {
		return []string{DefaultChoice}
	}
	return append([]string(nil), w.Choice.Options...)
}

// HasChoiceValue reports whether v is a legal choice value for the workcell.
func (w *Workcell) HasChoiceValue(v string) bool {
	for _, cv := range w.ChoiceValues() {
		if cv == v {
			return true
		}
	}
	return false
}

// Formula returns the formula with the given id.
func (w *Workcell) Formula(id string) (*Formula, bool) {
	for i := range w.Formulas {
		if w.Formulas[i].ID == id {
			return &w.Formulas[i], true
		}
	}
	return nil, false
}

// Param returns the parameter with the given key.
func (f *Formula) Param(key string) (Param, bool) {
	for _, p := range f.Params {
		if p.ParamKey() == key {
			return p, true
		}
	}
	return nil, false
}

// CostNumbers returns the formula's CostNumber parameters in declaration order.
func (f *Formula) CostNumbers() []CostNumber {
	var out []CostNumber
	for _, p := range f.Params {
		if c, ok := p.(CostNumber); ok {
			out = append(out, c)
		}
	}
	return out
}

// TablePicks returns the formula's TablePick parameters in declaration order.
func (f *Formula) TablePicks() []TablePick {
	var out []TablePick
	for _, p := range f.Params {
		if t, ok := p.(TablePick); ok {
			out = append(out, t)
		}
	}
	return out
}
