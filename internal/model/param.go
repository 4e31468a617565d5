package model

import "encoding/json"

// Param is a sealed interface over the three formula parameter kinds.
// Only UserNumber, CostNumber and TablePick implement it, so a type switch
// over those three is exhaustive.
type Param interface {
	ParamKey() string
	ParamLabel() string
	ParamUnit() string
	Kind() ParamKind
	param() // Sealed
}

// ParamKind names a parameter variant.
type ParamKind string

const (
	KindUserNumber ParamKind = "user_number"
	KindCostNumber ParamKind = "cost_number"
	KindTablePick  ParamKind = "table_pick"
)

// Parameter sources as written in definition files.
const (
	SourceUser      = "user"
	SourceCostTable = "cost_table"
)

// Source returns where a parameter of this kind gets its value.
func (k ParamKind) Source() string {
	if k == KindUserNumber {
		return SourceUser
	}
	return SourceCostTable
}

// MaterialValue tags a user number that can be pre-filled from the
// materials attached to a quote line.
type MaterialValue string

const (
	FeedsNone MaterialValue = "none"
	FeedsMass MaterialValue = "mass"
	FeedsArea MaterialValue = "area"
)

// UserNumber is entered by the user at quote time.
// Min is advisory; the resolver never enforces it.
type UserNumber struct {
	Key   string        `json:"key"`
	Label string        `json:"label"`
	Unit  string        `json:"unit"`
	Min   *float64      `json:"min,omitempty"`
	Feeds MaterialValue `json:"feeds,omitempty"`
}

// CostNumber is a flat number taken from the cost table, scoped by
// (workcell, choice, formula).
type CostNumber struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Unit  string `json:"unit"`
}

// TablePick is looked up by a user-chosen item name inside the named
// catalog table, scoped by (workcell, choice, formula).
type TablePick struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Unit  string `json:"unit"`
	Table string `json:"table"`
}

func (p UserNumber) ParamKey() string   { return p.Key }
func (p UserNumber) ParamLabel() string { return p.Label }
func (p UserNumber) ParamUnit() string  { return p.Unit }
func (UserNumber) Kind() ParamKind      { return KindUserNumber }
func (UserNumber) param()               {}

func (p CostNumber) ParamKey() string   { return p.Key }
func (p CostNumber) ParamLabel() string { return p.Label }
func (p CostNumber) ParamUnit() string  { return p.Unit }
func (CostNumber) Kind() ParamKind      { return KindCostNumber }
func (CostNumber) param()               {}

func (p TablePick) ParamKey() string   { return p.Key }
func (p TablePick) ParamLabel() string { return p.Label }
func (p TablePick) ParamUnit() string  { return p.Unit }
func (TablePick) Kind() ParamKind      { return KindTablePick }
func (TablePick) param()               {}

// MarshalJSON adds the kind and source discriminators.
func (p UserNumber) MarshalJSON() ([]byte, error) {
	type plain UserNumber
	return json.Marshal(struct {
		Kind   ParamKind `json:"kind"`
		Source string    `json:"source"`
		plain
	}{KindUserNumber, SourceUser, plain(p)})
}

// MarshalJSON adds the kind and source discriminators.
func (p CostNumber) MarshalJSON() ([]byte, error) {
	type plain CostNumber
	return json.Marshal(struct {
		Kind   ParamKind `json:"kind"`
		Source string    `json:"source"`
		plain
	}{KindCostNumber, SourceCostTable, plain(p)})
}

// MarshalJSON adds the kind and source discriminators.
func (p TablePick) MarshalJSON() ([]byte, error) {
	type plain TablePick
	return json.Marshal(struct {
		Kind   ParamKind `json:"kind"`
		Source string    `json:"source"`
		plain
	}{KindTablePick, SourceCostTable, plain(p)})
}
