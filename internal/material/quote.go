package material

import "fmt"

// QuoteMaterial is a catalog material attached to a quote item, with its
// mass and outer surface for one piece.
type QuoteMaterial struct {
	ItemID     int      `json:"item_id"`
	MaterialID int      `json:"material_id"`
	LengthMM   *float64 `json:"length_mm,omitempty"`
	WeightKg   *float64 `json:"weight_kg,omitempty"`
	AreaDm2    float64  `json:"area_dm2"`
	MassKg     float64  `json:"mass_kg"`
	Qty        int      `json:"qty"`
}

// NewQuoteMaterial attaches m to quote item itemID. Profiles and tubes are
// measured by length, plates by weight. A zero qty means one piece.
func NewQuoteMaterial(itemID int, m Material, lengthMM, weightKg *float64, qty int) (QuoteMaterial, error) {
	if lengthMM == nil && weightKg == nil {
		return QuoteMaterial{}, fmt.Errorf("material %d: length_mm or weight_kg is required", m.ID)
	}
	if qty <= 0 {
		qty = 1
	}

	q := QuoteMaterial{ItemID: itemID, MaterialID: m.ID, LengthMM: lengthMM, WeightKg: weightKg, Qty: qty}
	var err error
	switch normType(m.Type) {
	case TypeProfile, TypeTube:
		if lengthMM == nil {
			return QuoteMaterial{}, fmt.Errorf("material %d: %s requires length_mm", m.ID, m.Type)
		}
		lengthM := *lengthMM / 1000
		if q.MassKg, err = LengthToKg(m.Type, m.Size, m.Density, lengthM); err != nil {
			return QuoteMaterial{}, fmt.Errorf("material %d: %w", m.ID, err)
		}
		if q.AreaDm2, err = LengthToDm2(m.Type, m.Size, lengthM); err != nil {
			return QuoteMaterial{}, fmt.Errorf("material %d: %w", m.ID, err)
		}
	case TypeSheet:
		if weightKg == nil {
			return QuoteMaterial{}, fmt.Errorf("material %d: %s requires weight_kg", m.ID, m.Type)
		}
		q.MassKg = round2(*weightKg)
		if q.AreaDm2, err = SheetKgToDm2(m.Size, m.Density, *weightKg); err != nil {
			return QuoteMaterial{}, fmt.Errorf("material %d: %w", m.ID, err)
		}
	default:
		return QuoteMaterial{}, fmt.Errorf("material %d: unsupported material type %q", m.ID, m.Type)
	}
	return q, nil
}
