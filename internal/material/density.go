package material

import (
	"fmt"
	"strings"
)

// Densities in kg/m³.
const (
	DensitySteel     = 7850.0
	DensityStainless = 8000.0
	DensityAluminium = 2700.0
)

var gradeDensity = map[string]float64{}

func init() {
	for density, grades := range map[float64][]string{
		DensitySteel: {
			"S235",
			"S355",
			"DC01",
			"E235 SZEW NA WĄSKIEJ",
			"S235 B/SZW",
			"E235 B/SZW",
			"E355 B/SZW",
			"DD11/S235 TRAWIONA OLIWIONA",
			"S420MC",
			"S235 OCYNK",
		},
		DensityStainless: {"1.4404", "1.4301", "1.4307 / 304L"},
		DensityAluminium: {"ALU 5754", "ALU 6060"},
	} {
		for _, g := range grades {
			gradeDensity[g] = density
		}
	}
}

// DensityOf returns the density of a material grade. Grades are matched
// after trimming and upper-casing.
func DensityOf(grade string) (float64, error) {
	d, ok := gradeDensity[strings.ToUpper(strings.TrimSpace(grade))]
	if !ok {
		return 0, fmt.Errorf("unknown density for grade %q", grade)
	}
	return d, nil
}
