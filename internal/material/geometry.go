package material

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Material types.
const (
	TypeProfile = "PROFIL" // rectangular hollow section, "width x height x wall"
	TypeTube    = "RURA"   // round tube, "diameter x wall"
	TypeSheet   = "BLACHA" // plate, "width x length x thickness"
)

// SplitDims parses a size such as "40x20x2" or "33,7 x 2" into millimetres.
func SplitDims(size string) ([]float64, error) {
	s := strings.ReplaceAll(strings.ToLower(size), " ", "")
	var dims []float64
	for _, part := range strings.Split(s, "x") {
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(part, ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("size %q: %q is not a number", size, part)
		}
		dims = append(dims, v)
	}
	return dims, nil
}

// ProfileArea returns the cross-section of a rectangular hollow section in
// mm². The wall must fit twice into both sides.
func ProfileArea(width, height, wall float64) (float64, error) {
	if width <= 0 || height <= 0 || wall <= 0 {
		return 0, fmt.Errorf("%s: dimensions must be positive", TypeProfile)
	}
	if 2*wall >= width || 2*wall >= height {
		return 0, fmt.Errorf("%s: wall must satisfy 2*t < width and 2*t < height", TypeProfile)
	}
	return width*height - (width-2*wall)*(height-2*wall), nil
}

// TubeArea returns the cross-section of a round tube in mm².
func TubeArea(diameter, wall float64) (float64, error) {
	if diameter <= 0 || wall <= 0 {
		return 0, fmt.Errorf("%s: dimensions must be positive", TypeTube)
	}
	if 2*wall >= diameter {
		return 0, fmt.Errorf("%s: wall must satisfy 2*t < diameter", TypeTube)
	}
	inner := diameter - 2*wall
	return math.Pi / 4 * (diameter*diameter - inner*inner), nil
}

// KgPerMeter converts a cross-section in mm² to linear mass.
func KgPerMeter(areaMM2, density float64) float64 {
	return areaMM2 * 1e-6 * density
}

// crossSection computes the cross-section of a length-priced material.
func crossSection(typ, size string) (float64, error) {
	dims, err := SplitDims(size)
	if err != nil {
		return 0, err
	}
	switch normType(typ) {
	case TypeProfile:
		if len(dims) != 3 {
			return 0, fmt.Errorf(`%s expects "width x height x wall", e.g. "40x20x2", got %q`, TypeProfile, size)
		}
		return ProfileArea(dims[0], dims[1], dims[2])
	case TypeTube:
		if len(dims) != 2 {
			return 0, fmt.Errorf(`%s expects "diameter x wall", e.g. "33.7x2", got %q`, TypeTube, size)
		}
		return TubeArea(dims[0], dims[1])
	default:
		return 0, fmt.Errorf("unsupported material type %q", typ)
	}
}

// PricePerLengthToKg converts a price per metre into a price per kilogram.
func PricePerLengthToKg(typ, size string, density, pricePerM float64) (float64, error) {
	if density <= 0 {
		return 0, fmt.Errorf("density must be positive")
	}
	if pricePerM < 0 {
		return 0, fmt.Errorf("price per metre must not be negative")
	}
	area, err := crossSection(typ, size)
	if err != nil {
		return 0, err
	}
	kgPerM := KgPerMeter(area, density)
	if kgPerM <= 0 {
		return 0, nil
	}
	return round2(pricePerM / kgPerM), nil
}

// LengthToKg returns the mass of lengthM metres of a profile or tube.
func LengthToKg(typ, size string, density, lengthM float64) (float64, error) {
	if density <= 0 {
		return 0, fmt.Errorf("density must be positive")
	}
	if lengthM < 0 {
		return 0, fmt.Errorf("length must not be negative")
	}
	area, err := crossSection(typ, size)
	if err != nil {
		return 0, err
	}
	return round2(KgPerMeter(area, density) * lengthM), nil
}

// LengthToDm2 returns the outer surface of lengthM metres of a profile or
// tube in dm².
func LengthToDm2(typ, size string, lengthM float64) (float64, error) {
	if lengthM < 0 {
		return 0, fmt.Errorf("length must not be negative")
	}
	dims, err := SplitDims(size)
	if err != nil {
		return 0, err
	}

	var perimeterMM float64
	switch normType(typ) {
	case TypeProfile:
		if len(dims) != 3 {
			return 0, fmt.Errorf(`%s expects "width x height x wall", got %q`, TypeProfile, size)
		}
		perimeterMM = 2 * (dims[0] + dims[1])
	case TypeTube:
		if len(dims) < 1 {
			return 0, fmt.Errorf(`%s expects "diameter x wall", got %q`, TypeTube, size)
		}
		perimeterMM = math.Pi * dims[0]
	default:
		return 0, fmt.Errorf("unsupported material type %q", typ)
	}
	return round2(perimeterMM / 1000 * lengthM * 100), nil
}

// SheetKgToDm2 returns the area of a plate of the given mass; the third
// dimension of size is the thickness.
func SheetKgToDm2(size string, density, massKg float64) (float64, error) {
	dims, err := SplitDims(size)
	if err != nil {
		return 0, err
	}
	if len(dims) < 3 {
		return 0, fmt.Errorf(`%s expects "width x length x thickness", got %q`, TypeSheet, size)
	}
	thickness := dims[2]
	switch {
	case thickness <= 0:
		return 0, fmt.Errorf("plate thickness must be positive")
	case massKg <= 0:
		return 0, fmt.Errorf("mass must be positive")
	case density <= 0:
		return 0, fmt.Errorf("density must be positive")
	}
	volumeM3 := massKg / density
	return round2(volumeM3 / (thickness / 1000) * 100), nil
}

func normType(typ string) string {
	return strings.ToUpper(strings.TrimSpace(typ))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
