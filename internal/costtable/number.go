package costtable

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Flexbotic/AppKalkulator-v2/internal/grid"
)

// ErrBlankValue is returned by ParseNumber for empty cells.
var ErrBlankValue = errors.New("value is blank")

// Thousands separators users type or paste into value cells.
var digitGrouping = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"\u2009", "",
)

// ParseNumber reads a cost value. Number cells are taken as-is; text cells
// accept a comma or dot decimal separator with space-grouped thousands
// ("1 234,50"). Blank cells return ErrBlankValue.
func ParseNumber(c grid.Cell) (float64, error) {
	switch c.Kind {
	case grid.Empty:
		return 0, ErrBlankValue
	case grid.Number:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return 0, fmt.Errorf("%v is not a finite number", c.Num)
		}
		return c.Num, nil
	case grid.Text:
		s := cellText(c)
		if s == "" {
			return 0, ErrBlankValue
		}
		cleaned := strings.ReplaceAll(digitGrouping.Replace(s), ",", ".")
		if !isDecimal(cleaned) {
			return 0, fmt.Errorf("%q is not a number", s)
		}
		v, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", s)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("unsupported cell value type %s (%q)", c.Kind, c.String())
	}
}

// isDecimal accepts an optional sign, digits and at most one dot. It keeps
// ParseFloat's extras (hex, exponents, "inf", "nan", underscores) out.
func isDecimal(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// cellText returns the cell's display text, NFC-normalized and trimmed.
func cellText(c grid.Cell) string {
	return strings.TrimSpace(norm.NFC.String(c.String()))
}

// sameText compares two labels after normalization.
func sameText(a, b string) bool {
	return strings.TrimSpace(norm.NFC.String(a)) == strings.TrimSpace(norm.NFC.String(b))
}
