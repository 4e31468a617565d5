// Package material loads the material catalog and computes the mass and
// surface of materials attached to quote lines.
package material

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/Flexbotic/AppKalkulator-v2/internal/costtable"
	"github.com/Flexbotic/AppKalkulator-v2/internal/grid"
)

// Material is one catalog row. ID is the 0-based data row index.
type Material struct {
	ID          int     `json:"id"`
	Type        string  `json:"type"`
	Grade       string  `json:"grade"`
	Size        string  `json:"size"`
	PricePerKg  float64 `json:"price_per_kg"`
	PricePerM   float64 `json:"price_per_m"`
	LastUpdated string  `json:"last_updated,omitempty"`
	Supplier    string  `json:"supplier,omitempty"`
	Density     float64 `json:"density"`
}

// Catalog is the loaded material list.
type Catalog struct {
	Materials []Material `json:"materials"`
}

// Get returns the material with the given id.
func (c *Catalog) Get(id int) (Material, bool) {
	if id < 0 || id >= len(c.Materials) {
		return Material{}, false
	}
	return c.Materials[id], true
}

// CatalogError is a catalog row that cannot be loaded.
type CatalogError struct {
	Sheet   string
	Row     int // 1-based
	Column  string
	Message string
}

func (e *CatalogError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("catalog sheet %q row %d column %q: %s", e.Sheet, e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("catalog sheet %q row %d: %s", e.Sheet, e.Row, e.Message)
}

type column int

const (
	colType column = iota
	colGrade
	colSize
	colPricePerM
	colPricePerKg
	colLastUpdated
	colSupplier
	numColumns
)

// Header names, English first. The Polish names are those used by
// supplier price lists.
var columnNames = [numColumns][]string{
	colType:        {"Type", "Typ"},
	colGrade:       {"Grade", "Gatunek"},
	colSize:        {"Size", "Rozmiar"},
	colPricePerM:   {"Price/length", "Cena/mb"},
	colPricePerKg:  {"Price/weight", "Cena/kg"},
	colLastUpdated: {"Last-updated", "Data ostatniej aktualizacji"},
	colSupplier:    {"Supplier", "Dostawca"},
}

func (c column) String() string { return columnNames[c][0] }

func optional(c column) bool { return c == colLastUpdated || c == colSupplier }

// LoadCatalog reads the first sheet of doc. The first row is the header;
// column order is free and names match case-insensitively. Type and grade
// are upper-cased, density comes from the grade, and a zero price per
// kilogram is derived from the price per metre.
func LoadCatalog(doc *grid.Document) (*Catalog, error) {
	if len(doc.Sheets) == 0 {
		return nil, errors.New("catalog document has no sheets")
	}
	sheet := doc.Sheets[0]

	cols, err := mapHeader(sheet)
	if err != nil {
		return nil, err
	}

	cat := &Catalog{Materials: []Material{}}
	for r := 1; r < len(sheet.Rows); r++ {
		if rowBlank(sheet, r) {
			continue
		}
		m, err := readRow(sheet, r, cols)
		if err != nil {
			return nil, err
		}
		m.ID = len(cat.Materials)
		cat.Materials = append(cat.Materials, m)
	}

	slog.Debug("loaded material catalog", "sheet", sheet.Name, "materials", len(cat.Materials))
	return cat, nil
}

func mapHeader(sheet *grid.Sheet) ([numColumns]int, error) {
	var cols [numColumns]int
	for c := range cols {
		cols[c] = -1
	}
	for i := 0; i < sheet.Width(); i++ {
		name := headerKey(sheet.Cell(0, i).String())
		for c, names := range columnNames {
			for _, n := range names {
				if name == headerKey(n) {
					cols[c] = i
				}
			}
		}
	}
	for c, idx := range cols {
		if idx < 0 && !optional(column(c)) {
			return cols, &CatalogError{
				Sheet:   sheet.Name,
				Row:     1,
				Column:  column(c).String(),
				Message: "required column is missing",
			}
		}
	}
	return cols, nil
}

func readRow(sheet *grid.Sheet, r int, cols [numColumns]int) (Material, error) {
	cell := func(c column) grid.Cell {
		if cols[c] < 0 {
			return grid.Cell{}
		}
		return sheet.Cell(r, cols[c])
	}
	text := func(c column) string {
		return strings.TrimSpace(norm.NFC.String(cell(c).String()))
	}
	fail := func(c column, format string, args ...any) error {
		e := &CatalogError{Sheet: sheet.Name, Row: r + 1, Message: fmt.Sprintf(format, args...)}
		if c >= 0 {
			e.Column = c.String()
		}
		return e
	}
	price := func(c column) (float64, error) {
		v, err := costtable.ParseNumber(cell(c))
		if errors.Is(err, costtable.ErrBlankValue) {
			return 0, nil
		}
		if err != nil {
			return 0, fail(c, "%v", err)
		}
		return v, nil
	}

	m := Material{
		Type:     strings.ToUpper(text(colType)),
		Grade:    strings.ToUpper(text(colGrade)),
		Size:     text(colSize),
		Supplier: text(colSupplier),
	}
	if m.Type == "" {
		return m, fail(colType, "type is blank")
	}

	var err error
	if m.PricePerM, err = price(colPricePerM); err != nil {
		return m, err
	}
	if m.PricePerKg, err = price(colPricePerKg); err != nil {
		return m, err
	}
	if m.LastUpdated, err = dateText(cell(colLastUpdated)); err != nil {
		return m, fail(colLastUpdated, "%v", err)
	}
	if m.Density, err = DensityOf(m.Grade); err != nil {
		return m, fail(colGrade, "%v", err)
	}
	if m.PricePerKg == 0 {
		if m.PricePerKg, err = PricePerLengthToKg(m.Type, m.Size, m.Density, m.PricePerM); err != nil {
			return m, fail(-1, "derive price per kg: %v", err)
		}
	}
	return m, nil
}

// dateText renders spreadsheet date serials as ISO dates and passes text
// through.
func dateText(c grid.Cell) (string, error) {
	if c.Kind != grid.Number {
		return strings.TrimSpace(c.String()), nil
	}
	t, err := excelize.ExcelDateToTime(c.Num, false)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

func headerKey(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

func rowBlank(sheet *grid.Sheet, r int) bool {
	for _, c := range sheet.Rows[r].Cells {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}
