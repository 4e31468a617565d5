// Package grid is a minimal in-memory spreadsheet: a document of named
// sheets, each a list of rows of typed cells, plus merged ranges and
// per-row style hints.
//
// The cost-table codec reads and writes grids only; xlsx.go adapts a grid
// to and from .xlsx files. Styling never carries meaning, so readers may
// ignore it.
package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// CellKind identifies the type of a cell value.
type CellKind int

const (
	Empty CellKind = iota
	Text
	Number
	Bool
	ErrorValue
)

func (k CellKind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Text:
		return "text"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case ErrorValue:
		return "error"
	default:
		return fmt.Sprintf("CellKind(%d)", int(k))
	}
}

// Cell is a single typed value. Only the field matching Kind is meaningful;
// ErrorValue cells keep the spreadsheet's error text (e.g. "#DIV/0!") in Str.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Flag bool
}

// Str returns a text cell.
func Str(s string) Cell { return Cell{Kind: Text, Str: s} }

// Num returns a number cell.
func Num(f float64) Cell { return Cell{Kind: Number, Num: f} }

// BoolCell returns a boolean cell.
func BoolCell(b bool) Cell { return Cell{Kind: Bool, Flag: b} }

// IsBlank reports whether the cell is empty or holds only whitespace.
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case Empty:
		return true
	case Text:
		return strings.TrimSpace(c.Str) == ""
	default:
		return false
	}
}

// String renders the cell the way a spreadsheet would display it.
func (c Cell) String() string {
	switch c.Kind {
	case Text, ErrorValue:
		return c.Str
	case Number:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case Bool:
		if c.Flag {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// Style is a presentation hint for a whole row.
type Style int

const (
	StylePlain Style = iota
	StyleTitle
	StyleSection
	StyleHeader
	StyleBold
)

// Row is an ordered list of cells.
type Row struct {
	Cells []Cell
	Style Style
}

// Merge spans a single row from FirstCol to LastCol inclusive (0-based).
type Merge struct {
	Row      int
	FirstCol int
	LastCol  int
}

// Sheet is a named list of rows.
type Sheet struct {
	Name   string
	Rows   []Row
	Merges []Merge
}

// Append adds a row and returns its 0-based index.
func (s *Sheet) Append(style Style, cells ...Cell) int {
	s.Rows = append(s.Rows, Row{Cells: cells, Style: style})
	return len(s.Rows) - 1
}

// AppendText adds a row of text cells; empty strings become empty cells.
func (s *Sheet) AppendText(style Style, values ...string) int {
	cells := make([]Cell, len(values))
	for i, v := range values {
		if v != "" {
			cells[i] = Str(v)
		}
	}
	return s.Append(style, cells...)
}

// AppendBlank adds n empty rows.
func (s *Sheet) AppendBlank(n int) {
	for range n {
		s.Rows = append(s.Rows, Row{})
	}
}

// MergeCells records a horizontal merge on row.
func (s *Sheet) MergeCells(row, firstCol, lastCol int) {
	s.Merges = append(s.Merges, Merge{Row: row, FirstCol: firstCol, LastCol: lastCol})
}

// Cell returns the cell at (row, col); out of range reads are Empty.
func (s *Sheet) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Rows) {
		return Cell{}
	}
	cells := s.Rows[row].Cells
	if col < 0 || col >= len(cells) {
		return Cell{}
	}
	return cells[col]
}

// Set writes a cell, growing the sheet as needed.
func (s *Sheet) Set(row, col int, c Cell) {
	for len(s.Rows) <= row {
		s.Rows = append(s.Rows, Row{})
	}
	r := &s.Rows[row]
	for len(r.Cells) <= col {
		r.Cells = append(r.Cells, Cell{})
	}
	r.Cells[col] = c
}

// InsertRow inserts a row before index at, shifting later rows and their
// merges down. An index past the end appends.
func (s *Sheet) InsertRow(at int, style Style, cells ...Cell) int {
	if at >= len(s.Rows) {
		return s.Append(style, cells...)
	}
	at = max(at, 0)
	s.Rows = append(s.Rows, Row{})
	copy(s.Rows[at+1:], s.Rows[at:])
	s.Rows[at] = Row{Cells: cells, Style: style}
	for i := range s.Merges {
		if s.Merges[i].Row >= at {
			s.Merges[i].Row++
		}
	}
	return at
}

// Width returns the number of columns used by the widest row or merge.
func (s *Sheet) Width() int {
	w := 0
	for _, r := range s.Rows {
		w = max(w, len(r.Cells))
	}
	for _, m := range s.Merges {
		w = max(w, m.LastCol+1)
	}
	return w
}

// Document is an ordered collection of sheets.
type Document struct {
	Sheets []*Sheet
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// AddSheet appends a new sheet. Sheet names are unique ignoring case, as
// in spreadsheet applications.
func (d *Document) AddSheet(name string) (*Sheet, error) {
	if name == "" {
		return nil, fmt.Errorf("sheet name must not be empty")
	}
	if _, ok := d.Lookup(name); ok {
		return nil, fmt.Errorf("sheet %q already exists", name)
	}
	s := &Sheet{Name: name}
	d.Sheets = append(d.Sheets, s)
	return s, nil
}

// Sheet returns the sheet with exactly this name.
func (d *Document) Sheet(name string) (*Sheet, bool) {
	for _, s := range d.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Lookup returns the sheet whose name equals name ignoring case.
func (d *Document) Lookup(name string) (*Sheet, bool) {
	for _, s := range d.Sheets {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return nil, false
}

// SheetNames returns the sheet names in document order.
func (d *Document) SheetNames() []string {
	names := make([]string, len(d.Sheets))
	for i, s := range d.Sheets {
		names[i] = s.Name
	}
	return names
}
