package grid

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Column width bounds used when sizing columns to their content.
const (
	minColWidth = 12
	maxColWidth = 50
)

// ReadXLSX reads every sheet of an .xlsx workbook into a Document.
// Styling is discarded. Numeric cells become Number cells, shared and
// inline strings become Text.
func ReadXLSX(r io.Reader) (*Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	return fromWorkbook(f)
}

// OpenXLSX reads the .xlsx workbook at path.
func OpenXLSX(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	doc, err := ReadXLSX(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func fromWorkbook(f *excelize.File) (*Document, error) {
	doc := New()
	for _, name := range f.GetSheetList() {
		sheet := &Sheet{Name: name}

		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		for r, values := range rows {
			row := Row{Cells: make([]Cell, len(values))}
			for c, v := range values {
				if v == "" {
					continue
				}
				axis, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, err
				}
				typ, err := f.GetCellType(name, axis)
				if err != nil {
					return nil, fmt.Errorf("failed to read cell %s!%s: %w", name, axis, err)
				}
				row.Cells[c] = typedCell(typ, v)
			}
			sheet.Rows = append(sheet.Rows, row)
		}

		merges, err := f.GetMergeCells(name, true)
		if err != nil {
			return nil, fmt.Errorf("failed to read merges of %q: %w", name, err)
		}
		for _, m := range merges {
			c1, r1, err := excelize.CellNameToCoordinates(m.GetStartAxis())
			if err != nil {
				return nil, err
			}
			// Only horizontal merges are modelled; a vertical range keeps
			// its first row.
			c2, _, err := excelize.CellNameToCoordinates(m.GetEndAxis())
			if err != nil {
				return nil, err
			}
			sheet.Merges = append(sheet.Merges, Merge{Row: r1 - 1, FirstCol: c1 - 1, LastCol: c2 - 1})
		}

		doc.Sheets = append(doc.Sheets, sheet)
	}
	return doc, nil
}

// typedCell maps a raw cell value onto a Cell. Numbers written without a
// type attribute report CellTypeUnset.
func typedCell(typ excelize.CellType, raw string) Cell {
	switch typ {
	case excelize.CellTypeBool:
		return BoolCell(raw == "1" || raw == "TRUE" || raw == "true")
	case excelize.CellTypeError:
		return Cell{Kind: ErrorValue, Str: raw}
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeDate:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return Num(n)
		}
		return Str(raw)
	default:
		return Str(raw)
	}
}

// WriteXLSX writes the document as an .xlsx workbook.
func (d *Document) WriteXLSX(w io.Writer) error {
	f, err := d.toWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the document to path.
func (d *Document) SaveXLSX(path string) error {
	f, err := d.toWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func (d *Document) toWorkbook() (*excelize.File, error) {
	if len(d.Sheets) == 0 {
		return nil, fmt.Errorf("document has no sheets")
	}

	f := excelize.NewFile()
	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, s := range d.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("set sheet name: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", s.Name, err)
		}
		if err := writeSheet(f, s, styles); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, s *Sheet, styles map[Style]int) error {
	width := s.Width()
	if width == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(width)
	if err != nil {
		return err
	}

	for r, row := range s.Rows {
		for c, cell := range row.Cells {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			switch cell.Kind {
			case Text, ErrorValue:
				err = f.SetCellValue(s.Name, axis, cell.Str)
			case Number:
				err = f.SetCellValue(s.Name, axis, cell.Num)
			case Bool:
				err = f.SetCellValue(s.Name, axis, cell.Flag)
			}
			if err != nil {
				return fmt.Errorf("set %s: %w", axis, err)
			}
		}

		if id, ok := styles[row.Style]; ok {
			styleEnd := lastCol
			if row.Style == StyleHeader && len(row.Cells) > 0 {
				styleEnd, _ = excelize.ColumnNumberToName(len(row.Cells))
			}
			rowNum := strconv.Itoa(r + 1)
			if err := f.SetCellStyle(s.Name, "A"+rowNum, styleEnd+rowNum, id); err != nil {
				return fmt.Errorf("style row %d: %w", r+1, err)
			}
		}
	}

	for _, m := range s.Merges {
		from, err := excelize.CoordinatesToCellName(m.FirstCol+1, m.Row+1)
		if err != nil {
			return err
		}
		to, err := excelize.CoordinatesToCellName(m.LastCol+1, m.Row+1)
		if err != nil {
			return err
		}
		if err := f.MergeCell(s.Name, from, to); err != nil {
			return fmt.Errorf("merge %s:%s: %w", from, to, err)
		}
	}

	for c := 1; c <= width; c++ {
		col, err := excelize.ColumnNumberToName(c)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.Name, col, col, columnWidth(s, c-1)); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}
	return nil
}

// columnWidth sizes a column to its longest unmerged value.
func columnWidth(s *Sheet, col int) float64 {
	longest := 0
	for r, row := range s.Rows {
		if col >= len(row.Cells) || isMerged(s, r) {
			continue
		}
		longest = max(longest, utf8.RuneCountInString(row.Cells[col].String()))
	}
	return float64(max(minColWidth, min(longest+2, maxColWidth)))
}

func isMerged(s *Sheet, row int) bool {
	for _, m := range s.Merges {
		if m.Row == row {
			return true
		}
	}
	return false
}

func newStyles(f *excelize.File) (map[Style]int, error) {
	defs := map[Style]*excelize.Style{
		StyleTitle: {
			Font:      &excelize.Font{Bold: true, Size: 14},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		},
		StyleSection: {
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		},
		StyleHeader: {
			Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E79"}, Pattern: 1},
		},
		StyleBold: {
			Font: &excelize.Font{Bold: true},
		},
	}

	ids := make(map[Style]int, len(defs))
	for style, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return nil, fmt.Errorf("create style: %w", err)
		}
		ids[style] = id
	}
	return ids, nil
}
