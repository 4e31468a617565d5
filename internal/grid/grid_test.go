package grid

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Document {
	t.Helper()
	doc := New()

	index, err := doc.AddSheet("INDEX")
	require.NoError(t, err)
	index.AppendText(StyleHeader, "workcell_id", "name", "source_file")
	index.Append(StylePlain, Num(11), Str("Ocynk"), Str("ocynk.cue"))

	costs, err := doc.AddSheet("WC__Ocynk")
	require.NoError(t, err)
	title := costs.AppendText(StyleTitle, "Ocynk (id=11)")
	costs.MergeCells(title, 0, 4)
	costs.AppendBlank(1)
	costs.Append(StylePlain, Str("cena_kg"), Str("Cena"), Str("zł/kg"), Num(20.5))
	costs.Append(StylePlain, Str("cena_dm2"), Cell{}, Cell{}, Str("1 234,5"))
	costs.Append(StylePlain, Str("aktywny"), BoolCell(true))

	return doc
}

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample(t).WriteXLSX(&buf))

	doc, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"INDEX", "WC__Ocynk"}, doc.SheetNames())

	index, ok := doc.Sheet("INDEX")
	require.True(t, ok)
	assert.Equal(t, Str("workcell_id"), index.Cell(0, 0))
	assert.Equal(t, Num(11), index.Cell(1, 0))
	assert.Equal(t, Str("ocynk.cue"), index.Cell(1, 2))

	costs, ok := doc.Sheet("WC__Ocynk")
	require.True(t, ok)
	assert.Equal(t, Str("Ocynk (id=11)"), costs.Cell(0, 0))
	assert.True(t, costs.Cell(0, 1).IsBlank(), "merged cells carry no value")
	assert.Empty(t, costs.Rows[1].Cells)

	assert.Equal(t, Num(20.5), costs.Cell(2, 3))
	assert.Equal(t, Str("1 234,5"), costs.Cell(3, 3), "numeric-looking text stays text")
	assert.True(t, costs.Cell(3, 1).IsBlank())
	assert.Equal(t, BoolCell(true), costs.Cell(4, 1))

	assert.Equal(t, []Merge{{Row: 0, FirstCol: 0, LastCol: 4}}, costs.Merges)
}

func TestSaveAndOpenXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.xlsx")
	require.NoError(t, sample(t).SaveXLSX(path))

	doc, err := OpenXLSX(path)
	require.NoError(t, err)
	assert.Len(t, doc.Sheets, 2)
}

func TestOpenXLSXMissingFile(t *testing.T) {
	_, err := OpenXLSX(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestReadXLSXRejectsGarbage(t *testing.T) {
	_, err := ReadXLSX(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}

func TestWriteEmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, New().WriteXLSX(&buf))
}

func TestAddSheetRejectsDuplicatesIgnoringCase(t *testing.T) {
	doc := New()
	_, err := doc.AddSheet("WC__Ocynk")
	require.NoError(t, err)

	_, err = doc.AddSheet("wc__ocynk")
	assert.Error(t, err)

	_, err = doc.AddSheet("")
	assert.Error(t, err)

	s, ok := doc.Lookup("WC__OCYNK")
	require.True(t, ok)
	assert.Equal(t, "WC__Ocynk", s.Name)

	_, ok = doc.Sheet("WC__OCYNK")
	assert.False(t, ok)
}

func TestSheetAccessors(t *testing.T) {
	s := &Sheet{Name: "X"}
	assert.Equal(t, 0, s.Width())
	assert.Equal(t, Cell{}, s.Cell(3, 3))

	s.Set(2, 3, Num(1))
	assert.Len(t, s.Rows, 3)
	assert.Equal(t, Num(1), s.Cell(2, 3))
	assert.Equal(t, Cell{}, s.Cell(2, 2))
	assert.Equal(t, 4, s.Width())

	s.MergeCells(0, 0, 5)
	assert.Equal(t, 6, s.Width())
}

func TestCellBlankAndString(t *testing.T) {
	assert.True(t, Cell{}.IsBlank())
	assert.True(t, Str("  \t").IsBlank())
	assert.False(t, Str("x").IsBlank())
	assert.False(t, Num(0).IsBlank())

	assert.Equal(t, "20.5", Num(20.5).String())
	assert.Equal(t, "205", Num(205).String())
	assert.Equal(t, "TRUE", BoolCell(true).String())
	assert.Equal(t, "#DIV/0!", Cell{Kind: ErrorValue, Str: "#DIV/0!"}.String())
	assert.Equal(t, "", Cell{}.String())
}

func TestAppendTextLeavesEmptyStringsEmpty(t *testing.T) {
	s := &Sheet{}
	row := s.AppendText(StylePlain, "a", "", "c")
	assert.Equal(t, 0, row)
	assert.Equal(t, Empty, s.Cell(0, 1).Kind)
	assert.Equal(t, Text, s.Cell(0, 2).Kind)
}

func TestInsertRowShiftsMerges(t *testing.T) {
	s := &Sheet{}
	s.AppendText(StyleTitle, "title")
	s.MergeCells(0, 0, 1)
	s.AppendText(StyleSection, "block")
	s.MergeCells(1, 0, 1)
	s.AppendBlank(1)

	at := s.InsertRow(1, StylePlain, Str("item"), Num(2))
	assert.Equal(t, 1, at)
	assert.Equal(t, Str("title"), s.Cell(0, 0))
	assert.Equal(t, Str("item"), s.Cell(1, 0))
	assert.Equal(t, Str("block"), s.Cell(2, 0))
	assert.Len(t, s.Rows, 4)
	assert.Equal(t, []Merge{{Row: 0, FirstCol: 0, LastCol: 1}, {Row: 2, FirstCol: 0, LastCol: 1}}, s.Merges)

	at = s.InsertRow(10, StylePlain, Str("last"))
	assert.Equal(t, 4, at)
	assert.Equal(t, Str("last"), s.Cell(4, 0))
}
