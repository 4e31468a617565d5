package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Flexbotic/AppKalkulator-v2/internal/compiler"
	"github.com/Flexbotic/AppKalkulator-v2/internal/costtable"
	"github.com/Flexbotic/AppKalkulator-v2/internal/grid"
	"github.com/Flexbotic/AppKalkulator-v2/internal/harness"
	"github.com/Flexbotic/AppKalkulator-v2/internal/testutil"
)

var defsDir = filepath.Join("..", "..", "workcells")

var filledCosts = harness.Costs{
	Numbers: []harness.CostNumber{
		{Workcell: testutil.OcynkID, Choice: "OGNIOWY", Formula: "by_kg", Key: "cena_kg", Value: 2.8},
		{Workcell: testutil.OcynkID, Choice: "GALWANICZNY", Formula: "by_dm2", Key: "cena_dm2", Value: 3.5},
	},
	Tables: []harness.TableItem{
		{Workcell: testutil.MalowanieID, Formula: "by_dm2", Key: "cena_dm2", Item: "FARBA_PROSZKOWA", Value: 20.5},
	},
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommandWithOptions(&RootOptions{LineIDs: testutil.NewFixedLineIDs("quote-line")})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeCosts writes a cost-table workbook for the repository workcells
// with the given values filled in.
func writeCosts(t *testing.T, costs harness.Costs) string {
	t.Helper()
	defs, err := compiler.LoadDefinitions(defsDir)
	require.NoError(t, err)
	doc, err := costtable.GenerateTemplate(defs)
	require.NoError(t, err)
	require.NoError(t, harness.FillCosts(doc, defs, costs))

	path := filepath.Join(t.TempDir(), "costs.xlsx")
	require.NoError(t, doc.SaveXLSX(path))
	return path
}

// writeCatalog writes a one-row material catalog: a 40x20x2 steel profile.
func writeCatalog(t *testing.T) string {
	t.Helper()
	doc := grid.New()
	s, err := doc.AddSheet("Materialy")
	require.NoError(t, err)
	s.AppendText(grid.StyleHeader, "Type", "Grade", "Size", "Price/length", "Price/weight")
	s.Append(grid.StylePlain, grid.Str("PROFIL"), grid.Str("S235"), grid.Str("40x20x2"), grid.Num(17.584), grid.Num(10))

	path := filepath.Join(t.TempDir(), "materials.xlsx")
	require.NoError(t, doc.SaveXLSX(path))
	return path
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
