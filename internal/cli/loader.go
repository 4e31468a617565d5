package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Flexbotic/AppKalkulator-v2/internal/compiler"
	"github.com/Flexbotic/AppKalkulator-v2/internal/config"
	"github.com/Flexbotic/AppKalkulator-v2/internal/costtable"
	"github.com/Flexbotic/AppKalkulator-v2/internal/grid"
	"github.com/Flexbotic/AppKalkulator-v2/internal/material"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/quote"
)

// pathArg returns the positional argument at i, falling back to the
// project config value. name labels the error when both are empty.
func pathArg(f *OutputFormatter, args []string, i int, fallback, name string) (string, error) {
	if i < len(args) && args[i] != "" {
		return args[i], nil
	}
	if fallback != "" {
		return fallback, nil
	}
	msg := fmt.Sprintf("%s is required (pass it as an argument or set it in %s)", name, config.DefaultFile)
	_ = f.Error(ErrCodeGeneric, msg, nil)
	return "", NewExitError(ExitCommandError, msg)
}

// loadDefinitions compiles the workcell definitions in dir. Any failure is
// a command error: nothing can be priced without definitions.
func loadDefinitions(f *OutputFormatter, dir string) (model.Definitions, error) {
	defs, err := compiler.LoadDefinitions(dir)
	if err != nil {
		return nil, f.Fail(ExitCommandError, "failed to load definitions", err)
	}
	f.VerboseLog("Loaded %d workcell(s) from %s", len(defs), dir)
	return defs, nil
}

// loadCostIndex opens and decodes a filled cost-table workbook. An
// unreadable file is a command error; a workbook that does not decode is
// a domain failure.
func loadCostIndex(f *OutputFormatter, defs model.Definitions, path string) (*model.CostIndex, error) {
	doc, err := grid.OpenXLSX(path)
	if err != nil {
		_ = f.Error(ErrCodeReadFailed, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open cost table", err)
	}
	f.VerboseLog("Read %d sheet(s) from %s", len(doc.Sheets), path)

	idx, err := costtable.LoadCostIndex(doc, defs)
	if err != nil {
		return nil, f.Fail(ExitFailure, "cost table is invalid", err)
	}
	return idx, nil
}

// loadCatalog opens the material catalog workbook.
func loadCatalog(f *OutputFormatter, path string) (*material.Catalog, error) {
	doc, err := grid.OpenXLSX(path)
	if err != nil {
		_ = f.Error(ErrCodeReadFailed, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open material catalog", err)
	}
	catalog, err := material.LoadCatalog(doc)
	if err != nil {
		return nil, f.Fail(ExitCommandError, "material catalog is invalid", err)
	}
	f.VerboseLog("Loaded %d material(s) from %s", len(catalog.Materials), path)
	return catalog, nil
}

// QuoteFile is the request document of the quote command.
type QuoteFile struct {
	Lines []QuoteLine `yaml:"lines"`
}

// QuoteLine is one workcell line. Items reference catalog materials by id;
// their mass and area feed the line's user values unless entered.
type QuoteLine struct {
	quote.Request `yaml:",inline"`

	Items []MaterialItem `yaml:"items,omitempty"`
}

// MaterialItem attaches a catalog material to a quote line. Profiles and
// tubes are measured by length, plates by weight.
type MaterialItem struct {
	MaterialID int      `yaml:"material_id"`
	LengthMM   *float64 `yaml:"length_mm,omitempty"`
	WeightKg   *float64 `yaml:"weight_kg,omitempty"`
	Qty        int      `yaml:"qty,omitempty"`
}

// readQuoteFile parses a quote request file with strict field checking.
func readQuoteFile(path string) (*QuoteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}

	var qf QuoteFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&qf); err != nil {
		return nil, fmt.Errorf("failed to parse request file %s: %w", path, err)
	}
	if len(qf.Lines) == 0 {
		return nil, fmt.Errorf("request file %s has no lines", path)
	}
	for i, l := range qf.Lines {
		if l.WorkcellID == 0 {
			return nil, fmt.Errorf("request file %s: lines[%d]: workcell_id is required", path, i)
		}
	}
	return &qf, nil
}

// attachMaterials converts catalog items into material refs on the line's
// request.
func attachMaterials(catalog *material.Catalog, lineNo int, l QuoteLine) (quote.Request, error) {
	req := l.Request
	if len(l.Items) == 0 {
		return req, nil
	}
	if catalog == nil {
		return req, fmt.Errorf("line %d: items need a material catalog (--catalog)", lineNo)
	}

	req.Materials = append([]quote.MaterialRef(nil), req.Materials...)
	for _, item := range l.Items {
		m, ok := catalog.Get(item.MaterialID)
		if !ok {
			return req, fmt.Errorf("line %d: material %d is not in the catalog", lineNo, item.MaterialID)
		}
		qm, err := material.NewQuoteMaterial(lineNo, m, item.LengthMM, item.WeightKg, item.Qty)
		if err != nil {
			return req, fmt.Errorf("line %d: %w", lineNo, err)
		}
		req.Materials = append(req.Materials, quote.MaterialRef{
			MaterialID: qm.MaterialID,
			MassKg:     qm.MassKg,
			AreaDm2:    qm.AreaDm2,
			Qty:        qm.Qty,
		})
	}
	return req, nil
}
