package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Flexbotic/AppKalkulator-v2/internal/quote"
)

// Scenario defines a quote scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definitions is the directory of workcell .cue files, relative to
	// the scenario file.
	Definitions string `yaml:"definitions"`

	// Costs are written into the generated cost-table template before it
	// is decoded.
	Costs Costs `yaml:"costs"`

	// Quotes are priced in order.
	Quotes []QuoteStep `yaml:"quotes"`

	// Assertions validate the definitions and the priced quotes.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Costs lists the values to fill into the cost-table template.
type Costs struct {
	Numbers []CostNumber `yaml:"numbers,omitempty"`
	Tables  []TableItem  `yaml:"tables,omitempty"`
}

// CostNumber is one flat cost value.
type CostNumber struct {
	Workcell int     `yaml:"workcell"`
	Choice   string  `yaml:"choice,omitempty"`
	Formula  string  `yaml:"formula"`
	Key      string  `yaml:"key"`
	Value    float64 `yaml:"value"`
}

// TableItem is one row of a table-pick block.
type TableItem struct {
	Workcell int     `yaml:"workcell"`
	Choice   string  `yaml:"choice,omitempty"`
	Formula  string  `yaml:"formula"`
	Key      string  `yaml:"key"`
	Item     string  `yaml:"item"`
	Value    float64 `yaml:"value"`
}

// QuoteStep prices one request.
type QuoteStep struct {
	// Name labels the step in results and errors.
	Name string `yaml:"name"`

	// Request is passed to quote.Price unchanged.
	Request quote.Request `yaml:"request"`

	// UseMaterials fills missing user values from the request's materials
	// before pricing.
	UseMaterials bool `yaml:"use_materials,omitempty"`

	// Expect specifies the expected outcome.
	Expect Expect `yaml:"expect"`
}

// Expect is either a price or an error code, never both.
type Expect struct {
	Price *float64 `yaml:"price,omitempty"`
	Error string   `yaml:"error,omitempty"`
}

// Assertion validates the definitions or the priced quotes.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Workcell and Choice scope allowed_formulas and default_formulas.
	// An empty choice means "DEFAULT".
	Workcell int    `yaml:"workcell,omitempty"`
	Choice   string `yaml:"choice,omitempty"`

	// Formulas is the expected formula id list, in declaration order.
	Formulas []string `yaml:"formulas,omitempty"`

	// Value is the expected total (used by total).
	Value *float64 `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertAllowedFormulas = "allowed_formulas"
	AssertDefaultFormulas = "default_formulas"
	AssertTotal           = "total"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// definitions path relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the definitions path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "quote:" vs "quotes:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Definitions != "" && !filepath.IsAbs(scenario.Definitions) && basePath != "" {
		scenario.Definitions = filepath.Join(basePath, scenario.Definitions)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Definitions == "" {
		return fmt.Errorf("definitions is required")
	}
	if info, err := os.Stat(s.Definitions); err != nil || !info.IsDir() {
		return fmt.Errorf("definitions directory not found: %s", s.Definitions)
	}

	if len(s.Quotes) == 0 {
		return fmt.Errorf("quotes list is required and must be non-empty")
	}

	for i, n := range s.Costs.Numbers {
		if n.Formula == "" || n.Key == "" {
			return fmt.Errorf("costs.numbers[%d]: formula and key are required", i)
		}
	}
	for i, item := range s.Costs.Tables {
		if item.Formula == "" || item.Key == "" || item.Item == "" {
			return fmt.Errorf("costs.tables[%d]: formula, key and item are required", i)
		}
	}

	for i, q := range s.Quotes {
		if q.Name == "" {
			return fmt.Errorf("quotes[%d]: name is required", i)
		}
		if (q.Expect.Price == nil) == (q.Expect.Error == "") {
			return fmt.Errorf("quotes[%d].expect: exactly one of price or error is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertAllowedFormulas, AssertDefaultFormulas:
		if a.Workcell == 0 {
			return fmt.Errorf("assertions[%d]: workcell is required for %s", index, a.Type)
		}
	case AssertTotal:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for total", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
