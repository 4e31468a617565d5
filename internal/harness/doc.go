// Package harness runs quote scenarios end to end.
//
// A scenario names a directory of workcell definitions, lists the cost
// values to write into a freshly generated cost-table template, and a
// sequence of quote requests with their expected price or error code. The
// harness encodes the template, fills it, decodes it back into a cost
// index and prices every request, so each scenario exercises the compiler,
// the codec, the resolver and the evaluator together.
//
// # Scenario Format
//
//	name: ocynk_galwaniczny
//	description: "Galvanic zinc plating priced by area"
//	definitions: ../../workcells
//	costs:
//	  numbers:
//	    - {workcell: 11, choice: GALWANICZNY, formula: by_dm2, key: cena_dm2, value: 3.5}
//	  tables:
//	    - {workcell: 9, formula: by_dm2, key: cena_dm2, item: FARBA_PROSZKOWA, value: 20.5}
//	quotes:
//	  - name: plate
//	    request:
//	      workcell_id: 11
//	      choice: GALWANICZNY
//	      formula: by_dm2
//	      user_values: {dm2: 40}
//	    expect:
//	      price: 140.0
//	assertions:
//	  - type: allowed_formulas
//	    workcell: 11
//	    choice: GALWANICZNY
//	    formulas: [by_dm2]
//
// Cost entries with an empty choice use "DEFAULT". Every cost value the
// definitions make reachable must be listed, since decoding rejects an
// incomplete cost table.
//
// # Assertion Types
//
//   - allowed_formulas: the formulas allowed under a choice, in order
//   - default_formulas: the formulas pre-selected under a choice, in order
//   - total: the sum of every successfully priced quote
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/ocynk.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
