// kalkulator prices metal-fabrication workcells from CUE definitions and a
// filled cost-table workbook.
package main

import (
	"os"

	"github.com/Flexbotic/AppKalkulator-v2/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
