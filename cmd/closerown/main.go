// Command closerown is a linter that checks io.Closer ownership.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/mpyw/closerown"
)

func main() {
	singlechecker.Main(closerown.Analyzer)
}
