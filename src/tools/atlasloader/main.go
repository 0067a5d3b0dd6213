// Command atlasloader prints the postgres schema of every model, for use as
// an atlas "external_schema" data source.
package main

import (
	"fmt"
	"io"
	"loketkita/src/models"
	"os"

	"ariga.io/atlas-provider-gorm/gormschema"
)

func main() {
	stmts, err := gormschema.New("postgres").Load(models.All()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	io.WriteString(os.Stdout, stmts)
}
