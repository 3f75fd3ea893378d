package cmd

import (
	"os"

	"github.com/salmonumbrella/rowtree/internal/render"
	"github.com/salmonumbrella/rowtree/internal/rows"
)

var (
	envGet        = os.Getenv
	openRows      = rows.Open
	writeDocument = render.WriteFile
)
