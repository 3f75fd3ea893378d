package cmd

import (
	"github.com/salmonumbrella/rowtree/internal/render"
)

func structuredOutputRequested() bool {
	return render.IsStructured(GetOutputFormat())
}

func printReport(data interface{}) error {
	ctx := currentContext()
	printer := render.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}
