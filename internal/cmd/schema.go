package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/rowtree/internal/render"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the tag schema in effect",
	Long: `Show the tag codes, element names and field names used to read rows.

The defaults can be overridden per kind under "tags" in the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadedConfig.Schema()
		if err != nil {
			return err
		}

		if structuredOutputRequested() {
			return printReport(map[string]interface{}{
				"root": schema.Root(),
				"tags": schema.Specs(),
			})
		}

		table := render.Table{Headers: []string{"KIND", "CODE", "NAME", "FIELDS"}}
		for _, spec := range schema.Specs() {
			table.Rows = append(table.Rows, []string{spec.Kind.String(), spec.Code, spec.Name, strings.Join(spec.Fields, ",")})
		}
		return printReport(table)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
