package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/rowtree/internal/tree"
)

var checkCmd = &cobra.Command{
	Use:   "check [input]",
	Short: "Validate a row file without writing a document",
	Long: `Check builds the tree exactly as convert would and reports what it found.

It fails on the same conditions as convert: a missing input, an unknown tag
code, or a sub or nested row before the first primary row.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	addInputFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	input := defaultInput
	if len(args) > 0 {
		input = args[0]
	}

	s, err := resolveSettings(cmd, loadedConfig)
	if err != nil {
		return err
	}
	t, err := buildFromInput(cmd.Context(), input, s)
	if err != nil {
		return err
	}

	summary := map[string]interface{}{
		"status": "ok",
		"input":  input,
		"nodes":  t.Len() - 1,
	}
	counts := t.CountByKind()
	for _, k := range tree.Kinds {
		summary[s.schema.Spec(k).Name] = counts[k]
	}
	return printReport(summary)
}
