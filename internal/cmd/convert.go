package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salmonumbrella/rowtree/internal/render"
)

const defaultInput = "input"

var (
	writePath string
	queryExpr string
	queryFile string
)

var convertCmd = &cobra.Command{
	Use:   "convert [input]",
	Short: "Convert a row file into a nested document",
	Long: `Convert reads tagged rows and writes the nested document they describe.

The input defaults to ./input; use - to read stdin. The document is written
to --write (default output.xml, or output.<format> for other formats); use -
for stdout. Nothing is written unless every row converts.

Examples:
  rowtree convert people.txt
  rowtree convert people.txt --write people.xml --output-encoding ISO-8859-1
  cat people.txt | rowtree convert - --to json --write - --query '.children | length'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	addInputFlags(convertCmd)
	convertCmd.Flags().StringVarP(&writePath, "write", "w", "", "Destination file, - for stdout (default output.<format>)")
	convertCmd.Flags().StringVar(&docFormatFlag, "to", "xml", "Document format (xml|json|yaml|text)")
	convertCmd.Flags().StringVar(&outputEncodingFlag, "output-encoding", "", "Output charset, any IANA name (default UTF-8)")
	convertCmd.Flags().IntVar(&indentFlag, "indent", 0, "Spaces per level (0 = default 2, negative = none)")
	convertCmd.Flags().StringVar(&queryExpr, "query", "", "jq expression applied to --to json output")
	convertCmd.Flags().StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()

	input := defaultInput
	if len(args) > 0 {
		input = args[0]
	}

	s, err := resolveSettings(cmd, loadedConfig)
	if err != nil {
		return err
	}

	query, err := resolveQuery(cmd, s.inputEncoding)
	if err != nil {
		return err
	}

	dest := strings.TrimSpace(writePath)
	if dest == "" {
		dest = "output." + string(s.docFormat)
	}

	t, err := buildFromInput(ctx, input, s)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = render.Serialize(&buf, t, render.Options{
		Format:  s.docFormat,
		Charset: s.outputEncoding,
		Indent:  s.indent,
		Query:   query,
		Color:   dest == "-" && s.docFormat == render.DocText && isTerminal(stdoutFromContext(ctx)),
	})
	if err != nil {
		return err
	}

	if dest == "-" {
		_, err := stdoutFromContext(ctx).Write(buf.Bytes())
		return err
	}
	if err := writeDocument(dest, buf.Bytes()); err != nil {
		return err
	}
	loggerOrNop(ctx).Info("document written", zap.String("path", dest), zap.Int("bytes", buf.Len()))

	if render.QuietFromContext(ctx) {
		return nil
	}
	if structuredOutputRequested() {
		return printReport(map[string]interface{}{
			"status": "written",
			"input":  input,
			"path":   dest,
			"format": string(s.docFormat),
			"nodes":  t.Len() - 1,
		})
	}
	_, err = fmt.Fprintf(stdoutFromContext(ctx), "%s file generated successfully: %s\n", strings.ToUpper(string(s.docFormat)), dest)
	return err
}

// resolveQuery returns the jq program from --query or --query-file. The
// file is read in the same charset as the rows.
func resolveQuery(cmd *cobra.Command, encoding string) (string, error) {
	if queryExpr != "" && queryFile != "" {
		return "", fmt.Errorf("use only one of --query or --query-file")
	}
	if queryFile != "" {
		return readQuerySource(queryFile, stdinFromContext(cmd.Context()), encoding)
	}
	return queryExpr, nil
}
