package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salmonumbrella/rowtree/internal/config"
	"github.com/salmonumbrella/rowtree/internal/render"
	"github.com/salmonumbrella/rowtree/internal/rows"
	"github.com/salmonumbrella/rowtree/internal/tree"
)

// Input and document flags shared by convert and check
var (
	delimiterFlag      string
	inputEncodingFlag  string
	outputEncodingFlag string
	indentFlag         int
	docFormatFlag      string
)

// settings are the effective conversion options for one command run.
type settings struct {
	delimiter      string
	inputEncoding  string
	outputEncoding string
	indent         int
	docFormat      render.DocFormat
	schema         *tree.Schema
}

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}

// resolveSettings applies precedence flags > env > config > defaults.
func resolveSettings(cmd *cobra.Command, cfg *config.Config) (settings, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	s := settings{
		delimiter:      rows.DefaultDelimiter,
		inputEncoding:  cfg.InputEncoding,
		outputEncoding: cfg.OutputEncoding,
		indent:         cfg.Indent,
	}

	switch {
	case flagChanged(cmd, "delimiter"):
		s.delimiter = delimiterFlag
	case envGet("ROWTREE_DELIMITER") != "":
		s.delimiter = envGet("ROWTREE_DELIMITER")
	case cfg.Delimiter != "":
		s.delimiter = cfg.Delimiter
	}
	if s.delimiter == "" {
		return settings{}, fmt.Errorf("delimiter must not be empty")
	}

	if flagChanged(cmd, "input-encoding") {
		s.inputEncoding = inputEncodingFlag
	}
	if flagChanged(cmd, "output-encoding") {
		s.outputEncoding = outputEncodingFlag
	}
	if flagChanged(cmd, "indent") {
		s.indent = indentFlag
	}

	formatStr := cfg.DocumentFormat
	if flagChanged(cmd, "to") {
		formatStr = docFormatFlag
	}
	format, err := render.ParseDocFormat(formatStr)
	if err != nil {
		return settings{}, err
	}
	s.docFormat = format

	schema, err := cfg.Schema()
	if err != nil {
		return settings{}, err
	}
	s.schema = schema
	return s, nil
}

// buildFromInput reads every row of input and builds the tree. Nothing is
// returned unless the whole input converts.
func buildFromInput(ctx context.Context, input string, s settings) (*tree.Tree, error) {
	logger := loggerOrNop(ctx)

	r, err := openRows(input, stdinFromContext(ctx), rows.Options{
		Delimiter: s.delimiter,
		Charset:   s.inputEncoding,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	logger.Info("reading rows", zap.String("input", input), zap.String("delimiter", s.delimiter))
	t, err := tree.Build(ctx, r, s.schema, tree.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", input, err)
	}
	logger.Info("tree built", zap.Int("nodes", t.Len()-1))
	return t, nil
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&delimiterFlag, "delimiter", rows.DefaultDelimiter, "Field delimiter (env: ROWTREE_DELIMITER)")
	cmd.Flags().StringVar(&inputEncodingFlag, "input-encoding", "", "Input charset, any IANA name (default UTF-8)")
}
