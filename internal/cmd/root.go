package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/salmonumbrella/rowtree/internal/config"
	"github.com/salmonumbrella/rowtree/internal/logging"
	"github.com/salmonumbrella/rowtree/internal/render"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = v
	rootCmd.SetVersionTemplate(fmt.Sprintf("rowtree version %s (commit: %s, built: %s)\n", version, commit, date))
}

// Global flags
var (
	configFile string
	outputFmt  string
	outputType render.Format
	errorFmt   string
	quietFlag  bool
	logLevel   string
	debug      bool
)

// loadedConfig is the configuration resolved for the running command
var loadedConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "rowtree",
	Short: "Convert tagged rows into nested documents",
	Long: `rowtree turns flat files of delimited, tagged rows into nested documents.

Each row starts with a tag code. Primary rows open a new top-level record,
sub rows attach to the record (or family) currently open, and nested rows
open a family inside the current record.

Environment Variables:
  ROWTREE_DELIMITER  Field delimiter (default "|")
  ROWTREE_LOG_LEVEL  Log level (debug|info|warn|error)`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true

		skipConfigLoad := cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "config")
		cfg := &config.Config{}
		if !skipConfigLoad {
			loadedCfg, err := loadConfigFromFlag()
			if err != nil {
				return formatConfigLoadError(err)
			}
			cfg = loadedCfg
		}
		loadedConfig = cfg

		// Output format selection: --output > config > default
		formatStr := outputFmt
		if !flagChanged(cmd, "output") && strings.TrimSpace(cfg.OutputFormat) != "" {
			formatStr = strings.TrimSpace(cfg.OutputFormat)
		}
		if !flagChanged(cmd, "output") && !isTerminal(cmd.OutOrStdout()) && strings.TrimSpace(cfg.OutputFormat) == "" {
			formatStr = "json"
		}
		format, err := render.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outputType = format
		outputFmt = string(format)

		logger, err := logging.New(resolveLogLevel(cmd, cfg), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = withIO(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		ctx = withLogger(ctx, logger)
		ctx = render.WithFormat(ctx, outputType)
		ctx = render.WithQuiet(ctx, quietFlag)
		ctx = WithErrorFormat(ctx, errorFmt)
		cmd.SetContext(ctx)
		cmd.Root().SetContext(ctx)

		if err := validateErrorFormat(errorFmt); err != nil {
			return err
		}
		if effectiveErrorFormat(ctx) != "text" {
			cmd.SilenceUsage = true
		}
		return nil
	},
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printCommandError(currentContext(), err)
		return err
	}
	return nil
}

// GetOutputFormat returns the configured report format
func GetOutputFormat() render.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := render.ParseFormat(outputFmt)
	if err != nil {
		return render.FormatText
	}
	return parsed
}

func resolveLogLevel(cmd *cobra.Command, cfg *config.Config) string {
	if debug {
		return "debug"
	}
	if flagChanged(cmd, "log-level") {
		return logLevel
	}
	if v := strings.TrimSpace(envGet("ROWTREE_LOG_LEVEL")); v != "" {
		return v
	}
	if cfg != nil && strings.TrimSpace(cfg.LogLevel) != "" {
		return strings.TrimSpace(cfg.LogLevel)
	}
	return logLevel
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("rowtree version %s (commit: %s, built: %s)\n", version, commit, date))

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file, YAML or .toml (default: ~/.config/rowtree/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Report format (text|json|ndjson|table|yaml)")
	rootCmd.PersistentFlags().StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "Log level (debug|info|warn|error) (env: ROWTREE_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func loggerOrNop(ctx context.Context) *zap.Logger {
	if l := loggerFromContext(ctx); l != nil {
		return l
	}
	return zap.NewNop()
}
