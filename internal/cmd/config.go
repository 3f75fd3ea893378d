package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/rowtree/internal/config"
	"github.com/salmonumbrella/rowtree/internal/logging"
	"github.com/salmonumbrella/rowtree/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/rowtree/config.yaml.

You can view, set, or unset scalar keys such as delimiter, input_encoding,
output_encoding, indent, root_name, document_format, output_format and
log_level. Tag overrides live under "tags" and are edited in the file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		if structuredOutputRequested() {
			return printReport(configOutput(cfg))
		}

		out := stdoutFromContext(cmd.Context())
		fmt.Fprintln(out, "Config:")
		for _, key := range supportedConfigKeys() {
			fmt.Fprintf(out, "  %s: %s\n", key, configValue(cfg, key))
		}
		if len(cfg.Tags) > 0 {
			kinds := make([]string, 0, len(cfg.Tags))
			for kind := range cfg.Tags {
				kinds = append(kinds, kind)
			}
			sort.Strings(kinds)
			fmt.Fprintln(out, "  tags:")
			for _, kind := range kinds {
				tag := cfg.Tags[kind]
				fmt.Fprintf(out, "    %s: code=%s name=%s fields=%s\n", kind, tag.Code, tag.Name, strings.Join(tag.Fields, ","))
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := supportedConfigKeys()
		sort.Strings(keys)

		if structuredOutputRequested() {
			return printReport(keys)
		}

		out := stdoutFromContext(cmd.Context())
		fmt.Fprintln(out, "Supported keys:")
		for _, key := range keys {
			fmt.Fprintf(out, "  %s\n", key)
		}
		return nil
	},
}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

func supportedConfigKeys() []string {
	return []string{
		"delimiter",
		"input_encoding",
		"output_encoding",
		"indent",
		"root_name",
		"document_format",
		"output_format",
		"log_level",
	}
}

func configOutput(cfg *config.Config) map[string]interface{} {
	out := make(map[string]interface{}, len(supportedConfigKeys())+1)
	for _, key := range supportedConfigKeys() {
		out[key] = configValue(cfg, key)
	}
	if len(cfg.Tags) > 0 {
		out["tags"] = cfg.Tags
	}
	return out
}

func configValue(cfg *config.Config, key string) string {
	switch key {
	case "delimiter":
		return cfg.Delimiter
	case "input_encoding":
		return cfg.InputEncoding
	case "output_encoding":
		return cfg.OutputEncoding
	case "indent":
		if cfg.Indent == 0 {
			return ""
		}
		return strconv.Itoa(cfg.Indent)
	case "root_name":
		return cfg.RootName
	case "document_format":
		return cfg.DocumentFormat
	case "output_format":
		return cfg.OutputFormat
	case "log_level":
		return cfg.LogLevel
	default:
		return ""
	}
}

func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "delimiter":
		if value == "" {
			return fmt.Errorf("delimiter must not be empty")
		}
		cfg.Delimiter = value
	case "input_encoding":
		cfg.InputEncoding = value
	case "output_encoding":
		cfg.OutputEncoding = value
	case "indent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("indent must be an integer: %w", err)
		}
		cfg.Indent = n
	case "root_name":
		cfg.RootName = value
		if _, err := cfg.Schema(); err != nil {
			return err
		}
	case "document_format":
		if _, err := render.ParseDocFormat(value); err != nil {
			return err
		}
		cfg.DocumentFormat = value
	case "output_format":
		if _, err := render.ParseFormat(value); err != nil {
			return err
		}
		cfg.OutputFormat = value
	case "log_level":
		if _, err := logging.ParseLevel(value); err != nil {
			return err
		}
		cfg.LogLevel = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func clearConfigValue(cfg *config.Config, key string) error {
	switch key {
	case "delimiter":
		cfg.Delimiter = ""
	case "input_encoding":
		cfg.InputEncoding = ""
	case "output_encoding":
		cfg.OutputEncoding = ""
	case "indent":
		cfg.Indent = 0
	case "root_name":
		cfg.RootName = ""
	case "document_format":
		cfg.DocumentFormat = ""
	case "output_format":
		cfg.OutputFormat = ""
	case "log_level":
		cfg.LogLevel = ""
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := args[1]
	if key != "delimiter" {
		value = strings.TrimSpace(value)
	}

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printReport(map[string]interface{}{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}

	fmt.Fprintf(stdoutFromContext(cmd.Context()), "Updated %s\n", key)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := clearConfigValue(cfg, key); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printReport(map[string]interface{}{
			"status": "removed",
			"key":    key,
		})
	}

	fmt.Fprintf(stdoutFromContext(cmd.Context()), "Removed %s\n", key)
	return nil
}
