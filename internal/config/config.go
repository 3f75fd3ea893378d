package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/rowtree/internal/tree"
)

// AppName is the application name used for the config directory
const AppName = "rowtree"

// Config holds CLI configuration
type Config struct {
	Delimiter      string               `yaml:"delimiter,omitempty" toml:"delimiter,omitempty"`
	InputEncoding  string               `yaml:"input_encoding,omitempty" toml:"input_encoding,omitempty"`
	OutputEncoding string               `yaml:"output_encoding,omitempty" toml:"output_encoding,omitempty"`
	Indent         int                  `yaml:"indent,omitempty" toml:"indent,omitempty"` // 0 = default, negative = none
	RootName       string               `yaml:"root_name,omitempty" toml:"root_name,omitempty"`
	DocumentFormat string               `yaml:"document_format,omitempty" toml:"document_format,omitempty"` // xml, json, yaml, text
	OutputFormat   string               `yaml:"output_format,omitempty" toml:"output_format,omitempty"`     // text, json, ndjson, table, yaml
	LogLevel       string               `yaml:"log_level,omitempty" toml:"log_level,omitempty"`
	Tags           map[string]TagConfig `yaml:"tags,omitempty" toml:"tags,omitempty"`
}

// TagConfig overrides the code, element name or field names of one tag
// kind. Empty values keep the defaults.
type TagConfig struct {
	Code   string   `json:"code,omitempty" yaml:"code,omitempty" toml:"code,omitempty"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty" toml:"fields,omitempty"`
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ReadConfig reads the config file from the default location
func ReadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load loads config from the given path. Files ending in .toml are read as
// TOML, anything else as YAML. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		return &cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save saves config to the given path, in TOML when the path ends in .toml
func (c *Config) Save(path string) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Schema returns the default tag schema with this config's overrides
// applied.
func (c *Config) Schema() (*tree.Schema, error) {
	specs := tree.DefaultSpecs()
	root := tree.DefaultRoot
	if c == nil {
		return tree.NewSchema(root, specs...)
	}
	if strings.TrimSpace(c.RootName) != "" {
		root = strings.TrimSpace(c.RootName)
	}

	keys := make([]string, 0, len(c.Tags))
	for key := range c.Tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		kind, err := tree.ParseKind(key)
		if err != nil {
			return nil, fmt.Errorf("config tags: %w", err)
		}
		override := c.Tags[key]
		spec := &specs[kind]
		if override.Code != "" {
			spec.Code = override.Code
		}
		if override.Name != "" {
			spec.Name = override.Name
		}
		if len(override.Fields) > 0 {
			spec.Fields = override.Fields
		}
	}

	schema, err := tree.NewSchema(root, specs...)
	if err != nil {
		return nil, fmt.Errorf("config tags: %w", err)
	}
	return schema, nil
}
