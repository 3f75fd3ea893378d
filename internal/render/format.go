package render

import (
	"errors"
	"strings"
)

// DocFormat selects how a built tree is serialized.
type DocFormat string

const (
	// DocXML is an XML document with a declared charset (default).
	DocXML DocFormat = "xml"
	// DocJSON is a JSON object tree.
	DocJSON DocFormat = "json"
	// DocYAML is a YAML object tree.
	DocYAML DocFormat = "yaml"
	// DocText is an indented tree for terminals.
	DocText DocFormat = "text"
)

// ParseDocFormat converts a string to a DocFormat.
// Empty string defaults to DocXML.
func ParseDocFormat(s string) (DocFormat, error) {
	switch DocFormat(strings.ToLower(strings.TrimSpace(s))) {
	case DocXML, "":
		return DocXML, nil
	case DocJSON:
		return DocJSON, nil
	case DocYAML, "yml":
		return DocYAML, nil
	case DocText:
		return DocText, nil
	default:
		return "", errors.New("invalid --to format (expected xml|json|yaml|text)")
	}
}

// Format is the output format of command reports.
type Format string

const (
	// FormatText is human-readable key-value format (default).
	FormatText Format = "text"
	// FormatJSON is pretty-printed JSON format.
	FormatJSON Format = "json"
	// FormatNDJSON is newline-delimited JSON format.
	FormatNDJSON Format = "ndjson"
	// FormatTable is tabular format for lists.
	FormatTable Format = "table"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format type.
// Empty string defaults to FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatNDJSON:
		return FormatNDJSON, nil
	case FormatTable:
		return FormatTable, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", errors.New("invalid --output format (expected text|json|ndjson|table|yaml)")
	}
}

// IsStructured reports whether the format is machine-readable structured output.
func IsStructured(format Format) bool {
	switch format {
	case FormatJSON, FormatNDJSON, FormatYAML:
		return true
	default:
		return false
	}
}
