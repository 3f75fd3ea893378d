package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Table represents a pre-rendered table for table and text output.
type Table struct {
	Headers []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Printer prints command reports in one of the report formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{
		w:      w,
		format: format,
	}
}

// Print outputs data in the configured format. JSON and NDJSON honour a jq
// query stored in ctx.
func (p *Printer) Print(ctx context.Context, data interface{}) error {
	if data == nil {
		return nil
	}

	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetEscapeHTML(false)
		if query := QueryFromContext(ctx); query != "" {
			return runQuery(enc, query, data)
		}
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatNDJSON:
		return p.printNDJSON(ctx, data)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(data)
	case FormatTable:
		table, ok := data.(Table)
		if !ok {
			return fmt.Errorf("table format requires a list of items")
		}
		return p.printTable(table)
	case FormatText:
		return p.printText(data)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

func (p *Printer) printNDJSON(ctx context.Context, data interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	if query := QueryFromContext(ctx); query != "" {
		return runQuery(enc, query, data)
	}

	if table, ok := data.(Table); ok {
		for _, row := range table.Rows {
			record := make(map[string]string, len(row))
			for i, cell := range row {
				if i < len(table.Headers) {
					record[table.Headers[i]] = cell
				}
			}
			if err := enc.Encode(record); err != nil {
				return err
			}
		}
		return nil
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			if err := enc.Encode(v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(data)
}

// printText outputs tables aligned, maps as sorted key-value pairs, slices
// one item per line and anything else as-is.
func (p *Printer) printText(data interface{}) error {
	switch v := data.(type) {
	case Table:
		return p.printTable(v)
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, err := fmt.Fprintf(p.w, "%s: %v\n", key, v[key]); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for _, item := range v {
			if _, err := fmt.Fprintln(p.w, item); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintln(p.w, data)
		return err
	}
}

func (p *Printer) printTable(table Table) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)

	for i, h := range table.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, h)
	}
	fmt.Fprintln(w)

	for _, row := range table.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}

	return w.Flush()
}
