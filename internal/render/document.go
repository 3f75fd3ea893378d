// Package render serializes built trees and prints command reports.
package render

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/rowtree/internal/charset"
	"github.com/salmonumbrella/rowtree/internal/tree"
)

// DefaultIndent is the number of spaces per nesting level.
const DefaultIndent = 2

// Options controls document serialization.
type Options struct {
	Format DocFormat
	// Charset is the output encoding. Empty means UTF-8.
	Charset string
	// Indent is spaces per level; 0 means DefaultIndent, negative disables
	// indentation.
	Indent int
	// Query is a jq expression applied to JSON output.
	Query string
	// Color enables ANSI colours in text output.
	Color bool
}

func (o Options) indent() string {
	switch {
	case o.Indent < 0:
		return ""
	case o.Indent == 0:
		return strings.Repeat(" ", DefaultIndent)
	default:
		return strings.Repeat(" ", o.Indent)
	}
}

// Document is the JSON/YAML shape of a tree node.
type Document struct {
	Name     string       `json:"name" yaml:"name"`
	Fields   []tree.Field `json:"fields,omitempty" yaml:"fields,omitempty"`
	Children []Document   `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewDocument converts a tree node and its descendants.
func NewDocument(n tree.Node) Document {
	doc := Document{Name: n.Name(), Fields: n.Fields()}
	for _, child := range n.Children() {
		doc.Children = append(doc.Children, NewDocument(child))
	}
	return doc
}

// Serialize writes t to w in the requested format and charset. In XML
// output, characters that XML 1.0 cannot carry (control characters other
// than tab, newline and carriage return) are written as U+FFFD.
func Serialize(w io.Writer, t *tree.Tree, opts Options) error {
	if opts.Query != "" && opts.Format != DocJSON {
		return fmt.Errorf("--query requires --to json")
	}
	cs, err := charset.Lookup(opts.Charset)
	if err != nil {
		return fmt.Errorf("output encoding: %w", err)
	}

	out := cs.NewWriter(w, opts.Format == DocXML || opts.Format == "")
	switch opts.Format {
	case DocXML, "":
		err = writeXML(out, t, cs.Name, opts.indent())
	case DocJSON:
		err = writeJSON(out, t, opts)
	case DocYAML:
		err = writeYAML(out, t, opts)
	case DocText:
		err = writeText(out, t, opts)
	default:
		err = fmt.Errorf("unsupported document format: %s", opts.Format)
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

func writeXML(w io.Writer, t *tree.Tree, charsetName, indent string) error {
	if _, err := fmt.Fprintf(w, "<?xml version=\"1.0\" encoding=%q?>\n", charsetName); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", indent)
	if err := encodeNode(enc, t.Root()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// encodeNode emits leaf fields before child nodes, matching the order in
// which rows attached them.
func encodeNode(enc *xml.Encoder, n tree.Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Name()}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, f := range n.Fields() {
		if err := enc.EncodeElement(f.Value, xml.StartElement{Name: xml.Name{Local: f.Name}}); err != nil {
			return err
		}
	}
	for _, child := range n.Children() {
		if err := encodeNode(enc, child); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func writeJSON(w io.Writer, t *tree.Tree, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	doc := NewDocument(t.Root())
	if opts.Query != "" {
		return runQuery(enc, opts.Query, doc)
	}
	enc.SetIndent("", opts.indent())
	return enc.Encode(doc)
}

func writeYAML(w io.Writer, t *tree.Tree, opts Options) error {
	enc := yaml.NewEncoder(w)
	spaces := len(opts.indent())
	if spaces < 2 {
		spaces = 2
	}
	enc.SetIndent(spaces)
	if err := enc.Encode(NewDocument(t.Root())); err != nil {
		return err
	}
	return enc.Close()
}

func writeText(w io.Writer, t *tree.Tree, opts Options) error {
	nodeColor := color.New(color.FgCyan, color.Bold)
	keyColor := color.New(color.Faint)
	if opts.Color {
		nodeColor.EnableColor()
		keyColor.EnableColor()
	} else {
		nodeColor.DisableColor()
		keyColor.DisableColor()
	}

	step := opts.indent()
	if step == "" {
		step = " "
	}
	return t.Walk(func(n tree.Node, depth int) error {
		var b strings.Builder
		b.WriteString(strings.Repeat(step, depth))
		b.WriteString(nodeColor.Sprint(n.Name()))
		for _, f := range n.Fields() {
			b.WriteString(" ")
			b.WriteString(keyColor.Sprint(f.Name + "="))
			b.WriteString(f.Value)
		}
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}
