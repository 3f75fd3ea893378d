// Package charset resolves IANA character set names for reading rows and
// writing documents.
package charset

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Default is the charset used when none is configured.
const Default = "UTF-8"

// Charset is a resolved character set.
type Charset struct {
	// Name is the canonical IANA name, suitable for an XML declaration.
	Name string
	enc  encoding.Encoding
}

// Lookup resolves a charset by IANA name or alias. Empty means UTF-8.
func Lookup(name string) (Charset, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = Default
	}
	enc, err := ianaindex.IANA.Encoding(trimmed)
	if err != nil {
		return Charset{}, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	if enc == nil {
		return Charset{}, fmt.Errorf("unsupported charset %q", name)
	}
	canonical, err := ianaindex.MIME.Name(enc)
	if err != nil || canonical == "" {
		canonical, err = ianaindex.IANA.Name(enc)
	}
	if err != nil || canonical == "" {
		canonical = strings.ToUpper(trimmed)
	}
	return Charset{Name: canonical, enc: enc}, nil
}

// IsUTF8 reports whether the charset is UTF-8.
func (c Charset) IsUTF8() bool {
	return c.enc == nil || c.enc == unicode.UTF8
}

// NewReader decodes r into UTF-8. For UTF-8 input a leading byte order mark
// is dropped.
func (c Charset) NewReader(r io.Reader) io.Reader {
	if c.IsUTF8() {
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	}
	return transform.NewReader(r, c.enc.NewDecoder())
}

// NewWriter encodes UTF-8 text written to it into the charset. Runes the
// charset cannot represent are written as XML numeric character references
// when xmlEscape is set and as the charset's replacement byte otherwise.
// The returned writer must be closed to flush buffered output.
func (c Charset) NewWriter(w io.Writer, xmlEscape bool) io.WriteCloser {
	if c.IsUTF8() {
		return nopCloser{w}
	}
	var enc *encoding.Encoder
	if xmlEscape {
		enc = encoding.HTMLEscapeUnsupported(c.enc.NewEncoder())
	} else {
		enc = encoding.ReplaceUnsupported(c.enc.NewEncoder())
	}
	return transform.NewWriter(w, enc)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
