// Package rows reads delimited, tagged rows from flat text input.
//
// Lines are split on a fixed delimiter with no quoting or escaping, so a
// field can never contain the delimiter. Empty lines are skipped.
package rows

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/salmonumbrella/rowtree/internal/charset"
)

// DefaultDelimiter separates fields when none is configured.
const DefaultDelimiter = "|"

const maxLineSize = 1 << 20

// Row is one non-empty input line. Fields[0] is the tag code.
type Row struct {
	Line   int      `json:"line" yaml:"line"`
	Fields []string `json:"fields" yaml:"fields"`
}

// Code returns the row's tag code.
func (r Row) Code() string {
	if len(r.Fields) == 0 {
		return ""
	}
	return r.Fields[0]
}

// Values returns the positional field values following the tag code.
func (r Row) Values() []string {
	if len(r.Fields) < 2 {
		return nil
	}
	return r.Fields[1:]
}

// Options configures a Reader.
type Options struct {
	// Delimiter separates fields. Empty means DefaultDelimiter.
	Delimiter string
	// Charset names the input encoding. Empty means UTF-8.
	Charset string
}

// Reader yields rows in input order.
type Reader struct {
	scanner   *bufio.Scanner
	closer    io.Closer
	delimiter string
	line      int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	delimiter := opts.Delimiter
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	cs, err := charset.Lookup(opts.Charset)
	if err != nil {
		return nil, fmt.Errorf("input encoding: %w", err)
	}

	scanner := bufio.NewScanner(cs.NewReader(r))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: scanner, delimiter: delimiter}, nil
}

// Open opens path for reading, or stdin when path is "-". A missing file is
// reported as *ResourceNotFoundError.
func Open(path string, stdin io.Reader, opts Options) (*Reader, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("empty input source")
	}

	if trimmed == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return NewReader(stdin, opts)
	}

	file, err := os.Open(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ResourceNotFoundError{Path: trimmed, Err: err}
		}
		return nil, fmt.Errorf("failed to open %s: %w", trimmed, err)
	}

	r, err := NewReader(file, opts)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// Next returns the next non-empty row, or io.EOF at the end of input.
func (r *Reader) Next() (Row, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSuffix(r.scanner.Text(), "\r")
		if text == "" {
			continue
		}
		return Row{Line: r.line, Fields: strings.Split(text, r.delimiter)}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Row{}, fmt.Errorf("failed to read input at line %d: %w", r.line+1, err)
	}
	return Row{}, io.EOF
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// ReadAll drains r.
func ReadAll(r *Reader) ([]Row, error) {
	var out []Row
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
}
