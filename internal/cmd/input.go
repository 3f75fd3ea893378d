package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/salmonumbrella/rowtree/internal/charset"
	"github.com/salmonumbrella/rowtree/internal/rows"
)

// readQuerySource reads a jq program from a file, or from stdin when source
// is "-", decoding it from the given input charset.
func readQuerySource(source string, stdin io.Reader, encoding string) (string, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return "", fmt.Errorf("empty query source")
	}

	cs, err := charset.Lookup(encoding)
	if err != nil {
		return "", fmt.Errorf("input encoding: %w", err)
	}

	var r io.Reader
	if trimmed == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		r = stdin
	} else {
		file, err := os.Open(trimmed)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", &rows.ResourceNotFoundError{Path: trimmed, Err: err}
			}
			return "", fmt.Errorf("failed to read query %s: %w", trimmed, err)
		}
		defer file.Close()
		r = file
	}

	data, err := io.ReadAll(cs.NewReader(r))
	if err != nil {
		return "", fmt.Errorf("failed to read query: %w", err)
	}

	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", fmt.Errorf("query %s is empty", trimmed)
	}
	return query, nil
}
