package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTagKind matches any *UnknownTagKindError via errors.Is.
	ErrUnknownTagKind = errors.New("unknown tag kind")
	// ErrOrphanRow matches any *OrphanRowError via errors.Is.
	ErrOrphanRow = errors.New("orphan row")
)

// UnknownTagKindError reports a row whose leading code is not in the schema.
type UnknownTagKindError struct {
	Line int
	Code string
	Row  []string
}

func (e *UnknownTagKindError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: unknown tag %q in row %q", e.Line, e.Code, e.Row)
	}
	return fmt.Sprintf("unknown tag %q", e.Code)
}

func (e *UnknownTagKindError) Is(target error) bool { return target == ErrUnknownTagKind }

// OrphanRowError reports a structural row that arrived before any primary
// row opened a context.
type OrphanRowError struct {
	Line int
	Code string
	Kind Kind
}

func (e *OrphanRowError) Error() string {
	return fmt.Sprintf("line %d: no parent found for %s row %q", e.Line, e.Kind, e.Code)
}

func (e *OrphanRowError) Is(target error) bool { return target == ErrOrphanRow }
