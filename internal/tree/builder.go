package tree

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/salmonumbrella/rowtree/internal/rows"
)

// State names where the attachment context currently points.
type State int

const (
	// StateNoContext holds until the first primary row.
	StateNoContext State = iota
	// StateInPrimary means the context is a primary node.
	StateInPrimary
	// StateInNested means the context is a nested node.
	StateInNested
)

func (s State) String() string {
	switch s {
	case StateNoContext:
		return "no_context"
	case StateInPrimary:
		return "in_primary"
	case StateInNested:
		return "in_nested"
	default:
		return "unknown"
	}
}

// Builder reduces rows into a tree, one row at a time, in input order.
// The first failing row poisons the builder; later calls return the same
// error without touching the tree.
type Builder struct {
	schema  *Schema
	tree    *Tree
	context NodeID
	err     error
	rows    int
	logger  *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for per-row debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder returns a Builder holding an empty tree and no context.
func NewBuilder(schema *Schema, opts ...Option) *Builder {
	if schema == nil {
		schema = DefaultSchema()
	}
	b := &Builder{
		schema:  schema,
		tree:    newTree(schema.Root()),
		context: NoNode,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State reports the current attachment state.
func (b *Builder) State() State {
	if b.context == NoNode {
		return StateNoContext
	}
	if b.tree.nodes[b.context].kind == KindNested {
		return StateInNested
	}
	return StateInPrimary
}

// Context returns the current attachment context, if any.
func (b *Builder) Context() (Node, bool) {
	if b.context == NoNode {
		return Node{}, false
	}
	return b.tree.Node(b.context), true
}

// Rows returns how many rows were attached.
func (b *Builder) Rows() int { return b.rows }

// Add classifies row, picks its parent, attaches a new node and advances the
// context.
func (b *Builder) Add(row rows.Row) error {
	if b.err != nil {
		return b.err
	}

	spec, err := b.schema.Classify(row.Code())
	if err != nil {
		var unknown *UnknownTagKindError
		if errors.As(err, &unknown) {
			unknown.Line = row.Line
			unknown.Row = row.Fields
		}
		b.err = err
		return err
	}

	parent, err := b.attachmentPoint(spec, row)
	if err != nil {
		b.err = err
		return err
	}

	id := b.attach(parent, spec, row)
	if spec.Kind == KindPrimary || spec.Kind == KindNested {
		b.context = id
	}
	b.rows++

	b.logger.Debug("row attached",
		zap.Int("line", row.Line),
		zap.String("code", spec.Code),
		zap.Stringer("kind", spec.Kind),
		zap.String("parent", b.tree.nodes[parent].name),
		zap.Stringer("state", b.State()),
	)
	return nil
}

// attachmentPoint decides which node receives a row of the given kind.
func (b *Builder) attachmentPoint(spec TagSpec, row rows.Row) (NodeID, error) {
	switch spec.Kind {
	case KindPrimary:
		return RootID, nil
	case KindSubA, KindSubB:
		if b.context == NoNode {
			return NoNode, &OrphanRowError{Line: row.Line, Code: spec.Code, Kind: spec.Kind}
		}
		return b.context, nil
	case KindNested:
		if b.context == NoNode {
			return NoNode, &OrphanRowError{Line: row.Line, Code: spec.Code, Kind: spec.Kind}
		}
		// Nested nodes never contain each other: step out of an open one.
		parent := b.context
		if b.tree.nodes[parent].kind == KindNested {
			parent = b.tree.nodes[parent].parent
		}
		return parent, nil
	}
	panic(fmt.Sprintf("tree: unhandled tag kind %d", spec.Kind))
}

// attach creates the node for row under parent and labels its values
// positionally. Values beyond the tag's field names are dropped.
func (b *Builder) attach(parent NodeID, spec TagSpec, row rows.Row) NodeID {
	id := b.tree.add(parent, spec.Name, spec.Kind, row.Line)

	values := row.Values()
	if extra := len(values) - len(spec.Fields); extra > 0 {
		b.logger.Debug("extra field values dropped",
			zap.Int("line", row.Line),
			zap.String("code", spec.Code),
			zap.Int("dropped", extra),
		)
		values = values[:len(spec.Fields)]
	}

	fields := make([]Field, len(values))
	for i, value := range values {
		fields[i] = Field{Name: spec.Fields[i], Value: value}
	}
	b.tree.nodes[id].fields = fields
	return id
}

// Tree returns the built tree, or the error that stopped the build.
func (b *Builder) Tree() (*Tree, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tree, nil
}

// RowSource yields rows in input order and io.EOF at the end.
type RowSource interface {
	Next() (rows.Row, error)
}

// Build consumes src to the end and returns the finished tree. The first
// read error, unknown tag or orphan row aborts the build and no tree is
// returned.
func Build(ctx context.Context, src RowSource, schema *Schema, opts ...Option) (*Tree, error) {
	b := NewBuilder(schema, opts...)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := b.Add(row); err != nil {
			return nil, err
		}
	}
	return b.Tree()
}

// BuildRows is Build over an in-memory slice.
func BuildRows(rowList []rows.Row, schema *Schema, opts ...Option) (*Tree, error) {
	return Build(context.Background(), &sliceSource{rows: rowList}, schema, opts...)
}

type sliceSource struct {
	rows []rows.Row
	pos  int
}

func (s *sliceSource) Next() (rows.Row, error) {
	if s.pos >= len(s.rows) {
		return rows.Row{}, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}
