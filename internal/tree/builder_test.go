package tree

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/salmonumbrella/rowtree/internal/rows"
)

func mkRows(fields ...[]string) []rows.Row {
	out := make([]rows.Row, len(fields))
	for i, f := range fields {
		out[i] = rows.Row{Line: i + 1, Fields: f}
	}
	return out
}

func royalRows() []rows.Row {
	return mkRows(
		[]string{"P", "Victoria", "Bernadotte"},
		[]string{"T", "070-0101010", "0459-123456"},
		[]string{"A", "Haga Slott", "Stockholm", "101"},
		[]string{"F", "Estelle", "2012"},
		[]string{"A", "Solliden", "Öland", "10002"},
		[]string{"F", "Oscar", "2016"},
		[]string{"T", "0702-020202", "02-202020"},
		[]string{"P", "Joe", "Biden"},
		[]string{"A", "White House", "Washington, D.C"},
	)
}

func countDescendants(n Node, k Kind) int {
	total := 0
	for _, child := range n.Children() {
		if child.Kind() == k {
			total++
		}
		total += countDescendants(child, k)
	}
	return total
}

func TestBuildRoyalExample(t *testing.T) {
	tr, err := BuildRows(royalRows(), DefaultSchema())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	root := tr.Root()
	if root.Name() != "people" {
		t.Fatalf("root name = %q, want people", root.Name())
	}
	persons := root.Children()
	if len(persons) != 2 {
		t.Fatalf("expected 2 persons, got %d", len(persons))
	}
	for _, p := range persons {
		if p.Kind() != KindPrimary || p.Name() != "person" {
			t.Fatalf("unexpected root child %s/%s", p.Kind(), p.Name())
		}
	}

	victoria := persons[0]
	if v, _ := victoria.Field("firstname"); v != "Victoria" {
		t.Fatalf("firstname = %q, want Victoria", v)
	}
	if v, _ := victoria.Field("lastname"); v != "Bernadotte" {
		t.Fatalf("lastname = %q, want Bernadotte", v)
	}

	families := victoria.ChildrenOfKind(KindNested)
	if len(families) != 2 {
		t.Fatalf("expected 2 families directly under Victoria, got %d", len(families))
	}
	for _, f := range families {
		if len(f.ChildrenOfKind(KindNested)) != 0 {
			t.Fatalf("family %q contains a nested family", f.Fields()[0].Value)
		}
	}
	if got := countDescendants(victoria, KindSubA); got != 2 {
		t.Fatalf("expected 2 addresses under Victoria, got %d", got)
	}
	if got := countDescendants(victoria, KindSubB); got != 2 {
		t.Fatalf("expected 2 phones under Victoria, got %d", got)
	}

	// Estelle owns Solliden, Oscar owns the second phone.
	estelle, oscar := families[0], families[1]
	if addrs := estelle.ChildrenOfKind(KindSubA); len(addrs) != 1 {
		t.Fatalf("expected 1 address under Estelle, got %d", len(addrs))
	} else if city, _ := addrs[0].Field("city"); city != "Öland" {
		t.Fatalf("city = %q, want Öland", city)
	}
	if phones := oscar.ChildrenOfKind(KindSubB); len(phones) != 1 {
		t.Fatalf("expected 1 phone under Oscar, got %d", len(phones))
	}

	joe := persons[1]
	children := joe.Children()
	if len(children) != 1 || children[0].Kind() != KindSubA {
		t.Fatalf("expected Joe to have exactly 1 address, got %d children", len(children))
	}
	if v, _ := children[0].Field("city"); v != "Washington, D.C" {
		t.Fatalf("city = %q", v)
	}
	if _, ok := children[0].Field("zipcode"); ok {
		t.Fatal("missing trailing field should be absent, not defaulted")
	}
}

func TestBuildSinglePrimaryWithSubs(t *testing.T) {
	tr, err := BuildRows(mkRows(
		[]string{"P", "Ada", "Lovelace"},
		[]string{"A", "St James's Square", "London", "SW1"},
		[]string{"T", "01", "02"},
		[]string{"A", "Ockham Park", "Surrey"},
	), DefaultSchema())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	persons := tr.Root().Children()
	if len(persons) != 1 {
		t.Fatalf("expected 1 root child, got %d", len(persons))
	}
	want := []Field{{Name: "firstname", Value: "Ada"}, {Name: "lastname", Value: "Lovelace"}}
	got := persons[0].Fields()
	if len(got) != len(want) {
		t.Fatalf("fields = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if n := len(persons[0].Children()); n != 3 {
		t.Fatalf("expected 3 sub rows under the person, got %d", n)
	}
	addr := persons[0].Children()[0]
	if addr.Fields()[2] != (Field{Name: "zipcode", Value: "SW1"}) {
		t.Fatalf("unexpected zipcode field %+v", addr.Fields()[2])
	}
}

func TestConsecutiveNestedRowsAreSiblings(t *testing.T) {
	tr, err := BuildRows(mkRows(
		[]string{"P", "Carl", "Gustaf"},
		[]string{"F", "Victoria", "1977"},
		[]string{"F", "Carl Philip", "1979"},
		[]string{"F", "Madeleine", "1982"},
	), DefaultSchema())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	person := tr.Root().Children()[0]
	families := person.Children()
	if len(families) != 3 {
		t.Fatalf("expected 3 sibling families, got %d", len(families))
	}
	for _, f := range families {
		parent, ok := f.Parent()
		if !ok || parent.ID() != person.ID() {
			t.Fatalf("family parent = %v, want person", parent.ID())
		}
		if len(f.Children()) != 0 {
			t.Fatalf("family %q should have no children", f.Fields()[0].Value)
		}
	}
}

func TestPrimaryClosesNestedContext(t *testing.T) {
	b := NewBuilder(DefaultSchema())
	for _, row := range mkRows(
		[]string{"P", "A", "B"},
		[]string{"F", "C", "1"},
		[]string{"P", "D", "E"},
		[]string{"T", "1", "2"},
	) {
		if err := b.Add(row); err != nil {
			t.Fatalf("add line %d: %v", row.Line, err)
		}
	}
	tr, err := b.Tree()
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	second := tr.Root().Children()[1]
	if len(second.ChildrenOfKind(KindSubB)) != 1 {
		t.Fatal("phone after second person should attach to that person")
	}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		want     State
		wantName string
	}{
		{"initial", nil, StateNoContext, ""},
		{"primary", [][]string{{"P", "a", "b"}}, StateInPrimary, "person"},
		{"sub keeps primary", [][]string{{"P", "a", "b"}, {"A", "x"}}, StateInPrimary, "person"},
		{"nested", [][]string{{"P", "a", "b"}, {"F", "n", "1"}}, StateInNested, "family"},
		{"sub keeps nested", [][]string{{"P", "a", "b"}, {"F", "n", "1"}, {"T", "1"}}, StateInNested, "family"},
		{"primary resets nested", [][]string{{"P", "a", "b"}, {"F", "n", "1"}, {"P", "c", "d"}}, StateInPrimary, "person"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(DefaultSchema())
			for _, row := range mkRows(tt.rows...) {
				if err := b.Add(row); err != nil {
					t.Fatalf("add: %v", err)
				}
			}
			if b.State() != tt.want {
				t.Fatalf("state = %s, want %s", b.State(), tt.want)
			}
			ctxNode, ok := b.Context()
			if tt.wantName == "" {
				if ok {
					t.Fatalf("expected no context, got %q", ctxNode.Name())
				}
				return
			}
			if !ok || ctxNode.Name() != tt.wantName {
				t.Fatalf("context = %q (ok=%v), want %q", ctxNode.Name(), ok, tt.wantName)
			}
		})
	}
}

func TestOrphanRows(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		kind Kind
	}{
		{"address first", []string{"A", "Haga Slott", "Stockholm"}, KindSubA},
		{"phone first", []string{"T", "070", "0459"}, KindSubB},
		{"family first", []string{"F", "Estelle", "2012"}, KindNested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := BuildRows(mkRows(tt.row, []string{"P", "Joe", "Biden"}), DefaultSchema())
			if tr != nil {
				t.Fatal("expected no tree on orphan row")
			}
			if !errors.Is(err, ErrOrphanRow) {
				t.Fatalf("expected ErrOrphanRow, got %v", err)
			}
			var orphan *OrphanRowError
			if !errors.As(err, &orphan) {
				t.Fatalf("expected *OrphanRowError, got %T", err)
			}
			if orphan.Line != 1 || orphan.Kind != tt.kind {
				t.Fatalf("unexpected orphan error %+v", orphan)
			}
		})
	}
}

func TestUnknownTagAbortsWithoutPartialTree(t *testing.T) {
	input := append(royalRows(), rows.Row{Line: 10, Fields: []string{"X", "Data"}})
	tr, err := BuildRows(input, DefaultSchema())
	if tr != nil {
		t.Fatal("expected no tree after unknown tag")
	}
	if !errors.Is(err, ErrUnknownTagKind) {
		t.Fatalf("expected ErrUnknownTagKind, got %v", err)
	}
	var unknown *UnknownTagKindError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownTagKindError, got %T", err)
	}
	if unknown.Line != 10 || unknown.Code != "X" {
		t.Fatalf("unexpected error %+v", unknown)
	}
	if len(unknown.Row) != 2 || unknown.Row[1] != "Data" {
		t.Fatalf("row = %q, want [X Data]", unknown.Row)
	}
	if !strings.Contains(err.Error(), "line 10") {
		t.Fatalf("message %q lacks line number", err.Error())
	}
}

func TestBuilderStaysFailed(t *testing.T) {
	b := NewBuilder(DefaultSchema())
	first := b.Add(rows.Row{Line: 1, Fields: []string{"Q"}})
	if first == nil {
		t.Fatal("expected error for unknown tag")
	}
	if err := b.Add(rows.Row{Line: 2, Fields: []string{"P", "Joe", "Biden"}}); err != first {
		t.Fatalf("expected the first error again, got %v", err)
	}
	if b.Rows() != 0 {
		t.Fatalf("rows = %d, want 0", b.Rows())
	}
	if _, err := b.Tree(); err != first {
		t.Fatalf("Tree() error = %v, want %v", err, first)
	}
}

func TestExtraValuesDropped(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr, err := BuildRows(mkRows(
		[]string{"P", "Joe", "Biden", "46th", "Delaware"},
	), DefaultSchema(), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	fields := tr.Root().Children()[0].Fields()
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %+v", fields)
	}

	dropped := logs.FilterMessage("extra field values dropped").All()
	if len(dropped) != 1 {
		t.Fatalf("expected 1 drop log entry, got %d", len(dropped))
	}
	if got := dropped[0].ContextMap()["dropped"]; got != int64(2) {
		t.Fatalf("dropped = %v, want 2", got)
	}
	if n := logs.FilterMessage("row attached").Len(); n != 1 {
		t.Fatalf("expected 1 attach log entry, got %d", n)
	}
}

func TestTagOnlyRow(t *testing.T) {
	tr, err := BuildRows(mkRows([]string{"P"}), DefaultSchema())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	person := tr.Root().Children()[0]
	if len(person.Fields()) != 0 {
		t.Fatalf("expected no fields, got %+v", person.Fields())
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, &sliceSource{rows: royalRows()}, DefaultSchema())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type failingSource struct{ err error }

func (f failingSource) Next() (rows.Row, error) { return rows.Row{}, f.err }

func TestBuildPropagatesReadErrors(t *testing.T) {
	readErr := errors.New("disk on fire")
	_, err := Build(context.Background(), failingSource{err: readErr}, nil)
	if !errors.Is(err, readErr) {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestCountByKindAndWalk(t *testing.T) {
	tr, err := BuildRows(royalRows(), DefaultSchema())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	counts := tr.CountByKind()
	want := map[Kind]int{KindPrimary: 2, KindSubA: 3, KindSubB: 2, KindNested: 2}
	for k, n := range want {
		if counts[k] != n {
			t.Fatalf("count[%s] = %d, want %d", k, counts[k], n)
		}
	}

	var names []string
	maxDepth := 0
	err = tr.Walk(func(n Node, depth int) error {
		names = append(names, n.Name())
		if depth > maxDepth {
			maxDepth = depth
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(names) != tr.Len() {
		t.Fatalf("walked %d nodes, tree has %d", len(names), tr.Len())
	}
	if names[0] != "people" || names[1] != "person" || names[2] != "phone" {
		t.Fatalf("unexpected walk order %v", names[:3])
	}
	if maxDepth != 3 {
		t.Fatalf("max depth = %d, want 3", maxDepth)
	}
}
