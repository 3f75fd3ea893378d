// Package tree builds a nested document from tagged rows.
//
// Nodes live in an arena owned by Tree and refer to their parent by index,
// so walking up from a node never needs a back-pointer into the structure.
package tree

// NodeID addresses a node inside its Tree.
type NodeID int

const (
	// RootID is the synthetic root of every tree.
	RootID NodeID = 0
	// NoNode marks an absent node, such as the root's parent.
	NoNode NodeID = -1
)

// Field is a named leaf value.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

type node struct {
	name     string
	kind     Kind
	line     int
	parent   NodeID
	fields   []Field
	children []NodeID
}

// Tree is an arena of nodes rooted at RootID.
type Tree struct {
	nodes []node
}

func newTree(rootName string) *Tree {
	return &Tree{nodes: []node{{name: rootName, kind: kindRoot, parent: NoNode}}}
}

func (t *Tree) add(parent NodeID, name string, kind Kind, line int) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{name: name, kind: kind, line: line, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

// Root returns the root node.
func (t *Tree) Root() Node { return Node{tree: t, id: RootID} }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) Node { return Node{tree: t, id: id} }

// CountByKind returns how many nodes of each kind the tree holds.
func (t *Tree) CountByKind() map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for _, n := range t.nodes[1:] {
		counts[n.kind]++
	}
	return counts
}

// Walk visits every node depth-first in document order. Returning an error
// from fn stops the walk.
func (t *Tree) Walk(fn func(n Node, depth int) error) error {
	return t.walk(RootID, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(Node, int) error) error {
	if err := fn(t.Node(id), depth); err != nil {
		return err
	}
	for _, child := range t.nodes[id].children {
		if err := t.walk(child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Node is a read-only view of one tree node.
type Node struct {
	tree *Tree
	id   NodeID
}

// ID returns the node's arena index.
func (n Node) ID() NodeID { return n.id }

// Name returns the element name.
func (n Node) Name() string { return n.tree.nodes[n.id].name }

// Kind returns the tag kind that produced the node.
func (n Node) Kind() Kind { return n.tree.nodes[n.id].kind }

// IsRoot reports whether n is the synthetic root.
func (n Node) IsRoot() bool { return n.id == RootID }

// Line returns the input line that produced the node, or 0 for the root.
func (n Node) Line() int { return n.tree.nodes[n.id].line }

// Parent returns the node's parent. The root has none.
func (n Node) Parent() (Node, bool) {
	p := n.tree.nodes[n.id].parent
	if p == NoNode {
		return Node{}, false
	}
	return Node{tree: n.tree, id: p}, true
}

// Fields returns the node's leaf fields in attachment order.
func (n Node) Fields() []Field {
	fields := n.tree.nodes[n.id].fields
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Field returns the value of the named leaf field.
func (n Node) Field(name string) (string, bool) {
	for _, f := range n.tree.nodes[n.id].fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Children returns the node's children in attachment order.
func (n Node) Children() []Node {
	ids := n.tree.nodes[n.id].children
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{tree: n.tree, id: id}
	}
	return out
}

// ChildrenOfKind returns the direct children produced by kind k.
func (n Node) ChildrenOfKind(k Kind) []Node {
	var out []Node
	for _, child := range n.Children() {
		if child.Kind() == k {
			out = append(out, child)
		}
	}
	return out
}
