package object

import (
	"fmt"
	"sort"

	"github.com/lydakis/hostbridge/internal/native"
)

// Node is the reference LiveObject implementation: a named graph node
// with a declared member table, child nodes, and attached capability
// objects. Nodes are not safe for concurrent mutation; the run loop
// serializes all access (see internal/runloop).
type Node struct {
	name     string
	kind     string
	parent   *Node
	children []*Node
	members  map[string]*memberSlot
	order    []string
	caps     map[string]*Node
}

type memberSlot struct {
	shape   native.Shape
	value   any
	private bool
	exposed bool
}

// NewNode creates a graph node of the given kind.
func NewNode(name, kind string) *Node {
	return &Node{
		name:    name,
		kind:    kind,
		members: make(map[string]*memberSlot),
		caps:    make(map[string]*Node),
	}
}

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Kind returns the node's object kind.
func (n *Node) Kind() string { return n.kind }

// Path returns the slash-delimited path from the root to this node.
func (n *Node) Path() string {
	if n.parent == nil {
		return n.name
	}
	return n.parent.Path() + "/" + n.name
}

// AddChild attaches a child node and returns it.
func (n *Node) AddChild(child *Node) *Node {
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// Children returns the node's children in insertion order.
func (n *Node) Children() []*Node { return n.children }

// DefineMember declares a public member with its shape and initial value.
func (n *Node) DefineMember(name string, shape native.Shape, value any) *Node {
	n.defineMember(name, shape, value, false, false)
	return n
}

// DefinePrivateMember declares a non-public member. It is invisible to
// the bridge unless exposed is true; exposed private members behave
// identically to public ones.
func (n *Node) DefinePrivateMember(name string, shape native.Shape, value any, exposed bool) *Node {
	n.defineMember(name, shape, value, true, exposed)
	return n
}

func (n *Node) defineMember(name string, shape native.Shape, value any, private, exposed bool) {
	if _, ok := n.members[name]; !ok {
		n.order = append(n.order, name)
	}
	n.members[name] = &memberSlot{shape: shape, value: value, private: private, exposed: exposed}
}

// AttachCapability attaches a capability object (e.g. a "camera" on a
// scene node). The capability's kind is its lookup key.
func (n *Node) AttachCapability(c *Node) *Node {
	c.parent = n
	n.caps[c.kind] = c
	return n
}

// Capability returns the attached capability of the given kind, nil when
// absent.
func (n *Node) Capability(kind string) LiveObject {
	c, ok := n.caps[kind]
	if !ok {
		return nil // interface nil, not typed nil
	}
	return c
}

// Members enumerates visible members in declaration order.
func (n *Node) Members() []Member {
	out := make([]Member, 0, len(n.order))
	for _, name := range n.order {
		slot := n.members[name]
		if slot.private && !slot.exposed {
			continue
		}
		out = append(out, Member{Name: name, Shape: slot.shape, Exposed: slot.private && slot.exposed})
	}
	return out
}

// Shape reports the declared shape of a visible member.
func (n *Node) Shape(name string) (native.Shape, bool) {
	slot, ok := n.visible(name)
	if !ok {
		return native.Shape{}, false
	}
	return slot.shape, true
}

// Get reads a visible member's current value.
func (n *Node) Get(name string) (any, bool) {
	slot, ok := n.visible(name)
	if !ok {
		return nil, false
	}
	return slot.value, true
}

// Set writes a visible member. The value is assumed to already match the
// declared shape; conversion happens upstream in the applier.
func (n *Node) Set(name string, value any) error {
	slot, ok := n.visible(name)
	if !ok {
		return fmt.Errorf("object %s has no member %q", n.Path(), name)
	}
	slot.value = value
	return nil
}

func (n *Node) visible(name string) (*memberSlot, bool) {
	slot, ok := n.members[name]
	if !ok || (slot.private && !slot.exposed) {
		return nil, false
	}
	return slot, true
}

// Graph is a set of root nodes.
type Graph struct {
	roots []*Node
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddRoot attaches a root node and returns it.
func (g *Graph) AddRoot(root *Node) *Node {
	g.roots = append(g.roots, root)
	return root
}

// Roots returns the root nodes in insertion order.
func (g *Graph) Roots() []*Node { return g.roots }

// Walk visits every node depth-first from every root, in traversal
// order. Returning false from fn stops the walk.
func (g *Graph) Walk(fn func(*Node) bool) {
	var visit func(*Node) bool
	visit = func(n *Node) bool {
		if !fn(n) {
			return false
		}
		for _, c := range n.children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	for _, r := range g.roots {
		if !visit(r) {
			return
		}
	}
}

// Kinds returns the sorted set of object kinds present in the graph.
func (g *Graph) Kinds() []string {
	seen := make(map[string]struct{})
	g.Walk(func(n *Node) bool {
		seen[n.kind] = struct{}{}
		return true
	})
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
