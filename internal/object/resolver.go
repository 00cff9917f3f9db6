package object

import (
	"fmt"
	"regexp"
	"strings"
)

// Miss classifies a resolution that did not produce an object. The two
// non-None cases are reported distinctly so call sites can tell "no such
// path" from "path found, wrong kind"; most callers collapse both to an
// absent reference.
type Miss int

const (
	// MissNone means the resolution succeeded.
	MissNone Miss = iota
	// MissNotFound means no object exists at the path.
	MissNotFound
	// MissWrongKind means the path resolved but the object is neither of
	// the requested kind nor carries it as a capability.
	MissWrongKind
)

func (m Miss) String() string {
	switch m {
	case MissNone:
		return "none"
	case MissNotFound:
		return "not found"
	case MissWrongKind:
		return "wrong kind"
	default:
		return fmt.Sprintf("miss(%d)", int(m))
	}
}

// regexPrefix switches a pattern into raw regular-expression mode.
const regexPrefix = "regex:"

// Resolver resolves paths, patterns, and reference descriptors against a
// graph.
type Resolver struct {
	graph *Graph
}

// NewResolver creates a resolver over a graph.
func NewResolver(g *Graph) *Resolver {
	return &Resolver{graph: g}
}

// Resolve finds a single object. The path may be a bare name (first
// match anywhere in the graph), a slash-delimited path walked top-down,
// or a wildcard/regex pattern (first match in traversal order).
//
// When kind is non-empty and the resolved object is of a different kind,
// the object's capability of that kind is returned instead; if it has
// none, the result is (nil, MissWrongKind).
func (r *Resolver) Resolve(path, kind string) (LiveObject, Miss) {
	node := r.lookup(path)
	if node == nil {
		return nil, MissNotFound
	}
	return r.withKind(node, kind)
}

// ResolveDescriptor resolves a reference encoded in any of the wire
// conventions: a plain string path, {"ref": path}, or a typed
// descriptor {"path": path, "kind": kind}. The kind argument is the
// member's declared kind; a descriptor kind overrides it.
func (r *Resolver) ResolveDescriptor(ref any, kind string) (LiveObject, Miss, error) {
	switch v := ref.(type) {
	case string:
		obj, miss := r.Resolve(v, kind)
		return obj, miss, nil
	case map[string]any:
		if p, ok := v["ref"].(string); ok {
			obj, miss := r.Resolve(p, kind)
			return obj, miss, nil
		}
		if p, ok := v["path"].(string); ok {
			if k, ok := v["kind"].(string); ok && k != "" {
				kind = k
			}
			obj, miss := r.Resolve(p, kind)
			return obj, miss, nil
		}
		return nil, MissNotFound, fmt.Errorf("reference map needs a %q or %q key", "ref", "path")
	default:
		return nil, MissNotFound, fmt.Errorf("unsupported reference encoding %T", ref)
	}
}

// FindAll returns every object whose full path matches the pattern, in
// depth-first traversal order. Patterns support * (any run) and ?
// (exactly one character), or raw regular expressions with the "regex:"
// prefix. Matching is case-insensitive and anchored.
func (r *Resolver) FindAll(pattern string) ([]LiveObject, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	var out []LiveObject
	r.graph.Walk(func(n *Node) bool {
		if re.MatchString(n.Path()) || re.MatchString(n.Name()) {
			out = append(out, n)
		}
		return true
	})
	return out, nil
}

func (r *Resolver) lookup(path string) *Node {
	if isPattern(path) {
		re, err := compilePattern(path)
		if err != nil {
			return nil
		}
		var found *Node
		r.graph.Walk(func(n *Node) bool {
			if re.MatchString(n.Path()) || re.MatchString(n.Name()) {
				found = n
				return false
			}
			return true
		})
		return found
	}

	if strings.Contains(path, "/") {
		return r.walkPath(path)
	}

	// Bare name: first exact match anywhere, traversal order.
	var found *Node
	r.graph.Walk(func(n *Node) bool {
		if n.Name() == path {
			found = n
			return false
		}
		return true
	})
	return found
}

func (r *Resolver) walkPath(path string) *Node {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 {
		return nil
	}
	for _, root := range r.graph.Roots() {
		if root.Name() != segments[0] {
			continue
		}
		if n := descend(root, segments[1:]); n != nil {
			return n
		}
	}
	return nil
}

func descend(n *Node, segments []string) *Node {
	if len(segments) == 0 {
		return n
	}
	for _, c := range n.Children() {
		if c.Name() == segments[0] {
			if found := descend(c, segments[1:]); found != nil {
				return found
			}
		}
	}
	return nil
}

func (r *Resolver) withKind(n *Node, kind string) (LiveObject, Miss) {
	if kind == "" || n.Kind() == kind {
		return n, MissNone
	}
	if c := n.Capability(kind); c != nil {
		return c, MissNone
	}
	return nil, MissWrongKind
}

func isPattern(path string) bool {
	return strings.HasPrefix(path, regexPrefix) ||
		strings.ContainsAny(path, "*?")
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if raw, ok := strings.CutPrefix(pattern, regexPrefix); ok {
		re, err := regexp.Compile("(?i)" + raw)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", raw, err)
		}
		return re, nil
	}

	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid wildcard pattern %q: %w", pattern, err)
	}
	return re, nil
}
