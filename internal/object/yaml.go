package object

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lydakis/hostbridge/internal/native"
)

// Scene fixture format, YAML:
//
//	roots:
//	  - name: Level
//	    kind: node
//	    members:
//	      visible: {shape: bool, value: true}
//	    capabilities:
//	      - name: MainCamera
//	        kind: camera
//	    children:
//	      - name: Player
//	        kind: node
//
// Member values are plain YAML scalars/maps converted through the same
// converter chain as wire payloads, so a fixture can say `value: "red"`
// for a color member.

type sceneDoc struct {
	Roots []sceneNode `yaml:"roots"`
}

type sceneNode struct {
	Name         string                 `yaml:"name"`
	Kind         string                 `yaml:"kind"`
	Members      map[string]sceneMember `yaml:"members"`
	MemberOrder  []string               `yaml:"member_order"`
	Children     []sceneNode            `yaml:"children"`
	Capabilities []sceneNode            `yaml:"capabilities"`
}

type sceneMember struct {
	Shape   string `yaml:"shape"`
	Value   any    `yaml:"value"`
	Private bool   `yaml:"private"`
	Exposed bool   `yaml:"exposed"`
}

// LoadGraph reads a scene fixture file and builds the graph it
// describes. Member initial values are left in wire form; the first
// conversion happens when a command touches them.
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene %s: %w", path, err)
	}
	return ParseGraph(data)
}

// ParseGraph builds a graph from fixture bytes.
func ParseGraph(data []byte) (*Graph, error) {
	var doc sceneDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}

	g := NewGraph()
	for _, r := range doc.Roots {
		node, err := buildNode(r)
		if err != nil {
			return nil, err
		}
		g.AddRoot(node)
	}
	return g, nil
}

func buildNode(sn sceneNode) (*Node, error) {
	if sn.Name == "" {
		return nil, fmt.Errorf("scene node without a name")
	}
	kind := sn.Kind
	if kind == "" {
		kind = "node"
	}
	n := NewNode(sn.Name, kind)

	for _, name := range memberOrder(sn) {
		m := sn.Members[name]
		shape, err := native.ParseShape(m.Shape)
		if err != nil {
			return nil, fmt.Errorf("node %s member %s: %w", sn.Name, name, err)
		}
		if m.Private {
			n.DefinePrivateMember(name, shape, m.Value, m.Exposed)
		} else {
			n.DefineMember(name, shape, m.Value)
		}
	}

	for _, c := range sn.Capabilities {
		capNode, err := buildNode(c)
		if err != nil {
			return nil, err
		}
		n.AttachCapability(capNode)
	}

	for _, c := range sn.Children {
		child, err := buildNode(c)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

// memberOrder honors an explicit member_order list; unlisted members
// follow in map-iteration order, which YAML does not guarantee, so
// fixtures that care list everything.
func memberOrder(sn sceneNode) []string {
	if len(sn.MemberOrder) == 0 {
		out := make([]string, 0, len(sn.Members))
		for name := range sn.Members {
			out = append(out, name)
		}
		return out
	}
	seen := make(map[string]struct{}, len(sn.MemberOrder))
	out := make([]string, 0, len(sn.Members))
	for _, name := range sn.MemberOrder {
		if _, ok := sn.Members[name]; ok {
			out = append(out, name)
			seen[name] = struct{}{}
		}
	}
	for name := range sn.Members {
		if _, ok := seen[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
