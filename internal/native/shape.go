// Package native defines the host-side value types the bridge converts
// into, and the shape descriptors that drive the converter chain. The
// wire side of the bridge is plain JSON; everything strongly typed lives
// here.
package native

import "fmt"

// Kind identifies a family of native shapes.
type Kind int

const (
	Invalid Kind = iota
	Bool
	Int
	Float
	String
	Vec2Kind
	Vec3Kind
	Vec4Kind
	QuatKind
	ColorKind
	RectKind
	BoundsKind
	List
	Map
	Ref
)

var kindNames = map[Kind]string{
	Invalid:    "invalid",
	Bool:       "bool",
	Int:        "int",
	Float:      "float",
	String:     "string",
	Vec2Kind:   "vec2",
	Vec3Kind:   "vec3",
	Vec4Kind:   "vec4",
	QuatKind:   "quat",
	ColorKind:  "color",
	RectKind:   "rect",
	BoundsKind: "bounds",
	List:       "list",
	Map:        "map",
	Ref:        "ref",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Shape describes a conversion target: what a member's declared type
// looks like. List shapes carry an element shape; Ref shapes carry the
// expected object kind ("" = any kind).
type Shape struct {
	Kind    Kind
	Elem    *Shape
	RefKind string
}

// ShapeOf is shorthand for a scalar or struct shape.
func ShapeOf(k Kind) Shape {
	return Shape{Kind: k}
}

// ListOf returns a list shape with the given element shape.
func ListOf(elem Shape) Shape {
	e := elem
	return Shape{Kind: List, Elem: &e}
}

// RefTo returns a reference shape expecting the given object kind.
func RefTo(kind string) Shape {
	return Shape{Kind: Ref, RefKind: kind}
}

func (s Shape) String() string {
	switch s.Kind {
	case List:
		if s.Elem != nil {
			return "list<" + s.Elem.String() + ">"
		}
		return "list"
	case Ref:
		if s.RefKind != "" {
			return "ref<" + s.RefKind + ">"
		}
		return "ref"
	default:
		return s.Kind.String()
	}
}
