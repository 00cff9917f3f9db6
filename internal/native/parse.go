package native

import (
	"fmt"
	"strings"
)

var kindsByName = map[string]Kind{
	"bool":   Bool,
	"int":    Int,
	"float":  Float,
	"string": String,
	"vec2":   Vec2Kind,
	"vec3":   Vec3Kind,
	"vec4":   Vec4Kind,
	"quat":   QuatKind,
	"color":  ColorKind,
	"rect":   RectKind,
	"bounds": BoundsKind,
	"map":    Map,
}

// ParseShape parses a textual shape declaration as used in scene
// fixtures: "float", "vec3", "list<float>", "ref", "ref<camera>".
func ParseShape(s string) (Shape, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Shape{}, fmt.Errorf("empty shape")
	}

	if k, ok := kindsByName[s]; ok {
		return ShapeOf(k), nil
	}
	if s == "list" {
		return Shape{}, fmt.Errorf("list shape requires an element: list<T>")
	}
	if s == "ref" {
		return RefTo(""), nil
	}

	if inner, ok := genericArg(s, "list"); ok {
		elem, err := ParseShape(inner)
		if err != nil {
			return Shape{}, fmt.Errorf("list element: %w", err)
		}
		return ListOf(elem), nil
	}
	if inner, ok := genericArg(s, "ref"); ok {
		return RefTo(strings.TrimSpace(inner)), nil
	}

	return Shape{}, fmt.Errorf("unknown shape %q", s)
}

func genericArg(s, name string) (string, bool) {
	if strings.HasPrefix(s, name+"<") && strings.HasSuffix(s, ">") {
		return s[len(name)+1 : len(s)-1], true
	}
	return "", false
}
