package convert

import (
	"fmt"

	"github.com/lydakis/hostbridge/internal/native"
)

// structConverter maps string-keyed wire maps onto fixed-field native
// structs (vectors, quaternion, color, rect, bounds). Missing fields
// take documented defaults: zero everywhere, except quaternion W and
// color alpha, which default to 1. Well-known symbolic string constants
// ("red", "up", "identity") resolve through the native name tables,
// case-insensitively. Vector shapes additionally accept a bare number
// (broadcast to every component) and a numeric list in component order.
type structConverter struct{}

func (structConverter) Name() string  { return "struct" }
func (structConverter) Priority() int { return PriorityStruct }

func (structConverter) CanConvert(target native.Shape) bool {
	switch target.Kind {
	case native.Vec2Kind, native.Vec3Kind, native.Vec4Kind,
		native.QuatKind, native.ColorKind, native.RectKind, native.BoundsKind:
		return true
	}
	return false
}

func (c structConverter) Convert(value any, target native.Shape) Outcome {
	if value == nil {
		return OK(native.ZeroValue(target))
	}

	switch target.Kind {
	case native.Vec2Kind:
		return c.toVec2(value)
	case native.Vec3Kind:
		return c.toVec3(value)
	case native.Vec4Kind:
		return c.toVec4(value)
	case native.QuatKind:
		return c.toQuat(value)
	case native.ColorKind:
		return c.toColor(value)
	case native.RectKind:
		return c.toRect(value)
	case native.BoundsKind:
		return c.toBounds(value)
	}
	return Skip()
}

func (structConverter) toVec2(value any) Outcome {
	switch v := value.(type) {
	case map[string]any:
		fields, err := vecFields(v, "x", "y")
		if err != nil {
			return Failf("vec2: %v", err)
		}
		return OK(native.Vec2{X: fields[0], Y: fields[1]})
	case string:
		if named, ok := native.Vec2ByName(v); ok {
			return OK(named)
		}
		return Failf("unknown vec2 constant %q", v)
	case []any:
		fields, err := vecList(v, 2)
		if err != nil {
			return Failf("vec2: %v", err)
		}
		return OK(native.Vec2{X: fields[0], Y: fields[1]})
	case float64:
		return OK(native.Vec2{X: v, Y: v})
	case int64:
		f := float64(v)
		return OK(native.Vec2{X: f, Y: f})
	default:
		return Skip()
	}
}

func (structConverter) toVec3(value any) Outcome {
	switch v := value.(type) {
	case map[string]any:
		fields, err := vecFields(v, "x", "y", "z")
		if err != nil {
			return Failf("vec3: %v", err)
		}
		return OK(native.Vec3{X: fields[0], Y: fields[1], Z: fields[2]})
	case string:
		if named, ok := native.Vec3ByName(v); ok {
			return OK(named)
		}
		return Failf("unknown vec3 constant %q", v)
	case []any:
		fields, err := vecList(v, 3)
		if err != nil {
			return Failf("vec3: %v", err)
		}
		return OK(native.Vec3{X: fields[0], Y: fields[1], Z: fields[2]})
	case float64:
		return OK(native.Vec3{X: v, Y: v, Z: v})
	case int64:
		f := float64(v)
		return OK(native.Vec3{X: f, Y: f, Z: f})
	default:
		return Skip()
	}
}

func (structConverter) toVec4(value any) Outcome {
	switch v := value.(type) {
	case map[string]any:
		fields, err := vecFields(v, "x", "y", "z", "w")
		if err != nil {
			return Failf("vec4: %v", err)
		}
		return OK(native.Vec4{X: fields[0], Y: fields[1], Z: fields[2], W: fields[3]})
	case string:
		return Failf("unknown vec4 constant %q", v)
	case []any:
		fields, err := vecList(v, 4)
		if err != nil {
			return Failf("vec4: %v", err)
		}
		return OK(native.Vec4{X: fields[0], Y: fields[1], Z: fields[2], W: fields[3]})
	case float64:
		return OK(native.Vec4{X: v, Y: v, Z: v, W: v})
	case int64:
		f := float64(v)
		return OK(native.Vec4{X: f, Y: f, Z: f, W: f})
	default:
		return Skip()
	}
}

func (structConverter) toQuat(value any) Outcome {
	switch v := value.(type) {
	case map[string]any:
		x, _, err := numField(v, "x")
		if err != nil {
			return Failf("quat: %v", err)
		}
		y, _, err := numField(v, "y")
		if err != nil {
			return Failf("quat: %v", err)
		}
		z, _, err := numField(v, "z")
		if err != nil {
			return Failf("quat: %v", err)
		}
		w, wSet, err := numField(v, "w")
		if err != nil {
			return Failf("quat: %v", err)
		}
		if !wSet {
			w = 1 // identity default
		}
		return OK(native.Quat{X: x, Y: y, Z: z, W: w})
	case string:
		if named, ok := native.QuatByName(v); ok {
			return OK(named)
		}
		return Failf("unknown quat constant %q", v)
	default:
		return Skip()
	}
}

func (structConverter) toColor(value any) Outcome {
	switch v := value.(type) {
	case map[string]any:
		r, _, err := numField(v, "r")
		if err != nil {
			return Failf("color: %v", err)
		}
		g, _, err := numField(v, "g")
		if err != nil {
			return Failf("color: %v", err)
		}
		b, _, err := numField(v, "b")
		if err != nil {
			return Failf("color: %v", err)
		}
		a, aSet, err := numField(v, "a")
		if err != nil {
			return Failf("color: %v", err)
		}
		if !aSet {
			a = 1 // opaque default
		}
		return OK(native.Color{R: r, G: g, B: b, A: a})
	case string:
		if named, ok := native.ColorByName(v); ok {
			return OK(named)
		}
		return Failf("unknown color constant %q", v)
	default:
		return Skip()
	}
}

func (structConverter) toRect(value any) Outcome {
	m, ok := value.(map[string]any)
	if !ok {
		return Skip()
	}
	x, _, err := numField(m, "x")
	if err != nil {
		return Failf("rect: %v", err)
	}
	y, _, err := numField(m, "y")
	if err != nil {
		return Failf("rect: %v", err)
	}
	w, wSet, err := numField(m, "w")
	if err != nil {
		return Failf("rect: %v", err)
	}
	if !wSet {
		if w, _, err = numField(m, "width"); err != nil {
			return Failf("rect: %v", err)
		}
	}
	h, hSet, err := numField(m, "h")
	if err != nil {
		return Failf("rect: %v", err)
	}
	if !hSet {
		if h, _, err = numField(m, "height"); err != nil {
			return Failf("rect: %v", err)
		}
	}
	return OK(native.Rect{X: x, Y: y, W: w, H: h})
}

func (c structConverter) toBounds(value any) Outcome {
	m, ok := value.(map[string]any)
	if !ok {
		return Skip()
	}
	out := native.Bounds{}
	if center, ok := m["center"]; ok {
		res := c.toVec3(center)
		if res.Status != Applied {
			return Failf("bounds center: %s", res.Reason)
		}
		out.Center = res.Value.(native.Vec3)
	}
	if size, ok := m["size"]; ok {
		res := c.toVec3(size)
		if res.Status != Applied {
			return Failf("bounds size: %s", res.Reason)
		}
		out.Size = res.Value.(native.Vec3)
	}
	return OK(out)
}

func vecFields(m map[string]any, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		f, _, err := numField(m, name)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func vecList(list []any, n int) ([]float64, error) {
	if len(list) != n {
		return nil, fmt.Errorf("expected %d components, got %d", n, len(list))
	}
	out := make([]float64, n)
	for i, item := range list {
		res := toFloat(item)
		if res.Status != Applied {
			return nil, fmt.Errorf("component %d: cannot use %T as number", i, item)
		}
		out[i] = res.Value.(float64)
	}
	return out, nil
}
