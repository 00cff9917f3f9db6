package native

// Vec2 is a 2-component vector.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3-component vector.
type Vec3 struct {
	X, Y, Z float64
}

// Vec4 is a 4-component vector.
type Vec4 struct {
	X, Y, Z, W float64
}

// Quat is a rotation quaternion. The zero value is not a valid rotation;
// converters default W to 1 (identity) when the field is absent.
type Quat struct {
	X, Y, Z, W float64
}

// Identity returns the identity rotation.
func Identity() Quat {
	return Quat{W: 1}
}

// Color is an RGBA color with components in [0, 1]. Converters default
// A to 1 when the field is absent.
type Color struct {
	R, G, B, A float64
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Bounds is an axis-aligned bounding box described by center and size.
type Bounds struct {
	Center Vec3
	Size   Vec3
}

// ZeroValue returns the documented default native value for a shape:
// zero scalars, identity quaternion, opaque black color, empty list.
func ZeroValue(s Shape) any {
	switch s.Kind {
	case Bool:
		return false
	case Int:
		return int64(0)
	case Float:
		return float64(0)
	case String:
		return ""
	case Vec2Kind:
		return Vec2{}
	case Vec3Kind:
		return Vec3{}
	case Vec4Kind:
		return Vec4{}
	case QuatKind:
		return Identity()
	case ColorKind:
		return Color{A: 1}
	case RectKind:
		return Rect{}
	case BoundsKind:
		return Bounds{}
	case List:
		return []any{}
	case Map:
		return map[string]any{}
	default:
		return nil
	}
}
