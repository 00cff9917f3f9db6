package convert

import (
	"sort"

	"github.com/lydakis/hostbridge/internal/native"
	"github.com/lydakis/hostbridge/internal/object"
)

// Converter is one conversion strategy. Priority is an explicit total
// order (higher runs first) so specific converters (object references)
// are consulted before generic ones (primitive coercion), independent of
// registration order.
type Converter interface {
	Name() string
	Priority() int
	CanConvert(target native.Shape) bool
	Convert(value any, target native.Shape) Outcome
}

// Built-in priorities. External converters register relative to these.
const (
	PriorityReference  = 40
	PriorityStruct     = 30
	PriorityCollection = 20
	PriorityPrimitive  = 10
	PriorityMap        = 5
)

// RefResolver is the resolver capability the reference converter needs.
// *object.Resolver implements it.
type RefResolver interface {
	ResolveDescriptor(ref any, kind string) (object.LiveObject, object.Miss, error)
}

// Registry holds the converter chain sorted by priority.
type Registry struct {
	converters []Converter
}

// NewRegistry builds a registry with the built-in converter families
// wired in. The resolver backs the reference converter; nil disables
// object-reference conversion (the reference converter then reports
// every input as a failure, which only makes sense in tests).
func NewRegistry(resolver RefResolver) *Registry {
	r := &Registry{}
	r.Register(&referenceConverter{resolver: resolver})
	r.Register(&structConverter{})
	r.Register(&collectionConverter{reg: r})
	r.Register(&primitiveConverter{})
	r.Register(&mapConverter{})
	return r
}

// Register inserts a converter, keeping the chain sorted by priority
// descending. The sort is stable so converters with equal priority keep
// registration order.
func (r *Registry) Register(c Converter) {
	r.converters = append(r.converters, c)
	sort.SliceStable(r.converters, func(i, j int) bool {
		return r.converters[i].Priority() > r.converters[j].Priority()
	})
}

// Converters returns the chain in evaluation order.
func (r *Registry) Converters() []Converter {
	out := make([]Converter, len(r.converters))
	copy(out, r.converters)
	return out
}

// Convert turns a wire value into a native value of the target shape.
// Identity inputs short-circuit before the chain runs: a value already
// of the target's native type is returned unchanged, no copy.
func (r *Registry) Convert(value any, target native.Shape) Outcome {
	if matchesShape(value, target) {
		return OK(value)
	}

	for _, c := range r.converters {
		if !c.CanConvert(target) {
			continue
		}
		out := c.Convert(value, target)
		if out.Status == Unsupported {
			continue
		}
		return out
	}
	return Skip()
}

// matchesShape reports whether value is already the exact native type
// for the target shape. Lists and maps are excluded: their element
// shapes cannot be verified without walking them, which the collection
// converter does anyway.
func matchesShape(value any, target native.Shape) bool {
	switch target.Kind {
	case native.Bool:
		_, ok := value.(bool)
		return ok
	case native.Int:
		_, ok := value.(int64)
		return ok
	case native.Float:
		_, ok := value.(float64)
		return ok
	case native.String:
		_, ok := value.(string)
		return ok
	case native.Vec2Kind:
		_, ok := value.(native.Vec2)
		return ok
	case native.Vec3Kind:
		_, ok := value.(native.Vec3)
		return ok
	case native.Vec4Kind:
		_, ok := value.(native.Vec4)
		return ok
	case native.QuatKind:
		_, ok := value.(native.Quat)
		return ok
	case native.ColorKind:
		_, ok := value.(native.Color)
		return ok
	case native.RectKind:
		_, ok := value.(native.Rect)
		return ok
	case native.BoundsKind:
		_, ok := value.(native.Bounds)
		return ok
	case native.Ref:
		obj, ok := value.(object.LiveObject)
		if !ok {
			return false
		}
		return target.RefKind == "" || obj.Kind() == target.RefKind
	default:
		return false
	}
}
