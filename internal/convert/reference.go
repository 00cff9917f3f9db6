package convert

import (
	"github.com/lydakis/hostbridge/internal/native"
	"github.com/lydakis/hostbridge/internal/object"
)

// referenceConverter resolves string paths and reference descriptors to
// live objects. It sits at the top of the chain so a map carrying a
// "ref" key is never mistaken for a generic compound value.
//
// A path that resolves to nothing converts to Applied(nil): a missing
// reference is a valid absence, not a conversion error. A path that
// resolves to an object of the wrong kind fails, as does a malformed
// descriptor.
type referenceConverter struct {
	resolver RefResolver
}

func (*referenceConverter) Name() string  { return "reference" }
func (*referenceConverter) Priority() int { return PriorityReference }

func (*referenceConverter) CanConvert(target native.Shape) bool {
	return target.Kind == native.Ref
}

func (c *referenceConverter) Convert(value any, target native.Shape) Outcome {
	if value == nil {
		return OK(nil)
	}
	if c.resolver == nil {
		return Failf("no object resolver configured")
	}

	switch value.(type) {
	case string, map[string]any:
	default:
		return Failf("cannot use %T as object reference", value)
	}

	obj, miss, err := c.resolver.ResolveDescriptor(value, target.RefKind)
	if err != nil {
		return Failf("bad reference: %v", err)
	}
	switch miss {
	case object.MissNone:
		return OK(obj)
	case object.MissWrongKind:
		return Failf("reference %v resolves to an object that is not a %s", value, target.RefKind)
	default:
		return OK(nil)
	}
}
