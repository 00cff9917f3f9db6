package convert

import (
	"fmt"

	"github.com/lydakis/hostbridge/internal/native"
)

// collectionConverter maps wire lists onto List-shaped members,
// recursively converting each element through the registry. A bare
// scalar auto-wraps into a one-element collection. Null converts to an
// empty collection, never nil: downstream code never branches on a nil
// list.
type collectionConverter struct {
	reg *Registry
}

func (*collectionConverter) Name() string  { return "collection" }
func (*collectionConverter) Priority() int { return PriorityCollection }

func (*collectionConverter) CanConvert(target native.Shape) bool {
	return target.Kind == native.List
}

func (c *collectionConverter) Convert(value any, target native.Shape) Outcome {
	elem := native.ShapeOf(native.Invalid)
	if target.Elem != nil {
		elem = *target.Elem
	}

	if value == nil {
		return OK([]any{})
	}

	items, ok := value.([]any)
	if !ok {
		// Scalar auto-wrap: convert as a single element.
		items = []any{value}
	}

	out := make([]any, 0, len(items))
	for i, item := range items {
		converted, err := c.element(item, elem)
		if err != nil {
			return Failf("element %s: %v", indexPath(i), err)
		}
		out = append(out, converted)
	}
	return OK(out)
}

func (c *collectionConverter) element(item any, elem native.Shape) (any, error) {
	if elem.Kind == native.Invalid {
		return item, nil // untyped list keeps wire values
	}
	res := c.reg.Convert(item, elem)
	switch res.Status {
	case Applied:
		return res.Value, nil
	case Failed:
		return nil, fmt.Errorf("%s", res.Reason)
	default:
		return nil, fmt.Errorf("no converter for %T to %s", item, elem)
	}
}

func indexPath(i int) string {
	return fmt.Sprintf("[%d]", i)
}
