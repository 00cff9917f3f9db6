package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lydakis/hostbridge/internal/native"
)

// primitiveConverter handles bool/number/string inter-conversion,
// including numeric narrowing and string round-trips ("123" -> 123,
// true -> "true"). Adapted from the daemon's schema-driven argument
// coercion.
type primitiveConverter struct{}

func (primitiveConverter) Name() string  { return "primitive" }
func (primitiveConverter) Priority() int { return PriorityPrimitive }

func (primitiveConverter) CanConvert(target native.Shape) bool {
	switch target.Kind {
	case native.Bool, native.Int, native.Float, native.String:
		return true
	}
	return false
}

func (primitiveConverter) Convert(value any, target native.Shape) Outcome {
	if value == nil {
		return OK(native.ZeroValue(target))
	}
	switch target.Kind {
	case native.Bool:
		return toBool(value)
	case native.Int:
		return toInt(value)
	case native.Float:
		return toFloat(value)
	case native.String:
		return toString(value)
	}
	return Skip()
}

func toBool(value any) Outcome {
	switch v := value.(type) {
	case bool:
		return OK(v)
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Failf("cannot parse %q as bool", v)
		}
		return OK(b)
	case float64:
		return OK(v != 0)
	case int64:
		return OK(v != 0)
	case int:
		return OK(v != 0)
	default:
		return Skip()
	}
}

func toInt(value any) Outcome {
	switch v := value.(type) {
	case int64:
		return OK(v)
	case int:
		return OK(int64(v))
	case float64:
		if math.Trunc(v) != v {
			return Failf("number %v is not an integer", v)
		}
		return OK(int64(v))
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return Failf("cannot parse %q as integer", v)
		}
		return OK(i)
	case bool:
		if v {
			return OK(int64(1))
		}
		return OK(int64(0))
	default:
		return Skip()
	}
}

func toFloat(value any) Outcome {
	switch v := value.(type) {
	case float64:
		return OK(v)
	case int64:
		return OK(float64(v))
	case int:
		return OK(float64(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Failf("cannot parse %q as number", v)
		}
		return OK(f)
	case bool:
		if v {
			return OK(float64(1))
		}
		return OK(float64(0))
	default:
		return Skip()
	}
}

func toString(value any) Outcome {
	switch v := value.(type) {
	case string:
		return OK(v)
	case bool:
		return OK(strconv.FormatBool(v))
	case float64:
		return OK(strconv.FormatFloat(v, 'g', -1, 64))
	case int64:
		return OK(strconv.FormatInt(v, 10))
	case int:
		return OK(strconv.Itoa(v))
	default:
		return Skip()
	}
}

// mapConverter is the generic tail of the chain: any string-keyed map
// converts to a Map-shaped member as-is. It runs last so specific
// compound targets (structs, references) always win.
type mapConverter struct{}

func (mapConverter) Name() string  { return "map" }
func (mapConverter) Priority() int { return PriorityMap }

func (mapConverter) CanConvert(target native.Shape) bool {
	return target.Kind == native.Map
}

func (mapConverter) Convert(value any, target native.Shape) Outcome {
	if value == nil {
		return OK(map[string]any{})
	}
	if m, ok := value.(map[string]any); ok {
		return OK(m)
	}
	return Failf("cannot use %T as map", value)
}

// numField reads a numeric struct field from a wire map, tolerating
// string-encoded numbers. Missing fields report ok=false so callers can
// apply documented defaults.
func numField(m map[string]any, name string) (float64, bool, error) {
	v, ok := m[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	out := toFloat(v)
	switch out.Status {
	case Applied:
		return out.Value.(float64), true, nil
	case Failed:
		return 0, false, fmt.Errorf("field %q: %s", name, out.Reason)
	default:
		return 0, false, fmt.Errorf("field %q: cannot use %T as number", name, v)
	}
}
