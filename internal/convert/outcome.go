// Package convert implements the priority-ordered converter chain that
// turns loosely-typed wire values into host-native values. Each
// converter is an independent strategy; the registry tries them from
// highest priority down and takes the first one that claims the target
// shape.
package convert

import "fmt"

// Status classifies a conversion attempt.
type Status int

const (
	// Applied means the conversion succeeded and Outcome.Value holds the
	// native value.
	Applied Status = iota
	// Unsupported means the input/target combination is not this
	// converter's concern; the registry tries the next one.
	Unsupported
	// Failed means the converter recognized the target shape but the
	// data is invalid. The chain stops.
	Failed
)

// Outcome is the result of a conversion attempt. Converters return
// Unsupported or Failed instead of panicking or returning Go errors so
// the registry can keep walking the chain.
type Outcome struct {
	Status Status
	Value  any
	Reason string
}

// OK builds an Applied outcome.
func OK(v any) Outcome {
	return Outcome{Status: Applied, Value: v}
}

// Skip builds an Unsupported outcome.
func Skip() Outcome {
	return Outcome{Status: Unsupported}
}

// Failf builds a Failed outcome with a formatted reason.
func Failf(format string, args ...any) Outcome {
	return Outcome{Status: Failed, Reason: fmt.Sprintf(format, args...)}
}
