// Package apply assigns wire payloads onto live objects member by
// member, reporting a per-member outcome instead of aborting the batch.
package apply

import (
	"fmt"
	"sort"

	"github.com/lydakis/hostbridge/internal/convert"
	"github.com/lydakis/hostbridge/internal/object"
)

// Result reports the outcome of one property batch. Every requested
// member lands in exactly one of Updated or Failed.
type Result struct {
	Updated []string          `json:"updated"`
	Failed  []string          `json:"failed"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// AllSucceeded reports whether no member failed. An empty batch
// succeeds trivially.
func (r *Result) AllSucceeded() bool {
	return len(r.Failed) == 0
}

// Applier applies property batches through a converter registry.
type Applier struct {
	reg *convert.Registry
}

// New creates an applier over a converter registry.
func New(reg *convert.Registry) *Applier {
	return &Applier{reg: reg}
}

// Apply converts and assigns each property onto target. It fails fast
// only on a nil target or nil property map; every per-member problem is
// recorded and the batch continues.
//
// Members are processed in the given order; when order is nil or
// incomplete the remaining members follow in sorted-name order, so a
// batch is always deterministic.
func (a *Applier) Apply(target object.LiveObject, props map[string]any, order []string) (*Result, error) {
	if target == nil {
		return nil, fmt.Errorf("apply: nil target object")
	}
	if props == nil {
		return nil, fmt.Errorf("apply: nil property map")
	}

	res := &Result{
		Updated: []string{},
		Failed:  []string{},
		Errors:  map[string]string{},
	}

	for _, name := range normalizeOrder(props, order) {
		value := props[name]

		shape, ok := target.Shape(name)
		if !ok {
			res.fail(name, fmt.Sprintf("unknown property %q on %s", name, target.Path()))
			continue
		}

		out := a.reg.Convert(value, shape)
		switch out.Status {
		case convert.Applied:
			if err := target.Set(name, out.Value); err != nil {
				res.fail(name, err.Error())
				continue
			}
			res.Updated = append(res.Updated, name)
		case convert.Failed:
			res.fail(name, out.Reason)
		default:
			res.fail(name, fmt.Sprintf("no conversion from %T to %s", value, shape))
		}
	}
	return res, nil
}

func (r *Result) fail(name, reason string) {
	r.Failed = append(r.Failed, name)
	r.Errors[name] = reason
}

// normalizeOrder returns every key of props exactly once: the provided
// order first (keys not present in props are dropped), then any
// remaining keys sorted.
func normalizeOrder(props map[string]any, order []string) []string {
	seen := make(map[string]struct{}, len(props))
	out := make([]string, 0, len(props))
	for _, name := range order {
		if _, ok := props[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	var rest []string
	for name := range props {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
