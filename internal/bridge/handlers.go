package bridge

import (
	"context"
	"time"

	"github.com/lydakis/hostbridge/internal/native"
	"github.com/lydakis/hostbridge/internal/object"
	"github.com/lydakis/hostbridge/internal/router"
	"github.com/lydakis/hostbridge/internal/wire"
)

// RegisterBuiltins installs the reference handler set. Hosts embedding
// the bridge register their own categories alongside or instead.
func RegisterBuiltins(r *router.Router) {
	r.Register("object", "find", router.Spec{
		Func:     objectFind,
		ReadOnly: true,
		CacheTTL: 10 * time.Second,
	})
	r.Register("object", "members", router.Spec{
		Func:     objectMembers,
		ReadOnly: true,
		CacheTTL: time.Minute,
	})
	r.Register("object", "get", router.Spec{Func: objectGet, ReadOnly: true})
	r.Register("object", "set", router.Spec{Func: objectSet})
	r.Register("transform", "set", router.Spec{Func: transformSet})
	r.Register("bridge", "ping", router.Spec{Func: bridgePing})
	r.Register("bridge", "status", router.Spec{
		Func: func(ctx context.Context, call *router.Call) (any, error) {
			return bridgeStatus(r, call)
		},
		ReadOnly: true,
	})
}

func objectFind(ctx context.Context, call *router.Call) (any, error) {
	pattern, ok := call.Payload()["pattern"].(string)
	if !ok || pattern == "" {
		return nil, router.Errorf(wire.CodeBadRequest, "payload needs a %q string", "pattern")
	}

	objs, err := call.Env.Resolver.FindAll(pattern)
	if err != nil {
		return nil, router.Errorf(wire.CodeBadRequest, "bad pattern %q: %v", pattern, err)
	}

	matches := make([]map[string]any, 0, len(objs))
	for _, o := range objs {
		matches = append(matches, map[string]any{
			"path": o.Path(),
			"name": o.Name(),
			"kind": o.Kind(),
		})
	}
	return map[string]any{"matches": matches}, nil
}

func objectMembers(ctx context.Context, call *router.Call) (any, error) {
	obj, err := resolveTarget(call)
	if err != nil {
		return nil, err
	}

	members := obj.Members()
	out := make([]map[string]any, 0, len(members))
	for _, m := range members {
		out = append(out, map[string]any{
			"name":    m.Name,
			"shape":   m.Shape.String(),
			"exposed": m.Exposed,
		})
	}
	return map[string]any{"members": out}, nil
}

func objectGet(ctx context.Context, call *router.Call) (any, error) {
	obj, err := resolveTarget(call)
	if err != nil {
		return nil, err
	}

	if name, ok := call.Payload()["member"].(string); ok && name != "" {
		value, ok := obj.Get(name)
		if !ok {
			return nil, router.Errorf(wire.CodeBadRequest,
				"object %q has no member %q", obj.Path(), name)
		}
		return map[string]any{"value": toWire(value)}, nil
	}

	values := make(map[string]any)
	for _, m := range obj.Members() {
		if v, ok := obj.Get(m.Name); ok {
			values[m.Name] = toWire(v)
		}
	}
	return map[string]any{"values": values}, nil
}

func objectSet(ctx context.Context, call *router.Call) (any, error) {
	obj, err := resolveTarget(call)
	if err != nil {
		return nil, err
	}

	props, ok := call.Payload()["properties"].(map[string]any)
	if !ok {
		return nil, router.Errorf(wire.CodeBadRequest, "payload needs a %q object", "properties")
	}
	return call.Env.Applier.Apply(obj, props, nil)
}

// transformSet treats every payload key except "target" as a property,
// applied in the caller's payload order.
func transformSet(ctx context.Context, call *router.Call) (any, error) {
	obj, err := resolveTarget(call)
	if err != nil {
		return nil, err
	}

	props := make(map[string]any)
	var order []string
	for _, name := range call.Command.PayloadOrder {
		if name == "target" {
			continue
		}
		order = append(order, name)
	}
	for name, value := range call.Payload() {
		if name == "target" {
			continue
		}
		props[name] = value
	}
	return call.Env.Applier.Apply(obj, props, order)
}

func bridgePing(ctx context.Context, call *router.Call) (any, error) {
	return map[string]any{"pong": true}, nil
}

func bridgeStatus(r *router.Router, call *router.Call) (any, error) {
	ops := make(map[string][]string)
	for _, cat := range r.Categories() {
		ops[cat] = r.Operations(cat)
	}
	count := 0
	call.Env.Graph.Walk(func(*object.Node) bool {
		count++
		return true
	})
	return map[string]any{
		"version":    Version,
		"operations": ops,
		"objects":    count,
		"kinds":      call.Env.Graph.Kinds(),
	}, nil
}

func resolveTarget(call *router.Call) (object.LiveObject, error) {
	ref, ok := call.Payload()["target"]
	if !ok {
		return nil, router.Errorf(wire.CodeBadRequest, "payload needs a %q", "target")
	}

	obj, miss, err := call.Env.Resolver.ResolveDescriptor(ref, "")
	if err != nil {
		return nil, router.Errorf(wire.CodeBadRequest, "bad target: %v", err)
	}
	switch miss {
	case object.MissNotFound:
		return nil, router.Errorf(wire.CodeBadRequest, "target not found: %v", ref)
	case object.MissWrongKind:
		return nil, router.Errorf(wire.CodeBadRequest, "target is not of the requested kind: %v", ref)
	}
	return obj, nil
}

// toWire renders a native value in the wire conventions the converters
// accept on the way in, so reads round-trip with writes.
func toWire(v any) any {
	switch t := v.(type) {
	case native.Vec2:
		return map[string]any{"x": t.X, "y": t.Y}
	case native.Vec3:
		return map[string]any{"x": t.X, "y": t.Y, "z": t.Z}
	case native.Vec4:
		return map[string]any{"x": t.X, "y": t.Y, "z": t.Z, "w": t.W}
	case native.Quat:
		return map[string]any{"x": t.X, "y": t.Y, "z": t.Z, "w": t.W}
	case native.Color:
		return map[string]any{"r": t.R, "g": t.G, "b": t.B, "a": t.A}
	case native.Rect:
		return map[string]any{"x": t.X, "y": t.Y, "w": t.W, "h": t.H}
	case native.Bounds:
		return map[string]any{"center": toWire(t.Center), "size": toWire(t.Size)}
	case object.LiveObject:
		return map[string]any{"ref": t.Path(), "kind": t.Kind()}
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toWire(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = toWire(e)
		}
		return out
	default:
		return v
	}
}
