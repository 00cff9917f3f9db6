// Package router dispatches command envelopes to registered handlers by
// (category, operation). The core registers nothing itself: hosts and
// the reference daemon bring their own handler sets.
package router

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lydakis/hostbridge/internal/apply"
	"github.com/lydakis/hostbridge/internal/convert"
	"github.com/lydakis/hostbridge/internal/object"
	"github.com/lydakis/hostbridge/internal/wire"
)

// Env is the object-graph binding a handler works against. It is passed
// explicitly (no package-level singletons) and swapped wholesale when
// the host rebuilds its runtime state.
type Env struct {
	Graph    *object.Graph
	Resolver *object.Resolver
	Registry *convert.Registry
	Applier  *apply.Applier
}

// Call carries one command and the environment it executes in.
type Call struct {
	Command *wire.Command
	Env     Env
	Log     *zap.Logger
}

// Payload returns the command payload, never nil.
func (c *Call) Payload() map[string]any {
	if c.Command.Payload == nil {
		return map[string]any{}
	}
	return c.Command.Payload
}

// Handler executes one operation and returns a result payload or an
// error. Errors created with Errorf keep their code; anything else maps
// to an internal error.
type Handler func(ctx context.Context, call *Call) (any, error)

// Spec describes a registered operation.
type Spec struct {
	Func Handler

	// ReadOnly marks operations that never mutate the graph; the daemon
	// may serve them from the response cache.
	ReadOnly bool

	// CacheTTL bounds how long a cached response stays valid. Zero
	// means not cacheable even when ReadOnly.
	CacheTTL time.Duration

	// Background marks long-running operations that must not occupy the
	// host main context (e.g. shell-outs). They run on a worker and
	// reply asynchronously.
	Background bool
}

type key struct {
	category  string
	operation string
}

// Router maps (category, operation) to handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[key]Spec
	env      Env
	log      *zap.Logger
}

// New creates a router bound to an environment.
func New(env Env, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		handlers: make(map[key]Spec),
		env:      env,
		log:      log,
	}
}

// Register installs a handler for (category, operation). Registering
// the same pair twice replaces the earlier handler.
func (r *Router) Register(category, operation string, spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[key{category, operation}] = spec
}

// SetEnv swaps the object-graph binding. Called when the host tears
// down and rebuilds its runtime state.
func (r *Router) SetEnv(env Env) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.env = env
}

// Lookup returns the spec for (category, operation).
func (r *Router) Lookup(category, operation string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.handlers[key{category, operation}]
	return spec, ok
}

// Operations returns the sorted operations registered under a category.
func (r *Router) Operations(category string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for k := range r.handlers {
		if k.category == category {
			out = append(out, k.operation)
		}
	}
	sort.Strings(out)
	return out
}

// Categories returns the sorted set of registered categories.
func (r *Router) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range r.handlers {
		seen[k.category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Dispatch executes one command and always produces a response carrying
// the command id. Handler panics are contained here: one bad command
// must not kill the bridge.
func (r *Router) Dispatch(ctx context.Context, cmd *wire.Command) (resp *wire.Response) {
	spec, ok := r.Lookup(cmd.Category, cmd.Operation)
	if !ok {
		ops := r.Operations(cmd.Category)
		msg := fmt.Sprintf("category %q does not support operation %q", cmd.Category, cmd.Operation)
		if len(ops) == 0 {
			msg = fmt.Sprintf("unknown category %q", cmd.Category)
		}
		return wire.Fail(cmd.ID, wire.CodeNotSupported, msg, map[string]any{
			"category":   cmd.Category,
			"operations": ops,
		})
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panicked",
				zap.String("id", cmd.ID),
				zap.String("category", cmd.Category),
				zap.String("operation", cmd.Operation),
				zap.Any("panic", rec))
			resp = wire.Fail(cmd.ID, wire.CodeInternal,
				fmt.Sprintf("%s.%s: internal error", cmd.Category, cmd.Operation), nil)
		}
	}()

	r.mu.RLock()
	env := r.env
	r.mu.RUnlock()

	result, err := spec.Func(ctx, &Call{Command: cmd, Env: env, Log: r.log})
	if err != nil {
		return wire.Fail(cmd.ID, errCode(err), errMessage(err), errDetails(err))
	}
	return wire.OK(cmd.ID, result)
}

// Errorf builds a typed handler error with an explicit wire code.
func Errorf(code, format string, args ...any) error {
	return &wire.Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func errCode(err error) string {
	if werr, ok := err.(*wire.Error); ok && werr.Code != "" {
		return werr.Code
	}
	return wire.CodeInternal
}

func errMessage(err error) string {
	if werr, ok := err.(*wire.Error); ok {
		return werr.Message
	}
	return err.Error()
}

func errDetails(err error) any {
	if werr, ok := err.(*wire.Error); ok {
		return werr.Details
	}
	return nil
}
