// Package object defines the live-object capability surface the bridge
// binds to, a reference in-memory implementation, and the resolver that
// turns paths and reference descriptors into live objects.
//
// The bridge core never assumes a concrete object model: the router,
// applier, and converters only see the LiveObject interface. The Node
// implementation here backs the reference daemon and the test suites.
package object

import "github.com/lydakis/hostbridge/internal/native"

// Member describes one settable member of a live object.
type Member struct {
	Name  string
	Shape native.Shape

	// Exposed marks a non-public member that was explicitly opted in to
	// bridge access. Exposed members behave identically to public ones.
	Exposed bool
}

// LiveObject is the capability the host implements per object kind:
// enumerate members, read/write a member by name, and report a member's
// declared shape. Capability returns an attached sibling object of the
// requested kind, or nil.
type LiveObject interface {
	Name() string
	Path() string
	Kind() string
	Members() []Member
	Shape(name string) (native.Shape, bool)
	Get(name string) (any, bool)
	Set(name string, value any) error
	Capability(kind string) LiveObject
}
