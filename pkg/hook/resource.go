package hook

import (
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/lookup"
)

// Handle gives access to the object behind an announced resource.
//
// Ready is closed once the resource has finished wiring up its owner.
// Done is closed when the resource will never do anything observable
// again. Owner must only be called after Ready is closed and may be nil.
type Handle interface {
	Ready() <-chan struct{}
	Done() <-chan struct{}
	Owner() lookup.Source
}

type Resource struct {
	ID        uint64
	Kind      Kind
	TriggerID uint64

	Handle Handle
}

// InitFunc is called synchronously each time a resource is announced.
type InitFunc func(Resource)

// FilterKind wraps init so that it only sees resources of the given kind.
func FilterKind(kind Kind, init InitFunc) InitFunc {
	return func(r Resource) {
		if r.Kind != kind {
			return
		}
		init(r)
	}
}
