package fakes

import (
	"sync"

	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/hook"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/lookup"
)

// FakeHandle is a resource handle driven by the test: it becomes ready and
// done only when told to.
type FakeHandle struct {
	ready chan struct{}
	done  chan struct{}

	readyOnce sync.Once
	doneOnce  sync.Once

	mu    sync.Mutex
	owner lookup.Source
}

func NewFakeHandle(owner lookup.Source) *FakeHandle {
	return &FakeHandle{
		ready: make(chan struct{}),
		done:  make(chan struct{}),
		owner: owner,
	}
}

func (h *FakeHandle) Ready() <-chan struct{} { return h.ready }
func (h *FakeHandle) Done() <-chan struct{}  { return h.done }

func (h *FakeHandle) Owner() lookup.Source {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.owner
}

func (h *FakeHandle) MarkReady() { h.readyOnce.Do(func() { close(h.ready) }) }
func (h *FakeHandle) MarkDone()  { h.doneOnce.Do(func() { close(h.done) }) }

// Connect announces a connection attempt on the tap, marks it ready
// and completes its lookup with the event, as the dialer would.
func Connect(tap *hook.Tap, kind hook.Kind, event lookup.Event) {
	owner := lookup.NewNotifier()
	handle := NewFakeHandle(owner)

	tap.Announce(hook.Resource{ID: tap.NextID(), Kind: kind, Handle: handle})
	handle.MarkReady()

	owner.Fire(event)
	handle.MarkDone()
}
