package hook

import (
	"fmt"
	"sync"
	"sync/atomic"

	"code.cloudfoundry.org/lager"
)

func init() {
	initMetrics()
}

// Tap is the point where a connection layer announces the resources it
// creates. Hooks subscribe to a tap; only enabled hooks are called.
type Tap struct {
	logger lager.Logger

	lastID uint64

	mu     sync.Mutex
	active atomic.Value
}

func NewTap(logger lager.Logger) *Tap {
	t := &Tap{
		logger: logger.Session("tap"),
	}
	t.active.Store([]*Hook{})

	return t
}

func (t *Tap) NextID() uint64 {
	return atomic.AddUint64(&t.lastID, 1)
}

func (t *Tap) hooks() []*Hook {
	return t.active.Load().([]*Hook)
}

// Announce runs the callback of every enabled hook for the resource. It
// never panics, whatever the hooks do.
func (t *Tap) Announce(r Resource) {
	HookResourcesAnnouncedTotal.Inc()

	for _, h := range t.hooks() {
		t.invoke(h, r)
	}
}

func (t *Tap) invoke(h *Hook, r Resource) {
	defer func() {
		if p := recover(); p != nil {
			HookCallbackPanicsTotal.Inc()
			t.logger.Error(
				"err-hook-callback-panic",
				fmt.Errorf("%v", p),
				lager.Data{"resource-id": r.ID, "kind": r.Kind},
			)
		}
	}()

	h.init(r)
}

func (t *Tap) NewHook(init InitFunc) *Hook {
	return &Hook{tap: t, init: init}
}

func (t *Tap) ActiveHooks() int {
	return len(t.hooks())
}

func (t *Tap) add(h *Hook) {
	current := t.hooks()

	next := make([]*Hook, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, h)

	t.active.Store(next)
}

func (t *Tap) remove(h *Hook) {
	current := t.hooks()

	next := make([]*Hook, 0, len(current))
	for _, other := range current {
		if other != h {
			next = append(next, other)
		}
	}

	t.active.Store(next)
}

// Hook is one subscription to a tap. A disabled hook is not part of the
// tap's active set, so its callback is never called.
type Hook struct {
	tap  *Tap
	init InitFunc

	enabled bool
}

func (h *Hook) Enable() {
	h.tap.mu.Lock()
	defer h.tap.mu.Unlock()

	if h.enabled {
		return
	}
	h.enabled = true
	h.tap.add(h)
}

func (h *Hook) Disable() {
	h.tap.mu.Lock()
	defer h.tap.mu.Unlock()

	if !h.enabled {
		return
	}
	h.enabled = false
	h.tap.remove(h)
}

func (h *Hook) Enabled() bool {
	h.tap.mu.Lock()
	defer h.tap.mu.Unlock()

	return h.enabled
}
