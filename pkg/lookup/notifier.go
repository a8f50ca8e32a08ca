package lookup

import (
	"sync"
)

type Notifier struct {
	mu sync.Mutex

	fired bool
	event Event

	listeners []func(Event)
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) OnceLookup(listener func(Event)) {
	if listener == nil {
		return
	}

	n.mu.Lock()
	if n.fired {
		event := n.event
		n.mu.Unlock()

		listener(event)
		return
	}
	n.listeners = append(n.listeners, listener)
	n.mu.Unlock()
}

// Fire delivers the event to every registered listener and forgets them.
// Only the first call has any effect; it reports whether it delivered.
func (n *Notifier) Fire(event Event) bool {
	n.mu.Lock()
	if n.fired {
		n.mu.Unlock()
		return false
	}
	n.fired = true
	n.event = event
	listeners := n.listeners
	n.listeners = nil
	n.mu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}

	return true
}

func (n *Notifier) Fired() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.fired
}
