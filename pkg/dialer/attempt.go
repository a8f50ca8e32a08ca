package dialer

import (
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/lookup"
)

// attempt is the resource announced for one dial. Its owner is wired up
// between announcing and closing ready.
type attempt struct {
	ready chan struct{}
	done  chan struct{}

	owner *lookup.Notifier
}

func newAttempt() *attempt {
	return &attempt{
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (a *attempt) Ready() <-chan struct{} { return a.ready }
func (a *attempt) Done() <-chan struct{}  { return a.done }

func (a *attempt) Owner() lookup.Source {
	if a.owner == nil {
		return nil
	}
	return a.owner
}

func (a *attempt) wire() {
	a.owner = lookup.NewNotifier()
	close(a.ready)
}

func (a *attempt) finish() {
	close(a.done)
}
