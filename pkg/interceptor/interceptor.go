package interceptor

import (
	"fmt"
	"sync/atomic"

	"code.cloudfoundry.org/lager"

	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/hook"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/lookup"
)

func init() {
	initMetrics()
}

type Sink func(lookup.Record)

// Interceptor attaches a one-shot lookup listener to every resource it is
// given, once that resource is ready, and turns the completion into a
// record for the sink.
type Interceptor struct {
	sink   Sink
	logger lager.Logger

	pending int64
}

func New(sink Sink, logger lager.Logger) *Interceptor {
	return &Interceptor{
		sink:   sink,
		logger: logger.Session("interceptor"),
	}
}

// Init is a hook.InitFunc. It returns without blocking.
func (i *Interceptor) Init(r hook.Resource) {
	if r.Handle == nil {
		InterceptorOwnerlessResourcesTotal.Inc()
		return
	}

	InterceptorResourcesTotal.Inc()

	i.track(1)
	go i.awaitReady(r)
}

func (i *Interceptor) Pending() int {
	return int(atomic.LoadInt64(&i.pending))
}

func (i *Interceptor) track(delta int64) {
	atomic.AddInt64(&i.pending, delta)
	InterceptorPendingResources.Add(float64(delta))
}

func (i *Interceptor) awaitReady(r hook.Resource) {
	defer i.track(-1)

	select {
	case <-r.Handle.Ready():
	case <-r.Handle.Done():
		select {
		case <-r.Handle.Ready():
		default:
			return
		}
	}

	owner := r.Handle.Owner()
	if owner == nil {
		InterceptorOwnerlessResourcesTotal.Inc()
		return
	}

	owner.OnceLookup(func(event lookup.Event) {
		i.deliver(r, event)
	})
}

func (i *Interceptor) deliver(r hook.Resource, event lookup.Event) {
	data := lager.Data{
		"resource-id": r.ID,
		"trigger-id":  r.TriggerID,
		"kind":        r.Kind,
		"host":        event.Host,
	}

	defer func() {
		if p := recover(); p != nil {
			i.logger.Error("err-sink-panic", fmt.Errorf("%v", p), data)
		}
	}()

	InterceptorLookupsTotal.Inc()
	i.logger.Debug("lookup", data)

	i.sink(lookup.NewRecord(event))
}
