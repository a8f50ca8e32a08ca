package spy

import (
	"encoding/json"
	"fmt"
	"sync"

	"code.cloudfoundry.org/lager"

	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/hook"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/interceptor"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/lookup"
)

func init() {
	initMetrics()
}

type Option func(*options)

type options struct {
	metricName   string
	policy       Policy
	startEnabled bool
}

func WithMetricName(name string) Option {
	return func(o *options) { o.metricName = name }
}

func WithPolicy(policy Policy) Option {
	return func(o *options) { o.policy = policy }
}

func WithStartEnabled(enabled bool) Option {
	return func(o *options) { o.startEnabled = enabled }
}

type Subscription uint64

type subscriber struct {
	id       Subscription
	function func(lookup.Record)
}

// Spy reports the hostnames a process resolves while connecting out. Each
// spy owns its own hook on the tap, its own registry and its own
// subscribers.
type Spy struct {
	service    string
	metricName string
	policy     Policy

	logger lager.Logger

	hook        *hook.Hook
	interceptor *interceptor.Interceptor

	mu               sync.Mutex
	hosts            map[string]lookup.Record
	order            []string
	subscribers      []subscriber
	lastSubscription Subscription
}

func New(
	tap *hook.Tap,
	service string,

	logger lager.Logger,

	opts ...Option,
) (*Spy, error) {
	o := options{
		metricName:   DefaultMetricName,
		policy:       PolicyDedup,
		startEnabled: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	err := validateArguments(arguments{
		Service:    service,
		MetricName: o.metricName,
		Policy:     o.policy,
	})
	if err != nil {
		return nil, err
	}

	lsession := logger.Session("spy", lager.Data{
		"service": service,
		"policy":  o.policy,
	})

	s := &Spy{
		service:    service,
		metricName: o.metricName,
		policy:     o.policy,

		logger: lsession,

		hosts: make(map[string]lookup.Record),
		order: make([]string, 0),
	}

	s.interceptor = interceptor.New(s.publish, lsession)
	s.hook = tap.NewHook(hook.FilterKind(hook.KindTCPConnect, s.interceptor.Init))

	if o.startEnabled {
		s.Enable()
	}

	return s, nil
}

func (s *Spy) Service() string    { return s.service }
func (s *Spy) MetricName() string { return s.metricName }
func (s *Spy) Policy() Policy     { return s.policy }

func (s *Spy) Enable() {
	s.logger.Info("enable")
	s.hook.Enable()
}

func (s *Spy) Disable() {
	s.logger.Info("disable")
	s.hook.Disable()
}

func (s *Spy) Enabled() bool {
	return s.hook.Enabled()
}

// Pending is the number of announced connections whose lookups have not
// yet been handed to the registry.
func (s *Spy) Pending() int {
	return s.interceptor.Pending()
}

// Clear forgets every hostname seen so far, so they are reported again.
func (s *Spy) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("clear", lager.Data{"hosts": len(s.order)})

	s.hosts = make(map[string]lookup.Record)
	s.order = make([]string, 0)
}

// Values returns the last record of every hostname, in the order the
// hostnames were first seen.
func (s *Spy) Values() []lookup.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make([]lookup.Record, 0, len(s.order))
	for _, hostname := range s.order {
		values = append(values, s.hosts[hostname])
	}

	return values
}

// Subscribe registers a function called with every published record.
// Functions are called in registration order, possibly from several
// goroutines at once.
func (s *Spy) Subscribe(function func(lookup.Record)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSubscription++
	s.subscribers = append(s.subscribers, subscriber{
		id:       s.lastSubscription,
		function: function,
	})

	return s.lastSubscription
}

// Once registers a function called with the next published record only.
func (s *Spy) Once(function func(lookup.Record)) Subscription {
	var (
		once sync.Once
		id   Subscription
		idMu sync.Mutex
	)

	idMu.Lock()
	defer idMu.Unlock()

	id = s.Subscribe(func(record lookup.Record) {
		once.Do(func() {
			idMu.Lock()
			s.Unsubscribe(id)
			idMu.Unlock()

			function(record)
		})
	})

	return id
}

func (s *Spy) Unsubscribe(id Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := make([]subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		if sub.id != id {
			remaining = append(remaining, sub)
		}
	}
	s.subscribers = remaining
}

func (s *Spy) publish(record lookup.Record) {
	s.mu.Lock()

	_, seen := s.hosts[record.Hostname]
	if seen && s.policy == PolicyDedup {
		s.mu.Unlock()
		SpyRecordsSuppressedTotal.Inc()
		return
	}

	if !seen {
		s.order = append(s.order, record.Hostname)
	}
	s.hosts[record.Hostname] = record

	subscribers := make([]subscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)

	s.mu.Unlock()

	SpyRecordsPublishedTotal.Inc()
	s.logger.Debug("host", lager.Data{"record": record})

	for _, sub := range subscribers {
		s.notify(sub, record)
	}
}

func (s *Spy) notify(sub subscriber, record lookup.Record) {
	defer func() {
		if p := recover(); p != nil {
			SpySubscriberPanicsTotal.Inc()
			s.logger.Error(
				"err-subscriber-panic",
				fmt.Errorf("%v", p),
				lager.Data{"subscription": sub.id, "hostname": record.Hostname},
			)
		}
	}()

	sub.function(record)
}

type spyJSON struct {
	Service string          `json:"service"`
	Hosts   []lookup.Record `json:"hosts"`
}

func (s *Spy) MarshalJSON() ([]byte, error) {
	return json.Marshal(spyJSON{
		Service: s.service,
		Hosts:   s.Values(),
	})
}
