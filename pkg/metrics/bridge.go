package metrics

import (
	"sync"

	"code.cloudfoundry.org/lager"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/lookup"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/spy"
)

func init() {
	initMetrics()
}

var labelNames = []string{"service", "hostname", "address", "family", "error"}

// Source is what the bridge needs from a spy.
type Source interface {
	Service() string
	MetricName() string

	Subscribe(func(lookup.Record)) spy.Subscription
	Unsubscribe(spy.Subscription)
}

type Label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Update is the state of one counter series right after it was
// incremented.
type Update struct {
	Name   string  `json:"name"`
	Labels []Label `json:"labels"`
	Value  float64 `json:"value"`
}

func (u Update) Label(name string) string {
	for _, label := range u.Labels {
		if label.Name == name {
			return label.Value
		}
	}
	return ""
}

type Bridge struct {
	source  Source
	name    string
	service string

	counter *prometheus.CounterVec

	logger lager.Logger

	mu           sync.Mutex
	started      bool
	stopped      bool
	subscription spy.Subscription
	streams      []chan Update
}

func NewBridge(
	source Source,
	registerer prometheus.Registerer,
	logger lager.Logger,
) (*Bridge, error) {
	name := source.MetricName()
	service := source.Service()

	if err := spy.ValidateLabels(service, name); err != nil {
		return nil, err
	}

	lsession := logger.Session("metrics-bridge", lager.Data{
		"service": service, "metric": name,
	})

	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: "Counter of outbound host resolutions observed by the spy",
	}, labelNames)

	if err := registerer.Register(counter); err != nil {
		existing, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			lsession.Error("err-register-counter", err)
			return nil, errors.Wrapf(err, "registering counter %s", name)
		}

		counter, ok = existing.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, errors.Errorf("metric %s is already registered with another type", name)
		}
	}

	return &Bridge{
		source:  source,
		name:    name,
		service: service,

		counter: counter,

		logger: lsession,

		streams: make([]chan Update, 0),
	}, nil
}

func (b *Bridge) Counter() *prometheus.CounterVec {
	return b.counter
}

func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started || b.stopped {
		return
	}

	b.logger.Info("start")
	b.started = true
	b.subscription = b.source.Subscribe(b.record)
}

// Stop unsubscribes from the spy and closes every stream.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}

	b.logger.Info("stop")
	b.stopped = true

	if b.started {
		b.source.Unsubscribe(b.subscription)
	}

	for _, stream := range b.streams {
		close(stream)
	}
	b.streams = nil
}

// Stream returns a channel receiving every update from now on. Updates
// which do not fit in the buffer are dropped.
func (b *Bridge) Stream(buffer int) <-chan Update {
	b.mu.Lock()
	defer b.mu.Unlock()

	stream := make(chan Update, buffer)
	if b.stopped {
		close(stream)
		return stream
	}

	b.streams = append(b.streams, stream)
	return stream
}

// record increments the series and emits its value under one lock, so
// updates of a series carry distinct, increasing values.
func (b *Bridge) record(record lookup.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	values := []string{
		b.service,
		record.Hostname,
		record.AddressLabel(),
		record.FamilyLabel(),
		record.ErrorLabel(),
	}

	series := b.counter.WithLabelValues(values...)
	series.Inc()

	var metric dto.Metric
	if err := series.Write(&metric); err != nil {
		b.logger.Error("err-read-counter", err, lager.Data{"hostname": record.Hostname})
		return
	}

	labels := make([]Label, 0, len(labelNames))
	for index, name := range labelNames {
		labels = append(labels, Label{Name: name, Value: values[index]})
	}

	b.emit(Update{
		Name:   b.name,
		Labels: labels,
		Value:  metric.GetCounter().GetValue(),
	})
}

// emit must be called with b.mu held.
func (b *Bridge) emit(update Update) {
	BridgeUpdatesTotal.Inc()

	for _, stream := range b.streams {
		select {
		case stream <- update:
		default:
			BridgeDroppedUpdatesTotal.Inc()
			b.logger.Debug("dropped-update", lager.Data{"hostname": update.Label("hostname")})
		}
	}
}
