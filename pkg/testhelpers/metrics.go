package testhelpers

import (
	"fmt"

	"github.com/onsi/gomega/matchers"
	"github.com/onsi/gomega/types"

	"github.com/prometheus/client_golang/prometheus"
	putil "github.com/prometheus/client_golang/prometheus/testutil"
)

// CurrentMetricValue reads a collector holding exactly one series.
func CurrentMetricValue(metric prometheus.Collector) float64 {
	return putil.ToFloat64(metric)
}

// CurrentSeriesValue reads one series of a counter vector.
func CurrentSeriesValue(vec *prometheus.CounterVec, labels prometheus.Labels) float64 {
	return putil.ToFloat64(vec.With(labels))
}

func SeriesCount(metric prometheus.Collector) int {
	return putil.CollectAndCount(metric)
}

func MetricIncrementedBy(
	before float64,
	comparator string,
	expected float64,
) types.GomegaMatcher {
	return &metricIncrementedByMatcher{
		before:     before,
		comparator: comparator,
		expected:   expected,
	}
}

type metricIncrementedByMatcher struct {
	before     float64
	comparator string
	expected   float64
}

func (m *metricIncrementedByMatcher) wrapped() *matchers.BeNumericallyMatcher {
	return &matchers.BeNumericallyMatcher{
		Comparator: m.comparator,
		CompareTo:  []interface{}{m.before + m.expected},
	}
}

func (m *metricIncrementedByMatcher) value(act interface{}) (float64, error) {
	metric, ok := act.(prometheus.Collector)
	if !ok {
		return 0, fmt.Errorf("%v is not a prometheus.Collector", act)
	}
	return putil.ToFloat64(metric), nil
}

func (m *metricIncrementedByMatcher) Match(act interface{}) (bool, error) {
	value, err := m.value(act)
	if err != nil {
		return false, err
	}
	return m.wrapped().Match(value)
}

func (m *metricIncrementedByMatcher) FailureMessage(act interface{}) string {
	value, err := m.value(act)
	if err != nil {
		return err.Error()
	}
	return m.wrapped().FailureMessage(value)
}

func (m *metricIncrementedByMatcher) NegatedFailureMessage(act interface{}) string {
	value, err := m.value(act)
	if err != nil {
		return err.Error()
	}
	return m.wrapped().NegatedFailureMessage(value)
}
