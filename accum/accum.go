// Package accum aggregates timestamps observed from many sources
// and exposes the aggregate as Prometheus metrics.
package accum

import (
	"sync"

	"github.com/gwos/tstamp/errors"
	"github.com/gwos/tstamp/timestamp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Stats is a snapshot of Accumulator
type Stats struct {
	Count  uint64              `json:"count"`
	Total  timestamp.Timestamp `json:"total"`
	Min    timestamp.Timestamp `json:"min"`
	Max    timestamp.Timestamp `json:"max"`
	Mean   timestamp.Timestamp `json:"mean"`
	Errors map[string]uint64   `json:"errors,omitempty"`
}

// Accumulator sums timestamps, safe for concurrent use.
// An observation overflowing the total is rejected and counted,
// the total keeps its previous value.
type Accumulator struct {
	mu     sync.Mutex
	count  uint64
	total  timestamp.Timestamp
	min    timestamp.Timestamp
	max    timestamp.Timestamp
	errors map[string]uint64

	descCount  *prometheus.Desc
	descTotal  *prometheus.Desc
	descMin    *prometheus.Desc
	descMax    *prometheus.Desc
	descErrors *prometheus.Desc
}

// New returns new instance with metrics named in namespace
func New(namespace string) *Accumulator {
	fqName := func(name string) string {
		return prometheus.BuildFQName(namespace, "timestamps", name)
	}
	return &Accumulator{
		errors: make(map[string]uint64),

		descCount: prometheus.NewDesc(fqName("observed_total"),
			"Number of accumulated timestamps.", nil, nil),
		descTotal: prometheus.NewDesc(fqName("sum_seconds"),
			"Sum of accumulated timestamps.", nil, nil),
		descMin: prometheus.NewDesc(fqName("min_seconds"),
			"Smallest accumulated timestamp.", nil, nil),
		descMax: prometheus.NewDesc(fqName("max_seconds"),
			"Largest accumulated timestamp.", nil, nil),
		descErrors: prometheus.NewDesc(fqName("errors_total"),
			"Number of rejected inputs by error kind.", []string{"kind"}, nil),
	}
}

// Observe adds ts to the aggregate
func (a *Accumulator) Observe(ts timestamp.Timestamp) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.total.Add(ts); err != nil {
		a.errors[errors.Kind(err)]++
		log.Debug().Err(err).Stringer("input", ts).Msg("could not accumulate")
		return err
	}
	if a.count == 0 || ts.Compare(a.min) < 0 {
		a.min = ts
	}
	if ts.Compare(a.max) > 0 {
		a.max = ts
	}
	a.count++
	return nil
}

// ObserveString decodes s and adds it to the aggregate
func (a *Accumulator) ObserveString(s string, strict bool) error {
	var ts timestamp.Timestamp
	if err := ts.FromString(s, strict); err != nil {
		a.Reject(err)
		return err
	}
	return a.Observe(ts)
}

// Reject counts the failed input
func (a *Accumulator) Reject(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errors[errors.Kind(err)]++
	log.Debug().Err(err).Msg("rejected input")
}

// Stats returns snapshot of aggregate
func (a *Accumulator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := Stats{
		Count: a.count,
		Total: a.total,
		Min:   a.min,
		Max:   a.max,
	}
	if a.count > 0 {
		st.Mean = timestamp.New(a.total.Ticks() / int64(a.count))
	}
	if len(a.errors) > 0 {
		st.Errors = make(map[string]uint64, len(a.errors))
		for k, v := range a.errors {
			st.Errors[k] = v
		}
	}
	return st
}

// Describe implements prometheus.Collector interface
func (a *Accumulator) Describe(ch chan<- *prometheus.Desc) {
	ch <- a.descCount
	ch <- a.descTotal
	ch <- a.descMin
	ch <- a.descMax
	ch <- a.descErrors
}

// Collect implements prometheus.Collector interface
func (a *Accumulator) Collect(ch chan<- prometheus.Metric) {
	st := a.Stats()
	ch <- prometheus.MustNewConstMetric(a.descCount, prometheus.CounterValue, float64(st.Count))
	ch <- prometheus.MustNewConstMetric(a.descTotal, prometheus.GaugeValue, st.Total.Seconds())
	ch <- prometheus.MustNewConstMetric(a.descMin, prometheus.GaugeValue, st.Min.Seconds())
	ch <- prometheus.MustNewConstMetric(a.descMax, prometheus.GaugeValue, st.Max.Seconds())
	for kind, v := range st.Errors {
		ch <- prometheus.MustNewConstMetric(a.descErrors, prometheus.CounterValue, float64(v), kind)
	}
}
