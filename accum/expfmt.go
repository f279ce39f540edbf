package accum

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// WriteText writes metrics gathered from the accumulators
// in Prometheus text exposition format
func WriteText(w io.Writer, cc ...prometheus.Collector) error {
	registry := prometheus.NewRegistry()
	for _, c := range cc {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	mfs, err := registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
