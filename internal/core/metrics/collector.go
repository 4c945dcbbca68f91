package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================================
//                              Prometheus 导出
// ============================================================================

type descriptors struct {
	attempts    *prometheus.Desc
	recoveries  *prometheus.Desc
	exhausted   *prometheus.Desc
	lastSuccess *prometheus.Desc
	recovering  *prometheus.Desc
}

func newDescriptors(namespace string, labels prometheus.Labels) descriptors {
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, "", n)
	}
	return descriptors{
		attempts: prometheus.NewDesc(name("attempts_total"),
			"Recovery attempts by strategy and result.",
			[]string{"strategy", "result"}, labels),
		recoveries: prometheus.NewDesc(name("recoveries_total"),
			"Recovery episodes that ended in success.", nil, labels),
		exhausted: prometheus.NewDesc(name("exhausted_total"),
			"Recovery episodes that exhausted their attempts.", nil, labels),
		lastSuccess: prometheus.NewDesc(name("last_success_timestamp_seconds"),
			"Unix time of the last successful recovery.", nil, labels),
		recovering: prometheus.NewDesc(name("recovering"),
			"Whether a recovery episode is in flight.", nil, labels),
	}
}

var _ prometheus.Collector = (*Recorder)(nil)

// Describe 实现 prometheus.Collector
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	d := r.descs()
	ch <- d.attempts
	ch <- d.recoveries
	ch <- d.exhausted
	ch <- d.lastSuccess
	ch <- d.recovering
}

// Collect 实现 prometheus.Collector
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	d := r.descs()

	r.mu.RLock()
	totals := r.totals
	recovering := r.recovering
	byStrategy := make(map[strategyResult]int, len(r.byStrategy))
	for k, v := range r.byStrategy {
		byStrategy[k] = v
	}
	r.mu.RUnlock()

	for k, v := range byStrategy {
		ch <- prometheus.MustNewConstMetric(d.attempts, prometheus.CounterValue, float64(v), k.strategy, k.result)
	}
	ch <- prometheus.MustNewConstMetric(d.recoveries, prometheus.CounterValue, float64(totals.TotalRecoveries))
	ch <- prometheus.MustNewConstMetric(d.exhausted, prometheus.CounterValue, float64(totals.TotalExhausted))

	var last float64
	if !totals.LastSuccessAt.IsZero() {
		last = float64(totals.LastSuccessAt.UnixNano()) / 1e9
	}
	ch <- prometheus.MustNewConstMetric(d.lastSuccess, prometheus.GaugeValue, last)

	var rec float64
	if recovering {
		rec = 1
	}
	ch <- prometheus.MustNewConstMetric(d.recovering, prometheus.GaugeValue, rec)
}

func (r *Recorder) descs() descriptors {
	r.descOnce.Do(func() {
		r.desc = newDescriptors(r.config.Namespace, r.config.ConstLabels)
	})
	return r.desc
}
