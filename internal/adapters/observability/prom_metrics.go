package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/SignalGuard/internal/ports"
)

type PromObs struct {
	reg      *prometheus.Registry
	logger   *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the run metrics on reg and logs through logger.
// A nil reg gets a fresh registry; a nil logger uses slog.Default().
func NewPromObs(reg *prometheus.Registry, logger *slog.Logger) *PromObs {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}

	processed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricSamplesProcessed,
		Help: "Samples dispatched to a signal validator.",
	})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricSamplesSkipped,
		Help: "Samples for signals without a rule.",
	})
	loadErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: ports.MetricLoadErrors,
		Help: "Rule or sample loads that aborted the run.",
	})
	monitored := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricSignalsMonitored,
		Help: "Signals with a validator in the last run.",
	})
	failed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricSignalsFailed,
		Help: "Signals with a FAIL verdict in the last run.",
	})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricRunDuration,
		Help:    "Time spent sorting and dispatching samples.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
	loadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricLoadDuration,
		Help:    "Time spent loading rules and samples.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	reg.MustRegister(processed, skipped, loadErrors, monitored, failed, runDuration, loadDuration)

	return &PromObs{
		reg:    reg,
		logger: logger,
		counters: map[string]prometheus.Counter{
			ports.MetricSamplesProcessed: processed,
			ports.MetricSamplesSkipped:   skipped,
			ports.MetricLoadErrors:       loadErrors,
		},
		gauges: map[string]prometheus.Gauge{
			ports.MetricSignalsMonitored: monitored,
			ports.MetricSignalsFailed:    failed,
		},
		histos: map[string]prometheus.Observer{
			ports.MetricRunDuration:  runDuration,
			ports.MetricLoadDuration: loadDuration,
		},
	}
}

// WriteTextfile dumps the current metrics in the node_exporter textfile
// collector format.
func (p *PromObs) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.reg)
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	p.logger.Error(msg, args...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
