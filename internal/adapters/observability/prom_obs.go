package observability

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/EdgeHub/internal/ports"
)

const droppedTotal = "edgehub_events_dropped_total"

// NewLogger builds the console logger used across the runtime.
func NewLogger(w io.Writer, level string, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogObs implements the logging half of ports.Observability and ignores metrics.
type LogObs struct {
	log *slog.Logger
}

func NewLogObs(logger *slog.Logger) *LogObs {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObs{log: logger}
}

func (l *LogObs) LogDebug(msg string, fields ...ports.Field) {
	l.log.Debug(msg, attrs(nil, fields)...)
}

func (l *LogObs) LogInfo(msg string, fields ...ports.Field) {
	l.log.Info(msg, attrs(nil, fields)...)
}

func (l *LogObs) LogWarn(msg string, fields ...ports.Field) {
	l.log.Warn(msg, attrs(nil, fields)...)
}

func (l *LogObs) LogError(msg string, err error, fields ...ports.Field) {
	l.log.Error(msg, attrs(err, fields)...)
}

func (l *LogObs) LogCritical(msg string, err error, fields ...ports.Field) {
	l.log.Error(msg, append(attrs(err, fields), slog.Bool("critical", true))...)
}

func (l *LogObs) IncCounter(string, float64)     {}
func (l *LogObs) ObserveLatency(string, float64) {}
func (l *LogObs) SetGauge(string, float64)       {}

func (l *LogObs) RecordDropped(stage string, err error, fields ...ports.Field) {
	l.log.Warn("event_dropped", attrs(err, append(fields, ports.F("stage", stage)))...)
}

func attrs(err error, fields []ports.Field) []any {
	out := make([]any, 0, len(fields)+1)
	if err != nil {
		out = append(out, slog.String("error", err.Error()))
	}
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

// PromObs logs through slog and records metrics in a Prometheus registry.
type PromObs struct {
	*LogObs

	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
	dropped  *prometheus.CounterVec
}

// NewPromObs registers the hub's collectors with reg, or with the default
// registerer when reg is nil. Each registry can hold one PromObs.
func NewPromObs(logger *slog.Logger, reg prometheus.Registerer) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}

	counters := map[string]prometheus.Counter{
		ports.MetricSensorReadings:    counter(ports.MetricSensorReadings, "Sensor readings cached by the coordinator."),
		ports.MetricPerfReadings:      counter(ports.MetricPerfReadings, "System performance readings cached by the coordinator."),
		ports.MetricActuatorResponses: counter(ports.MetricActuatorResponses, "Actuator responses cached by the coordinator."),
		ports.MetricActuatorCommands:  counter(ports.MetricActuatorCommands, "Actuator commands executed by a backend."),
		ports.MetricPublished:         counter(ports.MetricPublished, "Payloads handed to an upstream transport."),
		ports.MetricPublishFailures:   counter(ports.MetricPublishFailures, "Upstream transport attempts that failed."),
		ports.MetricInbound:           counter(ports.MetricInbound, "Inbound messages delivered to the coordinator."),
		ports.MetricSchedulerSkipped:  counter(ports.MetricSchedulerSkipped, "Periodic firings skipped by overlap or misfire policy."),
		ports.MetricSnapshotRows:      counter(ports.MetricSnapshotRows, "Rows upserted into the snapshot store."),
	}
	gauges := map[string]prometheus.Gauge{
		ports.GaugeCPU:           gauge(ports.GaugeCPU, "Host CPU utilization."),
		ports.GaugeMemory:        gauge(ports.GaugeMemory, "Host memory utilization."),
		ports.GaugeDisk:          gauge(ports.GaugeDisk, "Host disk utilization."),
		ports.GaugeCacheEntries:  gauge(ports.GaugeCacheEntries, "Entries across the latest-value caches."),
		ports.GaugeSnapshotQueue: gauge(ports.GaugeSnapshotQueue, "Records waiting for the snapshot store."),
	}
	histos := map[string]prometheus.Histogram{
		ports.LatencyPollCycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    ports.LatencyPollCycle,
			Help:    "Duration of one polling cycle.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		ports.LatencyPublish: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    ports.LatencyPublish,
			Help:    "Time spent handing one payload to the pub/sub transport.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		ports.LatencySnapshotFlush: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    ports.LatencySnapshotFlush,
			Help:    "Snapshot store upsert latency.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: droppedTotal,
		Help: "Events abandoned, by stage.",
	}, []string{"stage"})

	collectors := []prometheus.Collector{dropped}
	for _, c := range counters {
		collectors = append(collectors, c)
	}
	for _, g := range gauges {
		collectors = append(collectors, g)
	}
	observers := make(map[string]prometheus.Observer, len(histos))
	for name, h := range histos {
		collectors = append(collectors, h)
		observers[name] = h
	}
	reg.MustRegister(collectors...)

	return &PromObs{
		LogObs:   NewLogObs(logger),
		counters: counters,
		gauges:   gauges,
		histos:   observers,
		dropped:  dropped,
	}
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

func (p *PromObs) RecordDropped(stage string, err error, fields ...ports.Field) {
	p.dropped.WithLabelValues(stage).Inc()
	p.LogObs.RecordDropped(stage, err, fields...)
}

var (
	_ ports.Observability = (*LogObs)(nil)
	_ ports.Observability = (*PromObs)(nil)
)
