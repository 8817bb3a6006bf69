package perfmon

import (
	"sync"
	"time"

	"github.com/ghalamif/EdgeHub/internal/app/scheduler"
	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

type Config struct {
	LocationID   string
	PollInterval time.Duration
	MisfireGrace time.Duration
}

// Monitor samples host utilization on a schedule.
type Monitor struct {
	cfg   Config
	probe ports.SystemProbe
	obs   ports.Observability
	job   *scheduler.Periodic

	mu       sync.RWMutex
	listener ports.DataListener
}

func NewMonitor(cfg Config, probe ports.SystemProbe, obs ports.Observability) *Monitor {
	m := &Monitor{cfg: cfg, probe: probe, obs: obs}
	m.job = scheduler.New("system_performance", cfg.PollInterval, func() { m.PollOnce() }, obs,
		scheduler.WithMisfireGrace(cfg.MisfireGrace))
	return m
}

func (m *Monitor) SetDataListener(l ports.DataListener) {
	m.mu.Lock()
	m.listener = l
	m.mu.Unlock()
}

func (m *Monitor) Start() bool { return m.job.Start() }
func (m *Monitor) Stop() bool  { return m.job.Stop() }

// PollOnce takes one sample. A probe that fails contributes zero and marks
// the reading as errored.
func (m *Monitor) PollOnce() *domain.PerformanceReading {
	r := &domain.PerformanceReading{IotData: domain.NewIotData(domain.SystemPerfName, domain.SystemPerfType)}
	r.LocationID = m.cfg.LocationID

	r.CPUUtil = m.sample("cpu", m.probe.CPUUtilization, r)
	r.MemUtil = m.sample("memory", m.probe.MemoryUtilization, r)
	r.DiskUtil = m.sample("disk", m.probe.DiskUtilization, r)

	m.obs.SetGauge(ports.GaugeCPU, r.CPUUtil)
	m.obs.SetGauge(ports.GaugeMemory, r.MemUtil)
	m.obs.SetGauge(ports.GaugeDisk, r.DiskUtil)
	m.obs.LogDebug("system_performance",
		ports.F("cpu", r.CPUUtil), ports.F("mem", r.MemUtil), ports.F("disk", r.DiskUtil))

	m.mu.RLock()
	listener := m.listener
	m.mu.RUnlock()
	if listener != nil {
		listener.IngestPerformanceReading(r)
	}
	return r
}

func (m *Monitor) sample(what string, read func() (float64, error), r *domain.PerformanceReading) float64 {
	v, err := read()
	if err != nil {
		m.obs.LogWarn("system_probe_failed", ports.F("metric", what), ports.F("error", err.Error()))
		r.HasError = true
		r.StatusCode = domain.StatusError
		return 0
	}
	return v
}

var _ ports.Lifecycle = (*Monitor)(nil)
