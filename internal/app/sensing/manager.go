package sensing

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/ghalamif/EdgeHub/internal/adapters/opcua"
	"github.com/ghalamif/EdgeHub/internal/adapters/sim"
	"github.com/ghalamif/EdgeHub/internal/app/scheduler"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

const (
	BackendSimulated = "simulated"
	BackendEmulated  = "emulated"
)

type Config struct {
	LocationID     string
	PollInterval   time.Duration
	MisfireGrace   time.Duration
	Backend        string
	ConnectTimeout time.Duration
	Sim            sim.Config
	OPCUA          opcua.Config
}

// Manager polls every sensor backend on a schedule and forwards the
// readings to a DataListener.
type Manager struct {
	cfg      Config
	obs      ports.Observability
	backends []ports.SensorBackend
	closer   io.Closer
	job      *scheduler.Periodic

	mu       sync.RWMutex
	listener ports.DataListener
}

type Option func(*Manager)

// WithBackends bypasses backend selection.
func WithBackends(b ...ports.SensorBackend) Option {
	return func(m *Manager) {
		m.backends = b
	}
}

func NewManager(cfg Config, obs ports.Observability, opts ...Option) *Manager {
	m := &Manager{cfg: cfg, obs: obs}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.backends == nil {
		m.backends, m.closer = selectBackends(cfg, obs)
	}
	m.job = scheduler.New("sensor_telemetry", cfg.PollInterval, func() { m.PollOnce() }, obs,
		scheduler.WithMaxInstances(scheduler.DefaultMaxInstances),
		scheduler.WithMisfireGrace(cfg.MisfireGrace))
	return m
}

// selectBackends resolves the backend family once. Emulated backends that
// fail to load fall back to simulated ones.
func selectBackends(cfg Config, obs ports.Observability) ([]ports.SensorBackend, io.Closer) {
	if cfg.Backend == BackendEmulated {
		timeout := cfg.ConnectTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		backends, session, err := opcua.NewSensors(ctx, cfg.OPCUA)
		if err == nil {
			obs.LogInfo("sensor_backends_loaded", ports.F("backend", BackendEmulated))
			return backends, session
		}
		obs.LogError("emulated_sensor_load_failed", err)
		obs.LogWarn("sensor_backend_fallback", ports.F("backend", BackendSimulated))
	}
	obs.LogInfo("sensor_backends_loaded", ports.F("backend", BackendSimulated))
	return sim.NewSensors(cfg.Sim), nil
}

func (m *Manager) SetDataListener(l ports.DataListener) {
	m.mu.Lock()
	m.listener = l
	m.mu.Unlock()
}

func (m *Manager) Backends() []ports.SensorBackend { return m.backends }

func (m *Manager) Start() bool { return m.job.Start() }
func (m *Manager) Stop() bool  { return m.job.Stop() }

// PollOnce reads every backend once and returns how many readings the
// listener accepted.
func (m *Manager) PollOnce() int {
	m.mu.RLock()
	listener := m.listener
	m.mu.RUnlock()

	accepted := 0
	for _, b := range m.backends {
		r, err := b.Poll()
		if err != nil {
			m.obs.RecordDropped("sensor_poll", err, ports.F("sensor", b.Name()))
			continue
		}
		if r == nil {
			continue
		}
		r.LocationID = m.cfg.LocationID
		if listener == nil {
			m.obs.LogDebug("sensor_reading_unrouted", ports.F("sensor", r.Name), ports.F("value", r.Value))
			continue
		}
		if listener.IngestSensorReading(r) {
			accepted++
		}
	}
	return accepted
}

// Close releases emulated backend sessions.
func (m *Manager) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

var _ ports.Lifecycle = (*Manager)(nil)
