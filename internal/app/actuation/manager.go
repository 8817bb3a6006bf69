package actuation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ghalamif/EdgeHub/internal/adapters/opcua"
	"github.com/ghalamif/EdgeHub/internal/adapters/sim"
	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

const (
	BackendSimulated = "simulated"
	BackendEmulated  = "emulated"
)

type Config struct {
	LocationID     string
	Backend        string
	ConnectTimeout time.Duration
	OPCUA          opcua.Config
}

// Manager validates actuator commands and routes them to the backend
// registered for the command's type.
type Manager struct {
	cfg      Config
	obs      ports.Observability
	backends map[int]ports.ActuatorBackend
	closer   io.Closer
}

type Option func(*Manager)

// WithBackends bypasses backend selection.
func WithBackends(b ...ports.ActuatorBackend) Option {
	return func(m *Manager) {
		m.backends = index(b)
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
		var backends []ports.ActuatorBackend
		backends, m.closer = selectBackends(cfg, obs)
		m.backends = index(backends)
	}
	return m
}

func index(backends []ports.ActuatorBackend) map[int]ports.ActuatorBackend {
	out := make(map[int]ports.ActuatorBackend, len(backends))
	for _, b := range backends {
		out[b.TypeID()] = b
	}
	return out
}

func selectBackends(cfg Config, obs ports.Observability) ([]ports.ActuatorBackend, io.Closer) {
	if cfg.Backend == BackendEmulated {
		timeout := cfg.ConnectTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		backends, session, err := opcua.NewActuators(ctx, cfg.OPCUA)
		if err == nil {
			obs.LogInfo("actuator_backends_loaded", ports.F("backend", BackendEmulated))
			return backends, session
		}
		obs.LogError("emulated_actuator_load_failed", err)
		obs.LogWarn("actuator_backend_fallback", ports.F("backend", BackendSimulated))
	}
	obs.LogInfo("actuator_backends_loaded", ports.F("backend", BackendSimulated))
	return sim.NewActuators(obs), nil
}

// Backend returns the backend registered for typeID.
func (m *Manager) Backend(typeID int) (ports.ActuatorBackend, bool) {
	b, ok := m.backends[typeID]
	return b, ok
}

// SendActuatorCommand executes msg and returns the backend's response, or nil
// when the command is rejected before reaching a backend.
func (m *Manager) SendActuatorCommand(msg domain.ActuatorMessage) *domain.ActuatorResponse {
	cmd, err := m.validate(msg)
	if err != nil {
		m.obs.RecordDropped("actuator_dispatch", err)
		return nil
	}

	backend, ok := m.backends[cmd.TypeID]
	if !ok {
		m.obs.RecordDropped("actuator_dispatch", fmt.Errorf("%w %d", domain.ErrNoBackend, cmd.TypeID),
			ports.F("actuator", cmd.Name))
		return nil
	}

	switch cmd.Cmd {
	case domain.CommandOn:
		err = backend.Activate(cmd.Value)
	case domain.CommandOff:
		err = backend.Deactivate()
	default:
		m.obs.RecordDropped("actuator_dispatch", fmt.Errorf("%w %d", domain.ErrUnknownCommand, cmd.Cmd),
			ports.F("actuator", cmd.Name))
		return nil
	}

	status := domain.StatusOK
	if err != nil {
		status = domain.StatusError
		m.obs.LogError("actuator_backend_failed", err, ports.F("actuator", backend.Name()))
	}
	m.obs.IncCounter(ports.MetricActuatorCommands, 1)
	return domain.NewActuatorResponse(cmd, status)
}

func (m *Manager) validate(msg domain.ActuatorMessage) (*domain.ActuatorCommand, error) {
	if domain.ValidateRecord(msg) == domain.ErrNilRecord {
		return nil, domain.ErrNilRecord
	}
	if msg.IsResponse() {
		return nil, domain.ErrResponseAsCommand
	}
	cmd := msg.Command()
	if cmd.LocationID != m.cfg.LocationID {
		return nil, fmt.Errorf("%w: got %q want %q", domain.ErrLocationMismatch, cmd.LocationID, m.cfg.LocationID)
	}
	return cmd, nil
}

// Close releases emulated backend sessions.
func (m *Manager) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

var _ ports.ActuatorDispatcher = (*Manager)(nil)
