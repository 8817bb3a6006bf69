package sim

import (
	"sync"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// Actuator logs each action and remembers its last state.
type Actuator struct {
	name   string
	typeID int
	obs    ports.Observability

	mu    sync.Mutex
	on    bool
	value float64
}

func NewActuator(name string, typeID int, obs ports.Observability) *Actuator {
	return &Actuator{name: name, typeID: typeID, obs: obs}
}

func (a *Actuator) Name() string { return a.name }
func (a *Actuator) TypeID() int  { return a.typeID }

func (a *Actuator) Activate(value float64) error {
	a.mu.Lock()
	a.on, a.value = true, value
	a.mu.Unlock()
	a.obs.LogInfo("sim_actuator_on", ports.F("actuator", a.name), ports.F("value", value))
	return nil
}

func (a *Actuator) Deactivate() error {
	a.mu.Lock()
	a.on, a.value = false, 0
	a.mu.Unlock()
	a.obs.LogInfo("sim_actuator_off", ports.F("actuator", a.name))
	return nil
}

// State returns the last commanded state.
func (a *Actuator) State() (on bool, value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.on, a.value
}

// NewActuators returns the HVAC, humidifier and LED display simulators.
func NewActuators(obs ports.Observability) []ports.ActuatorBackend {
	return []ports.ActuatorBackend{
		NewActuator(domain.HvacActuatorName, domain.HvacActuatorType, obs),
		NewActuator(domain.HumidifierActuatorName, domain.HumidifierActuatorType, obs),
		NewActuator(domain.LedDisplayActuatorName, domain.LedDisplayActuatorType, obs),
	}
}

var _ ports.ActuatorBackend = (*Actuator)(nil)
