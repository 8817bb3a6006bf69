package ports

import "github.com/ghalamif/EdgeHub/internal/domain"

// SensorBackend produces one reading per poll. Location stamping is the
// caller's concern.
type SensorBackend interface {
	Name() string
	TypeID() int
	Poll() (*domain.SensorReading, error)
}

// ActuatorBackend drives one physical or emulated actuator.
type ActuatorBackend interface {
	Name() string
	TypeID() int
	Activate(value float64) error
	Deactivate() error
}

// SystemProbe reports host utilization as percentages.
type SystemProbe interface {
	CPUUtilization() (float64, error)
	MemoryUtilization() (float64, error)
	DiskUtilization() (float64, error)
}
