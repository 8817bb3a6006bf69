package ports

import "github.com/ghalamif/EdgeHub/internal/domain"

// DataListener is where polling managers deliver readings.
type DataListener interface {
	IngestSensorReading(r *domain.SensorReading) bool
	IngestPerformanceReading(r *domain.PerformanceReading) bool
}

// ActuatorDispatcher routes commands to actuator backends.
type ActuatorDispatcher interface {
	SendActuatorCommand(msg domain.ActuatorMessage) *domain.ActuatorResponse
}

// Lifecycle is a component that can be started and stopped repeatedly.
// Both calls report whether they changed state.
type Lifecycle interface {
	Start() bool
	Stop() bool
}

// Codec converts records to and from wire payloads. Decode returns nil for
// anything it cannot convert.
type Codec interface {
	Encode(rec domain.Record) []byte
	Decode(data []byte, kind domain.RecordKind) domain.Record
	DecodeActuator(data []byte) domain.ActuatorMessage
}

// TelemetryListener observes every record after it is cached.
type TelemetryListener interface {
	Name() string
	OnRecord(rec domain.Record) error
}

// DataSource is a scheduled producer that pushes readings to a DataListener.
type DataSource interface {
	Lifecycle
	SetDataListener(l DataListener)
}
