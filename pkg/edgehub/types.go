package edgehub

import (
	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

type (
	// Record is any value held in the latest-value caches.
	Record             = domain.Record
	RecordKind         = domain.RecordKind
	IotData            = domain.IotData
	SensorReading      = domain.SensorReading
	PerformanceReading = domain.PerformanceReading
	ActuatorCommand    = domain.ActuatorCommand
	ActuatorResponse   = domain.ActuatorResponse
	// ActuatorMessage is either an *ActuatorCommand or an *ActuatorResponse.
	ActuatorMessage = domain.ActuatorMessage
	// ResourceID names a logical endpoint such as PIOT/ConstrainedDevice/SensorMsg.
	ResourceID = domain.ResourceID
)

const (
	KindSensor      = domain.KindSensor
	KindActuator    = domain.KindActuator
	KindPerformance = domain.KindPerformance
)

type (
	// SensorBackend produces one reading per poll.
	SensorBackend = ports.SensorBackend
	// ActuatorBackend switches a physical or simulated actuator.
	ActuatorBackend = ports.ActuatorBackend
	// SystemProbe reports host utilization percentages.
	SystemProbe = ports.SystemProbe
	// PubSubClient is the primary upstream transport.
	PubSubClient = ports.PubSubClient
	// RequestResponseClient is the secondary upstream transport.
	RequestResponseClient = ports.RequestResponseClient
	// TelemetryListener observes every record after it is cached.
	TelemetryListener = ports.TelemetryListener
	// SnapshotStore persists the latest value per (kind, name).
	SnapshotStore = ports.SnapshotStore
	// Observability emits logs and metrics.
	Observability = ports.Observability
	// Field is a structured log field used by Observability implementations.
	Field = ports.Field
)
