package edgehub

import (
	base "github.com/ghalamif/EdgeHub/pkg/edgehub"
)

// Re-exported errors for convenience.
var (
	ErrChannelListenerClosed = base.ErrChannelListenerClosed
	ErrChannelListenerFull   = base.ErrChannelListenerFull
)

// Re-exported cache kinds.
const (
	KindSensor      = base.KindSensor
	KindActuator    = base.KindActuator
	KindPerformance = base.KindPerformance
)

// Type aliases so consumers can import github.com/ghalamif/EdgeHub directly.
type (
	Config                = base.Config
	DeviceConfig          = base.DeviceConfig
	SimulationConfig      = base.SimulationConfig
	PubSubConfig          = base.PubSubConfig
	MQTTConfig            = base.MQTTConfig
	NATSConfig            = base.NATSConfig
	CoAPConfig            = base.CoAPConfig
	OPCUAConfig           = base.OPCUAConfig
	SnapshotConfig        = base.SnapshotConfig
	Policy                = base.Policy
	MetricsConfig         = base.MetricsConfig
	LoggingConfig         = base.LoggingConfig
	Flow                  = base.Flow
	FlowOption            = base.FlowOption
	StreamInOption        = base.StreamInOption
	StreamOutOption       = base.StreamOutOption
	EdgeRuntime           = base.EdgeRuntime
	EdgeRuntimeOption     = base.EdgeRuntimeOption
	Record                = base.Record
	RecordKind            = base.RecordKind
	RecordHandler         = base.RecordHandler
	IotData               = base.IotData
	SensorReading         = base.SensorReading
	PerformanceReading    = base.PerformanceReading
	ActuatorCommand       = base.ActuatorCommand
	ActuatorResponse      = base.ActuatorResponse
	ActuatorMessage       = base.ActuatorMessage
	ResourceID            = base.ResourceID
	SensorBackend         = base.SensorBackend
	ActuatorBackend       = base.ActuatorBackend
	SystemProbe           = base.SystemProbe
	PubSubClient          = base.PubSubClient
	RequestResponseClient = base.RequestResponseClient
	TelemetryListener     = base.TelemetryListener
	SnapshotStore         = base.SnapshotStore
	Observability         = base.Observability
	Field                 = base.Field
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() Config {
	return base.DefaultConfig()
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...EdgeRuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInSensors(b ...SensorBackend) StreamInOption {
	return base.StreamInSensors(b...)
}

func StreamInActuators(b ...ActuatorBackend) StreamInOption {
	return base.StreamInActuators(b...)
}

func StreamInProbe(p SystemProbe) StreamInOption {
	return base.StreamInProbe(p)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutPubSub(p PubSubClient) StreamOutOption {
	return base.StreamOutPubSub(p)
}

func StreamOutRequestResponse(r RequestResponseClient) StreamOutOption {
	return base.StreamOutRequestResponse(r)
}

func StreamOutSnapshot(s SnapshotStore) StreamOutOption {
	return base.StreamOutSnapshot(s)
}

func StreamOutListener(l TelemetryListener) StreamOutOption {
	return base.StreamOutListener(l)
}

func StreamOutCallback(name string, fn RecordHandler) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Edge runtime and options.
func NewEdgeRuntime(cfg *Config, opts ...EdgeRuntimeOption) (*EdgeRuntime, error) {
	return base.NewEdgeRuntime(cfg, opts...)
}

func WithObservability(obs Observability) EdgeRuntimeOption {
	return base.WithObservability(obs)
}

func WithPubSub(p PubSubClient) EdgeRuntimeOption {
	return base.WithPubSub(p)
}

func WithRequestResponse(r RequestResponseClient) EdgeRuntimeOption {
	return base.WithRequestResponse(r)
}

func WithSensorBackends(b ...SensorBackend) EdgeRuntimeOption {
	return base.WithSensorBackends(b...)
}

func WithActuatorBackends(b ...ActuatorBackend) EdgeRuntimeOption {
	return base.WithActuatorBackends(b...)
}

func WithSystemProbe(p SystemProbe) EdgeRuntimeOption {
	return base.WithSystemProbe(p)
}

func WithSnapshotStore(s SnapshotStore) EdgeRuntimeOption {
	return base.WithSnapshotStore(s)
}

func WithTelemetryListener(l TelemetryListener) EdgeRuntimeOption {
	return base.WithTelemetryListener(l)
}

// Listener adapters.
func NewCallbackListener(name string, fn RecordHandler) TelemetryListener {
	return base.NewCallbackListener(name, fn)
}

func NewChannelListener(name string, buffer int) (TelemetryListener, <-chan Record, func()) {
	return base.NewChannelListener(name, buffer)
}
