package edgehub

import (
	"context"
	"fmt"
)

// Flow is a convenience builder that lets callers say Conf → StreamIN → StreamOUT
// without touching the underlying hexagonal wiring.
type Flow struct {
	cfg  *Config
	opts []EdgeRuntimeOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// StreamInOption configures the device side: sensors, actuators, host probe.
type StreamInOption func(*Flow)

// StreamOutOption configures the upstream side: transports, listeners, snapshot store.
type StreamOutOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the underlying configuration so callers can tweak it before building a runtime.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw EdgeRuntimeOption values to the builder for advanced scenarios.
func (f *Flow) Options(opts ...EdgeRuntimeOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// StreamIN records device-side overrides.
func (f *Flow) StreamIN(opts ...StreamInOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// StreamOUT records upstream overrides and builds an EdgeRuntime ready to run.
func (f *Flow) StreamOUT(opts ...StreamOutOption) (*EdgeRuntime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return NewEdgeRuntime(f.cfg, f.opts...)
}

// Run is a shortcut for StreamOUT + runtime.Run.
func (f *Flow) Run(ctx context.Context, opts ...StreamOutOption) error {
	rt, err := f.StreamOUT(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// WithFlowOptions appends EdgeRuntimeOption values during Conf.
func WithFlowOptions(opts ...EdgeRuntimeOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

// StreamInSensors replaces the configured sensor backends.
func StreamInSensors(b ...SensorBackend) StreamInOption {
	return func(f *Flow) {
		if f != nil && len(b) > 0 {
			f.appendOptions(WithSensorBackends(b...))
		}
	}
}

// StreamInActuators replaces the configured actuator backends.
func StreamInActuators(b ...ActuatorBackend) StreamInOption {
	return func(f *Flow) {
		if f != nil && len(b) > 0 {
			f.appendOptions(WithActuatorBackends(b...))
		}
	}
}

// StreamInProbe replaces the host utilization probe.
func StreamInProbe(p SystemProbe) StreamInOption {
	return func(f *Flow) {
		if f != nil && p != nil {
			f.appendOptions(WithSystemProbe(p))
		}
	}
}

// StreamInObservability overrides the default Prometheus-based observability stack.
func StreamInObservability(obs Observability) StreamInOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

// StreamOutPubSub injects a custom publish/subscribe client.
func StreamOutPubSub(p PubSubClient) StreamOutOption {
	return func(f *Flow) {
		if f != nil && p != nil {
			f.appendOptions(WithPubSub(p))
		}
	}
}

// StreamOutRequestResponse injects a custom request/response client.
func StreamOutRequestResponse(r RequestResponseClient) StreamOutOption {
	return func(f *Flow) {
		if f != nil && r != nil {
			f.appendOptions(WithRequestResponse(r))
		}
	}
}

// StreamOutSnapshot mirrors the caches into a custom store.
func StreamOutSnapshot(s SnapshotStore) StreamOutOption {
	return func(f *Flow) {
		if f != nil && s != nil {
			f.appendOptions(WithSnapshotStore(s))
		}
	}
}

// StreamOutListener registers a telemetry listener.
func StreamOutListener(l TelemetryListener) StreamOutOption {
	return func(f *Flow) {
		if f != nil && l != nil {
			f.appendOptions(WithTelemetryListener(l))
		}
	}
}

// StreamOutCallback installs a listener built from a simple callback function.
func StreamOutCallback(name string, fn RecordHandler) StreamOutOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(WithTelemetryListener(NewCallbackListener(name, fn)))
		}
	}
}

func (f *Flow) appendOptions(opts ...EdgeRuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
