package edgehub

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ghalamif/EdgeHub/internal/adapters/coap"
	"github.com/ghalamif/EdgeHub/internal/adapters/codec"
	"github.com/ghalamif/EdgeHub/internal/adapters/mqtt"
	"github.com/ghalamif/EdgeHub/internal/adapters/nats"
	"github.com/ghalamif/EdgeHub/internal/adapters/observability"
	"github.com/ghalamif/EdgeHub/internal/adapters/queue"
	"github.com/ghalamif/EdgeHub/internal/adapters/snapshot"
	"github.com/ghalamif/EdgeHub/internal/adapters/sysperf"
	"github.com/ghalamif/EdgeHub/internal/app/actuation"
	"github.com/ghalamif/EdgeHub/internal/app/config"
	"github.com/ghalamif/EdgeHub/internal/app/coordinator"
	"github.com/ghalamif/EdgeHub/internal/app/mirror"
	"github.com/ghalamif/EdgeHub/internal/app/perfmon"
	"github.com/ghalamif/EdgeHub/internal/app/sensing"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// EdgeRuntimeOption customizes the dependencies used by EdgeRuntime.
type EdgeRuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	observability Observability
	pubsub        PubSubClient
	reqres        RequestResponseClient
	sensors       []SensorBackend
	actuators     []ActuatorBackend
	probe         SystemProbe
	store         SnapshotStore
	listeners     []TelemetryListener
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithPubSub replaces the configured MQTT/NATS client.
func WithPubSub(p PubSubClient) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.pubsub = p
	}
}

// WithRequestResponse replaces the configured CoAP client.
func WithRequestResponse(r RequestResponseClient) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.reqres = r
	}
}

// WithSensorBackends bypasses simulated/emulated sensor selection.
func WithSensorBackends(b ...SensorBackend) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.sensors = append(o.sensors, b...)
	}
}

// WithActuatorBackends bypasses simulated/emulated actuator selection.
func WithActuatorBackends(b ...ActuatorBackend) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.actuators = append(o.actuators, b...)
	}
}

// WithSystemProbe replaces the gopsutil host probe.
func WithSystemProbe(p SystemProbe) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.probe = p
	}
}

// WithSnapshotStore enables the snapshot mirror against a caller-provided
// store, regardless of snapshot.enabled.
func WithSnapshotStore(s SnapshotStore) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		o.store = s
	}
}

// WithTelemetryListener registers an observer for every cached record.
func WithTelemetryListener(l TelemetryListener) EdgeRuntimeOption {
	return func(o *runtimeOverrides) {
		if l != nil {
			o.listeners = append(o.listeners, l)
		}
	}
}

// EdgeRuntime wires schedulers, actuators, transports and the coordinator
// from one Config and exposes lifecycle hooks for embedding EdgeHub inside
// any Go service.
type EdgeRuntime struct {
	cfg   *Config
	obs   ports.Observability
	codec *codec.JSON
	coord *coordinator.Coordinator

	sensing   *sensing.Manager
	actuation *actuation.Manager
	perfmon   *perfmon.Monitor
	pubsub    ports.PubSubClient
	reqres    ports.RequestResponseClient
	mirror    *mirror.Mirror
	db        *sql.DB

	gatherer   prometheus.Gatherer
	metricsSrv *http.Server
}

// NewEdgeRuntime bootstraps the default adapters (simulated or OPC UA
// backends, MQTT or NATS, optional CoAP, gopsutil probe, Prometheus
// observability). EdgeRuntimeOption values override any of them.
//
// The default observability registers into a registry owned by the runtime,
// so several runtimes can share a process. With WithObservability, /metrics
// serves the default Prometheus gatherer instead.
func NewEdgeRuntime(cfg *Config, opts ...EdgeRuntimeOption) (*EdgeRuntime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if obs == nil {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		obs = observability.NewPromObs(observability.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.NoColor), reg)
		gatherer = reg
	}

	var codecOpts []codec.Option
	if cfg.Device.UseDecimalEncoding {
		codecOpts = append(codecOpts, codec.WithDecimal(cfg.Device.DecimalRounding()))
	}
	e := &EdgeRuntime{cfg: cfg, obs: obs, codec: codec.NewJSON(obs, codecOpts...), gatherer: gatherer}

	coordOpts := []coordinator.Option{coordinator.WithTelemetryListener(overrides.listeners...)}

	if cfg.Device.EnableActuation {
		var aopts []actuation.Option
		if len(overrides.actuators) > 0 {
			aopts = append(aopts, actuation.WithBackends(overrides.actuators...))
		}
		e.actuation = actuation.NewManager(actuation.Config{
			LocationID:     cfg.Device.LocationID,
			Backend:        cfg.Device.Backend,
			ConnectTimeout: cfg.Device.ConnectTimeout,
			OPCUA:          cfg.OPCUA,
		}, obs, aopts...)
		coordOpts = append(coordOpts, coordinator.WithDispatcher(e.actuation))
	}

	if cfg.Device.EnableSensing {
		var sopts []sensing.Option
		if len(overrides.sensors) > 0 {
			sopts = append(sopts, sensing.WithBackends(overrides.sensors...))
		}
		e.sensing = sensing.NewManager(sensing.Config{
			LocationID:     cfg.Device.LocationID,
			PollInterval:   cfg.Device.PollInterval,
			MisfireGrace:   cfg.Device.MisfireGrace,
			Backend:        cfg.Device.Backend,
			ConnectTimeout: cfg.Device.ConnectTimeout,
			Sim:            cfg.Simulation,
			OPCUA:          cfg.OPCUA,
		}, obs, sopts...)
		coordOpts = append(coordOpts, coordinator.WithSensing(e.sensing))
	}

	if cfg.Device.EnableSystemPerf {
		probe := overrides.probe
		if probe == nil {
			probe = sysperf.NewProbe(cfg.Device.DiskPath)
		}
		e.perfmon = perfmon.NewMonitor(perfmon.Config{
			LocationID:   cfg.Device.LocationID,
			PollInterval: cfg.Device.PollInterval,
			MisfireGrace: cfg.Device.MisfireGrace,
		}, probe, obs)
		coordOpts = append(coordOpts, coordinator.WithPerformanceMonitor(e.perfmon))
	}

	e.pubsub = overrides.pubsub
	if e.pubsub == nil && cfg.PubSub.Enabled {
		switch cfg.PubSub.Transport {
		case config.TransportNATS:
			e.pubsub = nats.New(cfg.NATS, obs)
		default:
			e.pubsub = mqtt.New(cfg.MQTT, obs)
		}
	}
	if e.pubsub != nil {
		coordOpts = append(coordOpts, coordinator.WithPubSub(e.pubsub))
	}

	e.reqres = overrides.reqres
	if e.reqres == nil && cfg.CoAP.Enabled {
		client, err := coap.Dial(cfg.CoAP, obs)
		if err != nil {
			e.closeBackends()
			return nil, err
		}
		e.reqres = client
	}
	if e.reqres != nil {
		coordOpts = append(coordOpts, coordinator.WithRequestResponse(e.reqres))
	}

	store := overrides.store
	if store == nil && cfg.Snapshot.Enabled {
		db, err := snapshot.Open(cfg.Snapshot.ConnString)
		if err != nil {
			e.closeBackends()
			return nil, err
		}
		e.db = db
		store = snapshot.NewPostgresStore(db, cfg.Snapshot.Table, e.codec)
	}
	if store != nil {
		pol := cfg.Snapshot.Policy
		q := queue.NewMemQueue(pol.MaxQueueLen, pol.OnQueueFull != "drop")
		e.mirror = mirror.New(q, store, pol, obs)
		coordOpts = append(coordOpts, coordinator.WithTelemetryListener(e.mirror))
	}

	coord, err := coordinator.New(coordinator.Settings{
		LocationID:         cfg.Device.LocationID,
		EnableTempHandling: cfg.Device.HandleTempChange,
		TempFloor:          cfg.Device.HvacTempFloor,
		TempCeiling:        cfg.Device.HvacTempCeiling,
		QoS:                cfg.PubSub.DefaultQoS,
		RequestTimeout:     cfg.CoAP.Timeout,
	}, e.codec, obs, coordOpts...)
	if err != nil {
		e.closeBackends()
		return nil, err
	}
	e.coord = coord
	return e, nil
}

// Start launches the snapshot mirror, the coordinator and the management
// HTTP server. It returns immediately; call Run to block on a context instead.
func (e *EdgeRuntime) Start() error {
	if e == nil {
		return fmt.Errorf("edge runtime is nil")
	}
	if e.mirror != nil {
		e.mirror.Start()
	}
	if !e.coord.Start() {
		return fmt.Errorf("edge runtime already started")
	}
	e.startHTTP()
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (e *EdgeRuntime) Run(ctx context.Context) error {
	if err := e.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server, the coordinator, the mirror and every
// backend connection.
func (e *EdgeRuntime) Shutdown(ctx context.Context) error {
	var errs []error

	if e.metricsSrv != nil {
		if err := e.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		e.metricsSrv = nil
	}

	e.coord.Stop()
	if e.mirror != nil {
		e.mirror.Stop()
	}

	errs = append(errs, e.closeBackends())
	return errors.Join(errs...)
}

func (e *EdgeRuntime) closeBackends() error {
	var errs []error
	closers := []io.Closer{}
	if e.reqres != nil {
		closers = append(closers, e.reqres)
	}
	if e.sensing != nil {
		closers = append(closers, e.sensing)
	}
	if e.actuation != nil {
		closers = append(closers, e.actuation)
	}
	if e.db != nil {
		closers = append(closers, e.db)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetCached returns a copy of the latest record of kind with the given name.
func (e *EdgeRuntime) GetCached(kind RecordKind, name string) Record {
	return e.coord.GetCached(kind, name)
}

// IngestSensorReading feeds an externally produced reading through the same
// path as the scheduled sensors.
func (e *EdgeRuntime) IngestSensorReading(r *SensorReading) bool {
	return e.coord.IngestSensorReading(r)
}

// DispatchActuatorCommand runs msg through the actuator dispatch path.
func (e *EdgeRuntime) DispatchActuatorCommand(msg ActuatorMessage) *ActuatorResponse {
	return e.coord.DispatchActuatorCommand(msg)
}

// PollSensors triggers one sensing cycle outside the schedule.
func (e *EdgeRuntime) PollSensors() int {
	if e.sensing == nil {
		return 0
	}
	return e.sensing.PollOnce()
}

// Started reports whether the coordinator is running.
func (e *EdgeRuntime) Started() bool { return e.coord.Started() }

// Encode serializes rec with the runtime's codec.
func (e *EdgeRuntime) Encode(rec Record) []byte { return e.codec.Encode(rec) }
