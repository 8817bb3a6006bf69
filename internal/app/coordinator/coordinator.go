package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// Settings is the coordinator's slice of the device configuration.
type Settings struct {
	LocationID         string
	EnableTempHandling bool
	TempFloor          float64
	TempCeiling        float64
	QoS                int
	RequestTimeout     time.Duration
}

func (s Settings) validate() error {
	if s.EnableTempHandling && s.TempFloor >= s.TempCeiling {
		return fmt.Errorf("temperature floor %.2f must be below ceiling %.2f", s.TempFloor, s.TempCeiling)
	}
	if s.QoS < 0 || s.QoS > 2 {
		return domain.ErrInvalidQoS
	}
	return nil
}

// Coordinator owns the latest-value caches and decides what is relayed
// upstream. Ingest methods are safe for concurrent use.
type Coordinator struct {
	settings Settings
	codec    ports.Codec
	obs      ports.Observability

	pubsub     ports.PubSubClient
	reqres     ports.RequestResponseClient
	dispatcher ports.ActuatorDispatcher
	sensing    ports.DataSource
	perfmon    ports.DataSource
	listeners  []ports.TelemetryListener

	sensors   *latestCache[*domain.SensorReading]
	perf      *latestCache[*domain.PerformanceReading]
	actuators *latestCache[*domain.ActuatorResponse]

	lifeMu  sync.Mutex
	started bool
}

type Option func(*Coordinator)

func WithPubSub(p ports.PubSubClient) Option {
	return func(c *Coordinator) { c.pubsub = p }
}

func WithRequestResponse(r ports.RequestResponseClient) Option {
	return func(c *Coordinator) { c.reqres = r }
}

func WithDispatcher(d ports.ActuatorDispatcher) Option {
	return func(c *Coordinator) { c.dispatcher = d }
}

func WithSensing(s ports.DataSource) Option {
	return func(c *Coordinator) { c.sensing = s }
}

func WithPerformanceMonitor(p ports.DataSource) Option {
	return func(c *Coordinator) { c.perfmon = p }
}

// WithTelemetryListener registers observers notified after each cache update.
func WithTelemetryListener(l ...ports.TelemetryListener) Option {
	return func(c *Coordinator) {
		for _, listener := range l {
			if listener != nil {
				c.listeners = append(c.listeners, listener)
			}
		}
	}
}

// New wires the coordinator as listener of every source and transport it is
// given.
func New(settings Settings, codec ports.Codec, obs ports.Observability, opts ...Option) (*Coordinator, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	if codec == nil {
		return nil, errors.New("codec is nil")
	}
	if obs == nil {
		return nil, errors.New("observability is nil")
	}
	if settings.RequestTimeout <= 0 {
		settings.RequestTimeout = 5 * time.Second
	}

	c := &Coordinator{
		settings:  settings,
		codec:     codec,
		obs:       obs,
		sensors:   newLatestCache[*domain.SensorReading](),
		perf:      newLatestCache[*domain.PerformanceReading](),
		actuators: newLatestCache[*domain.ActuatorResponse](),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.sensing != nil {
		c.sensing.SetDataListener(c)
	}
	if c.perfmon != nil {
		c.perfmon.SetDataListener(c)
	}
	if c.pubsub != nil {
		c.pubsub.SetMessageListener(c)
	}
	if c.reqres != nil {
		c.reqres.SetMessageListener(c)
	}
	return c, nil
}

func (c *Coordinator) IngestSensorReading(r *domain.SensorReading) bool {
	if !c.admit(r) {
		return false
	}
	c.sensors.put(r)
	c.cached(ports.MetricSensorReadings)
	c.applyControlRule(r)
	c.relay(domain.CDASensorMsg, r)
	c.notify(r)
	return true
}

func (c *Coordinator) IngestPerformanceReading(r *domain.PerformanceReading) bool {
	if !c.admit(r) {
		return false
	}
	c.perf.put(r)
	c.cached(ports.MetricPerfReadings)
	c.relay(domain.CDASystemPerfMsg, r)
	c.notify(r)
	return true
}

func (c *Coordinator) IngestActuatorResponse(r *domain.ActuatorResponse) bool {
	if !c.admit(r) {
		return false
	}
	c.actuators.put(r)
	c.cached(ports.MetricActuatorResponses)
	c.relay(domain.CDAActuatorResponse, r)
	c.notify(r)
	return true
}

// DispatchActuatorCommand hands msg to the dispatch manager and caches the
// response it produces.
func (c *Coordinator) DispatchActuatorCommand(msg domain.ActuatorMessage) *domain.ActuatorResponse {
	if err := domain.ValidateRecord(msg); err != nil {
		c.obs.RecordDropped("dispatch", err)
		return nil
	}
	if c.dispatcher == nil {
		c.obs.LogWarn("actuator_dispatch_not_configured", ports.F("actuator", msg.RecordName()))
		return nil
	}
	resp := c.dispatcher.SendActuatorCommand(msg)
	if resp == nil {
		return nil
	}
	c.IngestActuatorResponse(resp)
	return resp
}

// HandleInboundMessage decodes payload as an actuator message and dispatches
// it. It reports whether the payload was accepted, not whether an actuator
// acted on it.
func (c *Coordinator) HandleInboundMessage(res domain.ResourceID, payload []byte) bool {
	if len(payload) == 0 {
		c.obs.RecordDropped("inbound", domain.ErrEmptyPayload, ports.F("resource", res.String()))
		return false
	}
	c.obs.IncCounter(ports.MetricInbound, 1)

	msg := c.codec.DecodeActuator(payload)
	if msg == nil {
		c.obs.RecordDropped("decode", domain.ErrDecode, ports.F("resource", res.String()))
		return false
	}
	c.obs.LogDebug("inbound_actuator_message",
		ports.F("resource", res.String()), ports.F("actuator", msg.RecordName()), ports.F("response", msg.IsResponse()))
	c.DispatchActuatorCommand(msg)
	return true
}

// GetCached returns a copy of the latest record for name, or nil.
func (c *Coordinator) GetCached(kind domain.RecordKind, name string) domain.Record {
	var (
		rec domain.Record
		ok  bool
	)
	switch kind {
	case domain.KindSensor:
		rec, ok = c.sensors.get(name)
	case domain.KindPerformance:
		rec, ok = c.perf.get(name)
	case domain.KindActuator:
		rec, ok = c.actuators.get(name)
	}
	if !ok {
		return nil
	}
	return rec
}

// CachedNames lists the names held in one cache, sorted.
func (c *Coordinator) CachedNames(kind domain.RecordKind) []string {
	switch kind {
	case domain.KindSensor:
		return c.sensors.names()
	case domain.KindPerformance:
		return c.perf.names()
	case domain.KindActuator:
		return c.actuators.names()
	default:
		return nil
	}
}

func (c *Coordinator) admit(rec domain.Record) bool {
	if err := domain.ValidateRecord(rec); err != nil {
		c.obs.RecordDropped("ingest", err)
		return false
	}
	return true
}

func (c *Coordinator) cached(counter string) {
	c.obs.IncCounter(counter, 1)
	c.obs.SetGauge(ports.GaugeCacheEntries, float64(c.sensors.len()+c.perf.len()+c.actuators.len()))
}

// relay sends rec upstream on every configured transport. Failures are
// counted and logged; the record stays cached either way.
func (c *Coordinator) relay(res domain.ResourceID, rec domain.Record) {
	if c.pubsub == nil && c.reqres == nil {
		c.obs.LogDebug("upstream_not_configured", ports.F("resource", res.String()), ports.F("name", rec.RecordName()))
		return
	}
	payload := c.codec.Encode(rec)
	if len(payload) == 0 {
		c.obs.RecordDropped("encode", domain.ErrEmptyPayload, ports.F("name", rec.RecordName()))
		return
	}

	if c.pubsub != nil {
		start := time.Now()
		err := c.pubsub.Publish(res, payload, c.settings.QoS)
		c.obs.ObserveLatency(ports.LatencyPublish, time.Since(start).Seconds())
		if err != nil {
			c.obs.IncCounter(ports.MetricPublishFailures, 1)
			c.obs.LogWarn("publish_failed",
				ports.F("transport", c.pubsub.Name()), ports.F("resource", res.String()), ports.F("error", err.Error()))
		} else {
			c.obs.IncCounter(ports.MetricPublished, 1)
		}
	}
	if c.reqres != nil {
		if c.reqres.Post(res, payload, c.settings.RequestTimeout) {
			c.obs.IncCounter(ports.MetricPublished, 1)
		} else {
			c.obs.IncCounter(ports.MetricPublishFailures, 1)
		}
	}
}

func (c *Coordinator) notify(rec domain.Record) {
	for _, l := range c.listeners {
		if err := l.OnRecord(domain.CloneRecord(rec)); err != nil {
			c.obs.LogWarn("telemetry_listener_failed", ports.F("listener", l.Name()), ports.F("error", err.Error()))
		}
	}
}

var commandResources = []domain.ResourceID{domain.CDAActuatorCmd, domain.CDAMgmtStatusCmd}

// Start opens the transports and starts the schedulers. Transport failures
// are logged and do not prevent local operation.
func (c *Coordinator) Start() bool {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.started {
		return false
	}

	if c.pubsub != nil {
		if err := c.pubsub.Connect(); err != nil {
			c.obs.LogError("pubsub_connect_failed", err, ports.F("transport", c.pubsub.Name()))
		} else {
			for _, res := range commandResources {
				if err := c.pubsub.Subscribe(res, c.settings.QoS); err != nil {
					c.obs.LogError("pubsub_subscribe_failed", err, ports.F("resource", res.String()))
				}
			}
		}
	}
	if c.reqres != nil && !c.reqres.Observe(domain.CDAActuatorCmd, c.settings.RequestTimeout) {
		c.obs.LogWarn("observe_failed", ports.F("resource", domain.CDAActuatorCmd.String()))
	}
	if c.sensing != nil {
		c.sensing.Start()
	}
	if c.perfmon != nil {
		c.perfmon.Start()
	}

	c.started = true
	c.obs.LogInfo("coordinator_started", ports.F("location", c.settings.LocationID))
	return true
}

// Stop undoes Start in reverse order. In-flight dispatches are not
// interrupted.
func (c *Coordinator) Stop() bool {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if !c.started {
		return false
	}

	if c.perfmon != nil {
		c.perfmon.Stop()
	}
	if c.sensing != nil {
		c.sensing.Stop()
	}
	if c.reqres != nil {
		c.reqres.CancelObserve(domain.CDAActuatorCmd, c.settings.RequestTimeout)
	}
	if c.pubsub != nil {
		for i := len(commandResources) - 1; i >= 0; i-- {
			if err := c.pubsub.Unsubscribe(commandResources[i]); err != nil {
				c.obs.LogWarn("pubsub_unsubscribe_failed", ports.F("resource", commandResources[i].String()), ports.F("error", err.Error()))
			}
		}
		if err := c.pubsub.Disconnect(); err != nil {
			c.obs.LogError("pubsub_disconnect_failed", err)
		}
	}

	c.started = false
	c.obs.LogInfo("coordinator_stopped")
	return true
}

func (c *Coordinator) Started() bool {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	return c.started
}

var (
	_ ports.DataListener    = (*Coordinator)(nil)
	_ ports.MessageListener = (*Coordinator)(nil)
	_ ports.Lifecycle       = (*Coordinator)(nil)
)
