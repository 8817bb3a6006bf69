package opcua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// Config captures the runtime details required to open an OPC UA session
// against the device emulator.
type Config struct {
	Endpoint        string        `yaml:"endpoint"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	SecurityMode    string        `yaml:"security_mode"`
	SecurityPolicy  string        `yaml:"security_policy"`
	ApplicationName string        `yaml:"application_name"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	SensorNodes     SensorNodes   `yaml:"sensor_nodes"`
	ActuatorNodes   ActuatorNodes `yaml:"actuator_nodes"`
}

// SensorNodes maps each sensor onto the node it is read from.
type SensorNodes struct {
	Humidity    string `yaml:"humidity"`
	Pressure    string `yaml:"pressure"`
	Temperature string `yaml:"temperature"`
}

// ActuatorNodes maps each actuator onto the node it writes to.
type ActuatorNodes struct {
	HVAC       string `yaml:"hvac"`
	Humidifier string `yaml:"humidifier"`
	LedDisplay string `yaml:"led_display"`
}

func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "EdgeHub Constrained Device"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 2 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	return nil
}

type nodeSpec struct {
	name   string
	typeID int
	nodeID string
}

func (n SensorNodes) specs() []nodeSpec {
	return []nodeSpec{
		{domain.HumiditySensorName, domain.HumiditySensorType, n.Humidity},
		{domain.PressureSensorName, domain.PressureSensorType, n.Pressure},
		{domain.TempSensorName, domain.TempSensorType, n.Temperature},
	}
}

func (n ActuatorNodes) specs() []nodeSpec {
	return []nodeSpec{
		{domain.HvacActuatorName, domain.HvacActuatorType, n.HVAC},
		{domain.HumidifierActuatorName, domain.HumidifierActuatorType, n.Humidifier},
		{domain.LedDisplayActuatorName, domain.LedDisplayActuatorType, n.LedDisplay},
	}
}

func parseNodes(specs []nodeSpec) ([]*ua.NodeID, error) {
	ids := make([]*ua.NodeID, len(specs))
	for i, s := range specs {
		if s.nodeID == "" {
			return nil, fmt.Errorf("no node configured for %s", s.name)
		}
		id, err := ua.ParseNodeID(s.nodeID)
		if err != nil {
			return nil, fmt.Errorf("parse node id %q: %w", s.nodeID, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// Session is one OPC UA client connection shared by a backend family.
type Session struct {
	cfg    Config
	client *opcua.Client
}

// Dial opens a session. The caller owns Close.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := opcua.NewClient(cfg.Endpoint, buildClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("opcua connect: %w", err)
	}
	return &Session{cfg: cfg, client: client}, nil
}

func (s *Session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Session) readFloat(nodeID *ua.NodeID) (float64, time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()

	resp, err := s.client.Read(ctx, &ua.ReadRequest{
		MaxAge:             2000,
		NodesToRead:        []*ua.ReadValueID{{NodeID: nodeID, AttributeID: ua.AttributeIDValue}},
		TimestampsToReturn: ua.TimestampsToReturnBoth,
	})
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("opcua read %s: %w", nodeID, err)
	}
	if len(resp.Results) == 0 {
		return 0, time.Time{}, fmt.Errorf("opcua read %s: empty result", nodeID)
	}
	res := resp.Results[0]
	if res.Status != ua.StatusOK {
		return 0, time.Time{}, fmt.Errorf("opcua read %s: %s", nodeID, res.Status)
	}
	if res.Value == nil {
		return 0, time.Time{}, fmt.Errorf("opcua read %s: no value", nodeID)
	}
	v, ok := variantToFloat(res.Value)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("opcua read %s: unsupported type %T", nodeID, res.Value.Value())
	}

	ts := res.SourceTimestamp
	if ts.IsZero() {
		ts = res.ServerTimestamp
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	return v, ts.UTC(), nil
}

func (s *Session) writeFloat(nodeID *ua.NodeID, v float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()

	resp, err := s.client.Write(ctx, &ua.WriteRequest{
		NodesToWrite: []*ua.WriteValue{{
			NodeID:      nodeID,
			AttributeID: ua.AttributeIDValue,
			Value: &ua.DataValue{
				EncodingMask: ua.DataValueValue,
				Value:        ua.MustVariant(v),
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("opcua write %s: %w", nodeID, err)
	}
	if len(resp.Results) == 0 {
		return fmt.Errorf("opcua write %s: empty result", nodeID)
	}
	if resp.Results[0] != ua.StatusOK {
		return fmt.Errorf("opcua write %s: %s", nodeID, resp.Results[0])
	}
	return nil
}

// Sensor reads one node per poll.
type Sensor struct {
	session *Session
	name    string
	typeID  int
	node    *ua.NodeID
}

func (s *Sensor) Name() string { return s.name }
func (s *Sensor) TypeID() int  { return s.typeID }

func (s *Sensor) Poll() (*domain.SensorReading, error) {
	v, ts, err := s.session.readFloat(s.node)
	if err != nil {
		return nil, err
	}
	hdr := domain.NewIotData(s.name, s.typeID)
	hdr.TimeStamp = ts
	return &domain.SensorReading{IotData: hdr, Value: v}, nil
}

// Actuator writes the commanded value, or zero when switched off.
type Actuator struct {
	session *Session
	name    string
	typeID  int
	node    *ua.NodeID
}

func (a *Actuator) Name() string { return a.name }
func (a *Actuator) TypeID() int  { return a.typeID }

func (a *Actuator) Activate(value float64) error { return a.session.writeFloat(a.node, value) }
func (a *Actuator) Deactivate() error            { return a.session.writeFloat(a.node, 0) }

// NewSensors dials the endpoint and binds the three sensor nodes. The
// returned Session must be closed by the caller.
func NewSensors(ctx context.Context, cfg Config) ([]ports.SensorBackend, *Session, error) {
	specs := cfg.SensorNodes.specs()
	ids, err := parseNodes(specs)
	if err != nil {
		return nil, nil, err
	}
	session, err := Dial(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	out := make([]ports.SensorBackend, len(specs))
	for i, s := range specs {
		out[i] = &Sensor{session: session, name: s.name, typeID: s.typeID, node: ids[i]}
	}
	return out, session, nil
}

// NewActuators dials the endpoint and binds the three actuator nodes.
func NewActuators(ctx context.Context, cfg Config) ([]ports.ActuatorBackend, *Session, error) {
	specs := cfg.ActuatorNodes.specs()
	ids, err := parseNodes(specs)
	if err != nil {
		return nil, nil, err
	}
	session, err := Dial(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	out := make([]ports.ActuatorBackend, len(specs))
	for i, s := range specs {
		out[i] = &Actuator{session: session, name: s.name, typeID: s.typeID, node: ids[i]}
	}
	return out, session, nil
}

func buildClientOptions(cfg Config) []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(cfg.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(cfg.SecurityPolicy)),
		opcua.ApplicationName(cfg.ApplicationName),
		opcua.AutoReconnect(true),
	}

	if cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(cfg.Username, cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}

var (
	_ ports.SensorBackend   = (*Sensor)(nil)
	_ ports.ActuatorBackend = (*Actuator)(nil)
)
