package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/EdgeHub/internal/adapters/coap"
	"github.com/ghalamif/EdgeHub/internal/adapters/mqtt"
	"github.com/ghalamif/EdgeHub/internal/adapters/nats"
	"github.com/ghalamif/EdgeHub/internal/adapters/opcua"
	"github.com/ghalamif/EdgeHub/internal/adapters/sim"
	"github.com/ghalamif/EdgeHub/internal/adapters/snapshot"
	"github.com/ghalamif/EdgeHub/internal/app/sensing"
)

const (
	TransportMQTT = "mqtt"
	TransportNATS = "nats"

	BackendSimulated = sensing.BackendSimulated
	BackendEmulated  = sensing.BackendEmulated
)

type Config struct {
	Device     DeviceConfig    `yaml:"device"`
	Simulation sim.Config      `yaml:"simulation"`
	PubSub     PubSubConfig    `yaml:"pubsub"`
	MQTT       mqtt.Config     `yaml:"mqtt"`
	NATS       nats.Config     `yaml:"nats"`
	CoAP       coap.Config     `yaml:"coap"`
	OPCUA      opcua.Config    `yaml:"opcua"`
	Snapshot   snapshot.Config `yaml:"snapshot"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	Logging    LoggingConfig   `yaml:"logging"`
}

type DeviceConfig struct {
	LocationID         string        `yaml:"location_id"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	MisfireGrace       time.Duration `yaml:"misfire_grace"`
	EnableSensing      bool          `yaml:"enable_sensing"`
	EnableActuation    bool          `yaml:"enable_actuation"`
	EnableSystemPerf   bool          `yaml:"enable_system_perf"`
	HandleTempChange   bool          `yaml:"handle_temp_change_on_device"`
	HvacTempFloor      float64       `yaml:"trigger_hvac_temp_floor"`
	HvacTempCeiling    float64       `yaml:"trigger_hvac_temp_ceiling"`
	Backend            string        `yaml:"backend"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	UseDecimalEncoding bool          `yaml:"use_decimal_encoding"`
	DecimalPlaces      *int32        `yaml:"decimal_places"`
	DiskPath           string        `yaml:"disk_path"`
}

// DecimalRounding returns the fractional digits kept by the decimal codec.
// An unset decimal_places keeps the full precision of each value (-1).
func (d DeviceConfig) DecimalRounding() int32 {
	if d.DecimalPlaces == nil {
		return -1
	}
	return *d.DecimalPlaces
}

type PubSubConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Transport  string `yaml:"transport"`
	DefaultQoS int    `yaml:"default_qos"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"no_color"`
}

// Default returns the configuration used for keys absent from the file.
// Switches that default to on live here rather than in applyDefaults,
// where an explicit false could not be told apart from a missing key.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			LocationID:       "constraineddevice001",
			EnableSensing:    true,
			EnableActuation:  true,
			EnableSystemPerf: true,
			HandleTempChange: true,
			HvacTempFloor:    18,
			HvacTempCeiling:  20,
			Backend:          BackendSimulated,
		},
		PubSub: PubSubConfig{Enabled: true, Transport: TransportMQTT, DefaultQoS: 1},
		MQTT:   mqtt.Config{CleanSession: true},
	}
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Device.PollInterval == 0 {
		c.Device.PollInterval = 60 * time.Second
	}
	if c.Device.MisfireGrace == 0 {
		c.Device.MisfireGrace = 15 * time.Second
	}
	if c.Device.ConnectTimeout == 0 {
		c.Device.ConnectTimeout = 5 * time.Second
	}
	if c.Device.DiskPath == "" {
		c.Device.DiskPath = "/"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Snapshot.Table == "" {
		c.Snapshot.Table = "edgehub_snapshot"
	}
	if c.Snapshot.Policy.MaxQueueLen == 0 {
		c.Snapshot.Policy.MaxQueueLen = 1024
	}
	if c.Snapshot.Policy.MaxBatchSize == 0 {
		c.Snapshot.Policy.MaxBatchSize = 128
	}
	if c.Snapshot.Policy.FlushInterval == 0 {
		c.Snapshot.Policy.FlushInterval = 5 * time.Second
	}
	if c.Snapshot.Policy.OnQueueFull == "" {
		c.Snapshot.Policy.OnQueueFull = "drop_oldest"
	}

	c.Simulation.ApplyDefaults()
	c.MQTT.ApplyDefaults()
	c.NATS.ApplyDefaults()
	c.CoAP.ApplyDefaults()
	c.OPCUA.ApplyDefaults()
}

// validate checks everything except the OPC UA endpoint; an unusable
// emulated backend falls back to simulation at construction time.
func (c *Config) validate() error {
	d := c.Device
	if d.LocationID == "" {
		return fmt.Errorf("device.location_id is required")
	}
	if d.PollInterval < time.Second {
		return fmt.Errorf("device.poll_interval must be at least 1s, got %s", d.PollInterval)
	}
	if d.MisfireGrace < 0 {
		return fmt.Errorf("device.misfire_grace must not be negative")
	}
	if d.Backend != BackendSimulated && d.Backend != BackendEmulated {
		return fmt.Errorf("device.backend must be %q or %q, got %q", BackendSimulated, BackendEmulated, d.Backend)
	}
	if d.HandleTempChange && d.HvacTempFloor >= d.HvacTempCeiling {
		return fmt.Errorf("device.trigger_hvac_temp_floor (%.2f) must be below trigger_hvac_temp_ceiling (%.2f)",
			d.HvacTempFloor, d.HvacTempCeiling)
	}
	if d.DecimalPlaces != nil && *d.DecimalPlaces < 0 {
		return fmt.Errorf("device.decimal_places must not be negative")
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation config: %w", err)
	}

	if c.PubSub.Enabled {
		switch c.PubSub.Transport {
		case TransportMQTT:
			if err := c.MQTT.Validate(); err != nil {
				return fmt.Errorf("mqtt config: %w", err)
			}
		case TransportNATS:
		default:
			return fmt.Errorf("pubsub.transport must be %q or %q, got %q", TransportMQTT, TransportNATS, c.PubSub.Transport)
		}
		if c.PubSub.DefaultQoS < 0 || c.PubSub.DefaultQoS > 2 {
			return fmt.Errorf("pubsub.default_qos must be 0, 1 or 2, got %d", c.PubSub.DefaultQoS)
		}
	}

	if c.Snapshot.Enabled {
		if c.Snapshot.ConnString == "" {
			return fmt.Errorf("snapshot.conn_string is required when snapshot is enabled")
		}
		switch c.Snapshot.Policy.OnQueueFull {
		case "drop", "drop_oldest":
		default:
			return fmt.Errorf("snapshot.on_queue_full must be drop or drop_oldest, got %q", c.Snapshot.Policy.OnQueueFull)
		}
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}
