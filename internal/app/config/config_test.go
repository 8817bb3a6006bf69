package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ghalamif/EdgeHub/internal/adapters/codec"
	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/testutil"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
device:
  location_id: lab-7
mqtt:
  host: broker.local
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Device.PollInterval != 60*time.Second {
		t.Fatalf("expected poll interval default 60s, got %s", cfg.Device.PollInterval)
	}
	if cfg.Device.MisfireGrace != 15*time.Second {
		t.Fatalf("expected misfire grace default 15s, got %s", cfg.Device.MisfireGrace)
	}
	if !cfg.Device.EnableSensing || !cfg.Device.EnableActuation || !cfg.Device.HandleTempChange {
		t.Fatalf("expected feature switches on by default: %+v", cfg.Device)
	}
	if cfg.Device.HvacTempFloor != 18 || cfg.Device.HvacTempCeiling != 20 {
		t.Fatalf("unexpected hvac band %.1f-%.1f", cfg.Device.HvacTempFloor, cfg.Device.HvacTempCeiling)
	}
	if cfg.MQTT.BrokerURL() != "tcp://broker.local:1883" {
		t.Fatalf("unexpected broker url %s", cfg.MQTT.BrokerURL())
	}
	if !strings.HasPrefix(cfg.MQTT.ClientID, "edgehub-") {
		t.Fatalf("expected generated client id, got %q", cfg.MQTT.ClientID)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.CoAP.Port != 5683 {
		t.Fatalf("expected default coap port 5683, got %d", cfg.CoAP.Port)
	}
	if cfg.Snapshot.Policy.OnQueueFull != "drop_oldest" {
		t.Fatalf("expected drop_oldest default, got %s", cfg.Snapshot.Policy.OnQueueFull)
	}
}

func TestLoadKeepsExplicitFalse(t *testing.T) {
	path := writeConfig(t, `
device:
  enable_sensing: false
  handle_temp_change_on_device: false
  trigger_hvac_temp_floor: 25
pubsub:
  enabled: false
snapshot:
  enabled: true
  conn_string: postgres://edge@localhost/edge?sslmode=disable
  queue_len: 16
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Device.EnableSensing || cfg.PubSub.Enabled {
		t.Fatalf("explicit false must survive defaults: %+v %+v", cfg.Device, cfg.PubSub)
	}
	if cfg.Snapshot.Policy.MaxQueueLen != 16 {
		t.Fatalf("expected inline queue_len 16, got %d", cfg.Snapshot.Policy.MaxQueueLen)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"inverted band":    "device: {trigger_hvac_temp_floor: 22, trigger_hvac_temp_ceiling: 20}",
		"bad backend":      "device: {backend: hardware}",
		"bad transport":    "pubsub: {transport: amqp}",
		"bad qos":          "pubsub: {default_qos: 3}",
		"short interval":   "device: {poll_interval: 10ms}",
		"snapshot no conn": "snapshot: {enabled: true}",
		"empty location":   `device: {location_id: ""}`,
		"negative places":  "device: {decimal_places: -1}",
	}
	for name, data := range cases {
		if _, err := Load(writeConfig(t, data)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDecimalEncodingPrecisionFromConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want float64
	}{
		{"unset keeps full precision", "device: {use_decimal_encoding: true}", 21.456},
		{"explicit zero rounds to integer", "device: {use_decimal_encoding: true, decimal_places: 0}", 21},
		{"explicit places", "device: {use_decimal_encoding: true, decimal_places: 1}", 21.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tc.yaml))
			if err != nil {
				t.Fatalf("load config: %v", err)
			}
			c := codec.NewJSON(testutil.NewObs(), codec.WithDecimal(cfg.Device.DecimalRounding()))

			in := &domain.SensorReading{IotData: domain.NewIotData(domain.TempSensorName, domain.TempSensorType), Value: 21.456}
			out := c.DecodeSensor(c.Encode(in))
			if out == nil {
				t.Fatalf("decode returned nil")
			}
			if out.Value != tc.want {
				t.Fatalf("expected value %v, got %v", tc.want, out.Value)
			}
		})
	}
}
