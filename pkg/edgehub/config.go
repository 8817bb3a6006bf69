package edgehub

import (
	"github.com/ghalamif/EdgeHub/internal/adapters/coap"
	"github.com/ghalamif/EdgeHub/internal/adapters/mqtt"
	"github.com/ghalamif/EdgeHub/internal/adapters/nats"
	"github.com/ghalamif/EdgeHub/internal/adapters/opcua"
	"github.com/ghalamif/EdgeHub/internal/adapters/sim"
	"github.com/ghalamif/EdgeHub/internal/adapters/snapshot"
	"github.com/ghalamif/EdgeHub/internal/app/config"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// DeviceConfig holds location, polling and control-rule settings.
	DeviceConfig = config.DeviceConfig
	// SimulationConfig bounds the simulated sensor data sets.
	SimulationConfig = sim.Config
	// PubSubConfig selects the publish/subscribe transport.
	PubSubConfig = config.PubSubConfig
	MQTTConfig   = mqtt.Config
	NATSConfig   = nats.Config
	CoAPConfig   = coap.Config
	// OPCUAConfig describes the emulator endpoint and node bindings.
	OPCUAConfig = opcua.Config
	// SnapshotConfig configures the optional Postgres latest-value mirror.
	SnapshotConfig = snapshot.Config
	// Policy bounds the snapshot mirror queue.
	Policy = ports.Policy
	// MetricsConfig configures the management HTTP server.
	MetricsConfig = config.MetricsConfig
	LoggingConfig = config.LoggingConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the built-in defaults before file overrides.
func DefaultConfig() Config {
	return config.Default()
}
