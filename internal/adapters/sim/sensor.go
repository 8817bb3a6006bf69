package sim

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

var errEmptyDataSet = errors.New("sim: empty data set")

// Sensor replays a data set, one point per poll, wrapping at the end.
type Sensor struct {
	name   string
	typeID int

	mu   sync.Mutex
	data []float64
	idx  int
}

func NewSensor(name string, typeID int, data []float64) *Sensor {
	return &Sensor{name: name, typeID: typeID, data: data}
}

func (s *Sensor) Name() string { return s.name }
func (s *Sensor) TypeID() int  { return s.typeID }

func (s *Sensor) Poll() (*domain.SensorReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil, errEmptyDataSet
	}
	v := s.data[s.idx]
	s.idx = (s.idx + 1) % len(s.data)
	return &domain.SensorReading{IotData: domain.NewIotData(s.name, s.typeID), Value: v}, nil
}

// NewSensors returns the humidity, pressure and temperature simulators.
func NewSensors(cfg Config) []ports.SensorBackend {
	cfg.ApplyDefaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	return []ports.SensorBackend{
		NewSensor(domain.HumiditySensorName, domain.HumiditySensorType,
			GenerateDailyDataSet(cfg.HumidityFloor, cfg.HumidityCeiling, rng)),
		NewSensor(domain.PressureSensorName, domain.PressureSensorType,
			GenerateDailyDataSet(cfg.PressureFloor, cfg.PressureCeiling, rng)),
		NewSensor(domain.TempSensorName, domain.TempSensorType,
			GenerateDailyDataSet(cfg.TempFloor, cfg.TempCeiling, rng)),
	}
}

var _ ports.SensorBackend = (*Sensor)(nil)
