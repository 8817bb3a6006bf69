package sim

import (
	"math/rand"
	"testing"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/testutil"
)

func TestGenerateDailyDataSetStaysInBounds(t *testing.T) {
	data := GenerateDailyDataSet(18, 22, rand.New(rand.NewSource(7)))
	if len(data) != PointsPerDay {
		t.Fatalf("expected %d points, got %d", PointsPerDay, len(data))
	}
	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < 18 || v > 22 {
			t.Fatalf("value %f outside [18, 22]", v)
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi-lo < 2 {
		t.Fatalf("expected a daily swing, got range %f..%f", lo, hi)
	}
}

func TestSensorWrapsAround(t *testing.T) {
	s := NewSensor("TempSensor", domain.TempSensorType, []float64{1, 2})
	var got []float64
	for i := 0; i < 3; i++ {
		r, err := s.Poll()
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		if r.Name != "TempSensor" || r.TypeID != domain.TempSensorType {
			t.Fatalf("unexpected header %+v", r.IotData)
		}
		got = append(got, r.Value)
	}
	if got[0] != 1 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("unexpected sequence %v", got)
	}
}

func TestSensorEmptyDataSet(t *testing.T) {
	if _, err := NewSensor("x", 1, nil).Poll(); err == nil {
		t.Fatalf("expected error for empty data set")
	}
}

func TestNewSensorsDefaults(t *testing.T) {
	sensors := NewSensors(Config{Seed: 1})
	if len(sensors) != 3 {
		t.Fatalf("expected 3 sensors, got %d", len(sensors))
	}
	r, err := sensors[1].Poll()
	if err != nil {
		t.Fatalf("poll pressure: %v", err)
	}
	if r.Value < 990 || r.Value > 1010 {
		t.Fatalf("pressure %f outside default range", r.Value)
	}
}

func TestActuatorTracksState(t *testing.T) {
	a := NewActuator(domain.HvacActuatorName, domain.HvacActuatorType, testutil.NewObs())
	_ = a.Activate(20)
	if on, v := a.State(); !on || v != 20 {
		t.Fatalf("expected on at 20, got %v %f", on, v)
	}
	_ = a.Deactivate()
	if on, v := a.State(); on || v != 0 {
		t.Fatalf("expected off, got %v %f", on, v)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{TempFloor: 25, TempCeiling: 20}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected inverted temp range to fail")
	}
}
