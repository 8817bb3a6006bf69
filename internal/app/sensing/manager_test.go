package sensing

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ghalamif/EdgeHub/internal/adapters/sim"
	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/testutil"
)

type recordingListener struct {
	mu       sync.Mutex
	readings []*domain.SensorReading
}

func (l *recordingListener) IngestSensorReading(r *domain.SensorReading) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readings = append(l.readings, r)
	return true
}

func (l *recordingListener) IngestPerformanceReading(*domain.PerformanceReading) bool { return false }

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.readings)
}

type failingSensor struct{}

func (failingSensor) Name() string { return "Broken" }
func (failingSensor) TypeID() int  { return 99 }
func (failingSensor) Poll() (*domain.SensorReading, error) {
	return nil, errors.New("i2c bus timeout")
}

func TestPollOnceStampsLocation(t *testing.T) {
	obs := testutil.NewObs()
	m := NewManager(Config{LocationID: "greenhouse-7", PollInterval: time.Hour}, obs,
		WithBackends(sim.NewSensor(domain.TempSensorName, domain.TempSensorType, []float64{19.5}), failingSensor{}))
	l := &recordingListener{}
	m.SetDataListener(l)

	if got := m.PollOnce(); got != 1 {
		t.Fatalf("expected 1 accepted reading, got %d", got)
	}
	r := l.readings[0]
	if r.LocationID != "greenhouse-7" || r.Value != 19.5 || r.TypeID != domain.TempSensorType {
		t.Fatalf("unexpected reading %+v", r)
	}
	if obs.DroppedAt("sensor_poll") != 1 {
		t.Fatalf("expected failing backend to be recorded as dropped")
	}
}

func TestPollOnceWithoutListener(t *testing.T) {
	m := NewManager(Config{PollInterval: time.Hour}, testutil.NewObs(),
		WithBackends(sim.NewSensor("x", 1, []float64{1})))
	if got := m.PollOnce(); got != 0 {
		t.Fatalf("expected no readings accepted, got %d", got)
	}
}

func TestEmulatedFailureFallsBackToSimulated(t *testing.T) {
	obs := testutil.NewObs()
	m := NewManager(Config{PollInterval: time.Hour, Backend: BackendEmulated}, obs)

	if len(m.Backends()) != 3 {
		t.Fatalf("expected 3 fallback backends, got %d", len(m.Backends()))
	}
	if _, ok := m.Backends()[0].(*sim.Sensor); !ok {
		t.Fatalf("expected simulated backend after fallback, got %T", m.Backends()[0])
	}
	if !obs.Logged("emulated_sensor_load_failed") {
		t.Fatalf("expected load failure to be logged")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestScheduledPolling(t *testing.T) {
	m := NewManager(Config{PollInterval: 5 * time.Millisecond}, testutil.NewObs())
	l := &recordingListener{}
	m.SetDataListener(l)

	if !m.Start() {
		t.Fatalf("expected start to succeed")
	}
	deadline := time.Now().Add(time.Second)
	for l.count() < 6 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	m.Stop()
	if l.count() < 6 {
		t.Fatalf("expected at least two polling cycles, got %d readings", l.count())
	}
}
