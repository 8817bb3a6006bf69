package perfmon

import (
	"errors"
	"testing"
	"time"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
	"github.com/ghalamif/EdgeHub/internal/testutil"
)

type stubProbe struct {
	cpu, mem, disk float64
	diskErr        error
}

func (p stubProbe) CPUUtilization() (float64, error)    { return p.cpu, nil }
func (p stubProbe) MemoryUtilization() (float64, error) { return p.mem, nil }
func (p stubProbe) DiskUtilization() (float64, error)   { return p.disk, p.diskErr }

type perfListener struct {
	got []*domain.PerformanceReading
}

func (l *perfListener) IngestSensorReading(*domain.SensorReading) bool { return false }
func (l *perfListener) IngestPerformanceReading(r *domain.PerformanceReading) bool {
	l.got = append(l.got, r)
	return true
}

func TestPollOnceForwardsReading(t *testing.T) {
	obs := testutil.NewObs()
	m := NewMonitor(Config{LocationID: "dev-1", PollInterval: time.Hour}, stubProbe{cpu: 12.5, mem: 48, disk: 71}, obs)
	l := &perfListener{}
	m.SetDataListener(l)

	r := m.PollOnce()
	if len(l.got) != 1 || l.got[0] != r {
		t.Fatalf("expected reading forwarded to listener")
	}
	if r.Name != domain.SystemPerfName || r.LocationID != "dev-1" || r.HasError {
		t.Fatalf("unexpected header %+v", r.IotData)
	}
	if r.CPUUtil != 12.5 || r.MemUtil != 48 || r.DiskUtil != 71 {
		t.Fatalf("unexpected utilization %+v", r)
	}
	if obs.Gauge(ports.GaugeMemory) != 48 {
		t.Fatalf("expected memory gauge 48, got %f", obs.Gauge(ports.GaugeMemory))
	}
}

func TestPollOnceProbeFailure(t *testing.T) {
	m := NewMonitor(Config{PollInterval: time.Hour}, stubProbe{cpu: 1, diskErr: errors.New("no mount")}, testutil.NewObs())
	r := m.PollOnce()
	if !r.HasError || r.StatusCode != domain.StatusError || r.DiskUtil != 0 || r.CPUUtil != 1 {
		t.Fatalf("expected partial reading flagged as errored, got %+v", r)
	}
}
