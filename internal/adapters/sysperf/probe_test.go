package sysperf

import "testing"

func TestProbeReportsPercentages(t *testing.T) {
	p := NewProbe("")

	for name, read := range map[string]func() (float64, error){
		"memory": p.MemoryUtilization,
		"disk":   p.DiskUtilization,
	} {
		v, err := read()
		if err != nil {
			t.Skipf("%s probe unavailable here: %v", name, err)
		}
		if v < 0 || v > 100 {
			t.Fatalf("%s utilization %f out of range", name, v)
		}
	}
}
