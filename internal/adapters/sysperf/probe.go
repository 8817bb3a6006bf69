package sysperf

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/ghalamif/EdgeHub/internal/ports"
)

// Probe reads host utilization through gopsutil.
type Probe struct {
	diskPath string
}

// NewProbe measures disk usage of the filesystem holding diskPath.
func NewProbe(diskPath string) *Probe {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Probe{diskPath: diskPath}
}

// CPUUtilization is the busy share since the previous call.
func (p *Probe) CPUUtilization() (float64, error) {
	pct, err := cpu.Percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(pct) == 0 {
		return 0, fmt.Errorf("cpu percent: no samples")
	}
	return pct[0], nil
}

func (p *Probe) MemoryUtilization() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("virtual memory: %w", err)
	}
	return vm.UsedPercent, nil
}

func (p *Probe) DiskUtilization() (float64, error) {
	u, err := disk.Usage(p.diskPath)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", p.diskPath, err)
	}
	return u.UsedPercent, nil
}

var _ ports.SystemProbe = (*Probe)(nil)
