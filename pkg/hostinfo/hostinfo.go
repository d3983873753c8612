package hostinfo

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Info describes the machine a run executed on
type Info struct {
	OS           string `json:"os" yaml:"os"`
	Architecture string `json:"architecture" yaml:"architecture"`
	CPUModel     string `json:"cpu_model,omitempty" yaml:"cpu_model,omitempty"`
	CPUThreads   int    `json:"cpu_threads,omitempty" yaml:"cpu_threads,omitempty"`
	RAMBytes     uint64 `json:"ram_bytes,omitempty" yaml:"ram_bytes,omitempty"`
	GoVersion    string `json:"go_version" yaml:"go_version"`
}

// Detect gathers host details. Probes that fail leave their fields empty;
// a report without a CPU model is still a valid report.
func Detect() Info {
	info := Info{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		CPUThreads:   runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}

	if stats, err := cpu.Info(); err == nil && len(stats) > 0 {
		info.CPUModel = strings.TrimSpace(stats[0].ModelName)
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		info.CPUThreads = n
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		info.RAMBytes = vmem.Total
	}

	return info
}

// FormatRAM formats bytes as GB
func FormatRAM(bytes uint64) string {
	if bytes == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%.1f GB", float64(bytes)/(1024*1024*1024))
}
