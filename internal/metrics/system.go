package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// SystemSampler periodically refreshes a Registry's host gauges. It
// keeps its own smoothed CPU estimate since gopsutil's instantaneous
// reading is noisy sample to sample.
type SystemSampler struct {
	registry *Registry

	mu         sync.Mutex
	cpuPercent float64
}

// NewSystemSampler creates a sampler writing into registry.
func NewSystemSampler(registry *Registry) *SystemSampler {
	return &SystemSampler{registry: registry}
}

// Run samples at the given interval until ctx-like stop channel closes.
func (s *SystemSampler) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sample()
	for {
		select {
		case <-ticker.C:
			s.sample()
		case <-stop:
			return
		}
	}
}

func (s *SystemSampler) sample() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	s.registry.MemAllocMB.Set(float64(mem.HeapAlloc) / 1024 / 1024)
	s.registry.Goroutines.Set(float64(runtime.NumGoroutine()))

	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	const alpha = 0.3
	if s.cpuPercent == 0 {
		s.cpuPercent = percents[0]
	} else {
		s.cpuPercent = alpha*percents[0] + (1-alpha)*s.cpuPercent
	}
	s.registry.CPUPercent.Set(s.cpuPercent)
}
