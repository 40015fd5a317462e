package metrics

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemSampler periodically refreshes the process CPU/memory gauges using
// gopsutil, smoothing CPU readings with an exponential moving average so a
// single noisy sample doesn't whipsaw the exported metric.
type SystemSampler struct {
	metrics    *Metrics
	interval   time.Duration
	proc       *process.Process
	cpuPercent float64
}

// NewSystemSampler constructs a sampler for the current process.
func NewSystemSampler(m *Metrics, interval time.Duration) (*SystemSampler, error) {
	proc, err := process.NewProcess(int32(processPID()))
	if err != nil {
		return nil, err
	}
	return &SystemSampler{metrics: m, interval: interval, proc: proc}, nil
}

// Run samples at the configured interval until ctx is cancelled.
func (s *SystemSampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *SystemSampler) sample() {
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		const alpha = 0.3
		if s.cpuPercent == 0 {
			s.cpuPercent = pct[0]
		} else {
			s.cpuPercent = alpha*pct[0] + (1-alpha)*s.cpuPercent
		}
		s.metrics.CPUPercent.Set(s.cpuPercent)
	}

	if memInfo, err := s.proc.MemoryInfo(); err == nil && memInfo != nil {
		s.metrics.MemoryUsedBytes.Set(float64(memInfo.RSS))
	}
}
