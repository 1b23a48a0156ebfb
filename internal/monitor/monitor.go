// Package monitor runs background health sampling and idle tracking for
// the assistant. The health monitor polls host telemetry on an interval
// and raises an alert when a resource crosses its threshold; the idle
// tracker records when the user last interacted.
package monitor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Default alert thresholds, in percent.
const (
	CPUThreshold    = 80.0
	MemoryThreshold = 90.0
	DiskThreshold   = 90.0
)

// Alert is one threshold crossing observed by the health monitor.
type Alert struct {
	Resource  string
	Percent   float64
	Threshold float64
	Time      time.Time
}

// Message returns the alert phrased for speech output.
func (a Alert) Message() string {
	return fmt.Sprintf("Warning: %s usage is at %.0f percent.", a.Resource, a.Percent)
}

// Probes supplies the telemetry samples. Each probe returns a usage
// percentage. Replaceable for tests.
type Probes struct {
	CPU    func(ctx context.Context) (float64, error)
	Memory func(ctx context.Context) (float64, error)
	Disk   func(ctx context.Context) (float64, error)
}

// SystemProbes returns probes backed by the host.
func SystemProbes() Probes {
	return Probes{
		CPU: func(ctx context.Context) (float64, error) {
			percents, err := cpu.PercentWithContext(ctx, 0, false)
			if err != nil {
				return 0, err
			}
			if len(percents) == 0 {
				return 0, fmt.Errorf("no cpu data")
			}
			return percents[0], nil
		},
		Memory: func(ctx context.Context) (float64, error) {
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return 0, err
			}
			return vm.UsedPercent, nil
		},
		Disk: func(ctx context.Context) (float64, error) {
			usage, err := disk.UsageWithContext(ctx, "/")
			if err != nil {
				return 0, err
			}
			return usage.UsedPercent, nil
		},
	}
}

// Health polls the probes and emits alerts on threshold crossings.
// An alert for a resource fires once per excursion: it re-arms only after
// the resource drops back below its threshold.
type Health struct {
	probes   Probes
	interval time.Duration
	alerts   chan Alert
	over     map[string]bool
}

// NewHealth builds a health monitor. interval <= 0 defaults to one minute.
func NewHealth(probes Probes, interval time.Duration) *Health {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Health{
		probes:   probes,
		interval: interval,
		alerts:   make(chan Alert, 8),
		over:     make(map[string]bool),
	}
}

// Alerts returns the channel threshold crossings are delivered on.
func (h *Health) Alerts() <-chan Alert { return h.alerts }

// Run samples until ctx is cancelled. The alerts channel is closed on
// return.
func (h *Health) Run(ctx context.Context) {
	defer close(h.alerts)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sample(ctx)
		}
	}
}

func (h *Health) sample(ctx context.Context) {
	checks := []struct {
		resource  string
		probe     func(ctx context.Context) (float64, error)
		threshold float64
	}{
		{"cpu", h.probes.CPU, CPUThreshold},
		{"memory", h.probes.Memory, MemoryThreshold},
		{"disk", h.probes.Disk, DiskThreshold},
	}

	for _, c := range checks {
		if c.probe == nil {
			continue
		}
		pct, err := c.probe(ctx)
		if err != nil {
			continue
		}
		if pct > c.threshold {
			if !h.over[c.resource] {
				h.over[c.resource] = true
				select {
				case h.alerts <- Alert{Resource: c.resource, Percent: pct, Threshold: c.threshold, Time: time.Now().UTC()}:
				default:
					// Drop when the consumer is behind.
				}
			}
		} else {
			h.over[c.resource] = false
		}
	}
}

// IdleTracker records the time of the last user interaction.
type IdleTracker struct {
	last atomic.Int64 // unix nanos
}

// NewIdleTracker starts the clock at now.
func NewIdleTracker() *IdleTracker {
	t := &IdleTracker{}
	t.Touch()
	return t
}

// Touch marks an interaction.
func (t *IdleTracker) Touch() {
	t.last.Store(time.Now().UnixNano())
}

// IdleFor returns the elapsed time since the last interaction.
func (t *IdleTracker) IdleFor() time.Duration {
	return time.Duration(time.Now().UnixNano() - t.last.Load())
}
