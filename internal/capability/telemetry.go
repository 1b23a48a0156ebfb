package capability

import (
	"context"
	"fmt"
	"sort"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	gnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

const processListLimit = 20

// RegisterTelemetry installs the host telemetry capabilities. These are
// read-only and carry no path parameter, so policy evaluation reduces to
// the keyword scan.
func RegisterTelemetry(reg *Registry) error {
	caps := []Capability{
		NewFunc("cpu_usage", cpuUsage),
		NewFunc("memory_usage", memoryUsage),
		NewFunc("disk_usage", diskUsage),
		NewFunc("list_processes", listProcesses),
		NewFunc("process_details", processDetails),
		NewFunc("network_stats", networkStats),
	}
	for _, c := range caps {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func cpuUsage(ctx context.Context, _ map[string]any) (any, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("sampling cpu: %w", err)
	}
	if len(percents) == 0 {
		return nil, fmt.Errorf("sampling cpu: no data")
	}
	return map[string]any{"percent": percents[0]}, nil
}

func memoryUsage(ctx context.Context, _ map[string]any) (any, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("sampling memory: %w", err)
	}
	return map[string]any{
		"percent":   vm.UsedPercent,
		"total":     vm.Total,
		"available": vm.Available,
	}, nil
}

func diskUsage(ctx context.Context, params map[string]any) (any, error) {
	path := "/"
	if p, ok := params["path"].(string); ok && p != "" {
		path = p
	}
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("sampling disk %q: %w", path, err)
	}
	return map[string]any{
		"path":    usage.Path,
		"percent": usage.UsedPercent,
		"total":   usage.Total,
		"free":    usage.Free,
	}, nil
}

type processInfo struct {
	PID    int32   `json:"pid"`
	Name   string  `json:"name"`
	CPU    float64 `json:"cpu_percent"`
	Memory float32 `json:"memory_percent"`
}

func listProcesses(ctx context.Context, _ map[string]any) (any, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	infos := make([]processInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		memPct, _ := p.MemoryPercentWithContext(ctx)
		infos = append(infos, processInfo{PID: p.Pid, Name: name, CPU: cpuPct, Memory: memPct})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CPU > infos[j].CPU })
	if len(infos) > processListLimit {
		infos = infos[:processListLimit]
	}
	return infos, nil
}

func processDetails(ctx context.Context, params map[string]any) (any, error) {
	pid, err := pidParam(params)
	if err != nil {
		return nil, err
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", pid, err)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", pid, err)
	}
	status, _ := p.StatusWithContext(ctx)
	cpuPct, _ := p.CPUPercentWithContext(ctx)
	memPct, _ := p.MemoryPercentWithContext(ctx)
	created, _ := p.CreateTimeWithContext(ctx)
	return map[string]any{
		"pid":            pid,
		"name":           name,
		"status":         status,
		"cpu_percent":    cpuPct,
		"memory_percent": memPct,
		"create_time":    created,
	}, nil
}

func networkStats(ctx context.Context, _ map[string]any) (any, error) {
	counters, err := gnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("sampling network: %w", err)
	}
	if len(counters) == 0 {
		return nil, fmt.Errorf("sampling network: no data")
	}
	c := counters[0]
	return map[string]any{
		"bytes_sent":   c.BytesSent,
		"bytes_recv":   c.BytesRecv,
		"packets_sent": c.PacketsSent,
		"packets_recv": c.PacketsRecv,
	}, nil
}

// pidParam accepts the numeric shapes a JSON planner produces.
func pidParam(params map[string]any) (int32, error) {
	switch v := params["pid"].(type) {
	case float64:
		return int32(v), nil
	case int:
		return int32(v), nil
	case int32:
		return v, nil
	case int64:
		return int32(v), nil
	default:
		return 0, fmt.Errorf("missing or invalid pid parameter")
	}
}
