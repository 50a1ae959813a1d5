package sysinfo

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// memoryPressureThreshold is the used-memory percentage above which the
// host counts as under pressure and pools shrink.
const memoryPressureThreshold = 80.0

// Sample is one observation of host resources.
type Sample struct {
	// LogicalCPUs is the logical CPU count.
	LogicalCPUs int

	// MemoryUsedPercent is used physical memory as a percentage.
	MemoryUsedPercent float64
}

// Sampler reads host resources. The default samples via gopsutil; tests
// substitute fixed samples.
type Sampler interface {
	Sample(ctx context.Context) (Sample, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context) (Sample, error)

// Sample implements the Sampler interface.
func (f SamplerFunc) Sample(ctx context.Context) (Sample, error) {
	return f(ctx)
}

// hostSampler reads live host state through gopsutil.
type hostSampler struct{}

// Sample implements the Sampler interface.
func (hostSampler) Sample(ctx context.Context) (Sample, error) {
	s := Sample{LogicalCPUs: runtime.NumCPU()}

	if counts, err := cpu.CountsWithContext(ctx, true); err == nil && counts > 0 {
		s.LogicalCPUs = counts
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, err
	}
	s.MemoryUsedPercent = vm.UsedPercent
	return s, nil
}

// PoolSizes holds the recommended concurrency for the two worker pools.
type PoolSizes struct {
	// URLWorkers is the liveness-check pool size.
	URLWorkers int

	// ArchiveWorkers is the snapshot-lookup pool size.
	ArchiveWorkers int
}

// Monitor recommends pool sizes from host samples.
type Monitor struct {
	sampler Sampler
	logger  *slog.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSampler replaces the live host sampler.
func WithSampler(s Sampler) Option {
	return func(m *Monitor) {
		m.sampler = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// NewMonitor creates a Monitor sampling the live host unless overridden.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		sampler: hostSampler{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Recommend sizes the worker pools from a fresh host sample. The URL
// pool gets half the logical CPUs, the archive pool a quarter; both
// halve again when memory is under pressure. Every pool has at least
// one worker and never more than requested: sampling only scales
// pools down. Sampling failure falls back to the requested sizes.
func (m *Monitor) Recommend(ctx context.Context, requested PoolSizes) PoolSizes {
	sample, err := m.sampler.Sample(ctx)
	if err != nil {
		m.logger.Warn("host sampling failed, using requested pool sizes",
			"url_workers", requested.URLWorkers,
			"archive_workers", requested.ArchiveWorkers,
			"error", err,
		)
		return clamp(requested, requested)
	}

	cpus := sample.LogicalCPUs
	if cpus < 1 {
		cpus = 1
	}

	sizes := PoolSizes{
		URLWorkers:     cpus / 2,
		ArchiveWorkers: cpus / 4,
	}
	if sample.MemoryUsedPercent >= memoryPressureThreshold {
		sizes.URLWorkers = cpus / 4
		sizes.ArchiveWorkers = cpus / 8
	}
	sizes = clamp(sizes, requested)

	m.logger.Debug("sized worker pools from host sample",
		"logical_cpus", cpus,
		"memory_used_percent", sample.MemoryUsedPercent,
		"url_workers", sizes.URLWorkers,
		"archive_workers", sizes.ArchiveWorkers,
	)
	return sizes
}

// clamp bounds each pool to [1, requested]. A non-positive request
// only gets the lower bound.
func clamp(s, requested PoolSizes) PoolSizes {
	if requested.URLWorkers > 0 && s.URLWorkers > requested.URLWorkers {
		s.URLWorkers = requested.URLWorkers
	}
	if requested.ArchiveWorkers > 0 && s.ArchiveWorkers > requested.ArchiveWorkers {
		s.ArchiveWorkers = requested.ArchiveWorkers
	}
	if s.URLWorkers < 1 {
		s.URLWorkers = 1
	}
	if s.ArchiveWorkers < 1 {
		s.ArchiveWorkers = 1
	}
	return s
}
