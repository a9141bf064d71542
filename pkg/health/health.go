// Package health samples runtime and operation metrics for the status
// dashboard.
package health

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// Level is the overall badge.
type Level string

const (
	Healthy  Level = "healthy"
	Degraded Level = "degraded"
	Critical Level = "critical"
)

const ringSize = 128

// Thresholds decide when the badge degrades. Zero values fall back to
// defaults.
type Thresholds struct {
	DegradedLatency time.Duration
	CriticalLatency time.Duration
	DegradedHeapMB  uint64
	CriticalHeapMB  uint64
}

func (t Thresholds) withDefaults() Thresholds {
	if t.DegradedLatency == 0 {
		t.DegradedLatency = 250 * time.Millisecond
	}
	if t.CriticalLatency == 0 {
		t.CriticalLatency = time.Second
	}
	if t.DegradedHeapMB == 0 {
		t.DegradedHeapMB = 512
	}
	if t.CriticalHeapMB == 0 {
		t.CriticalHeapMB = 1024
	}
	return t
}

// ring keeps the most recent latency samples for one operation.
type ring struct {
	samples [ringSize]time.Duration
	next    int
	filled  int
}

func (r *ring) add(d time.Duration) {
	r.samples[r.next] = d
	r.next = (r.next + 1) % ringSize
	if r.filled < ringSize {
		r.filled++
	}
}

func (r *ring) stats() (avg, p95 time.Duration) {
	if r.filled == 0 {
		return 0, 0
	}
	buf := make([]time.Duration, r.filled)
	copy(buf, r.samples[:r.filled])
	sort.Slice(buf, func(i, j int) bool { return buf[i] < buf[j] })
	var total time.Duration
	for _, d := range buf {
		total += d
	}
	idx := (len(buf) * 95) / 100
	if idx >= len(buf) {
		idx = len(buf) - 1
	}
	return total / time.Duration(len(buf)), buf[idx]
}

// OpStats summarizes one operation's recent latencies.
type OpStats struct {
	Count int           `json:"count"`
	Avg   time.Duration `json:"avg"`
	P95   time.Duration `json:"p95"`
}

// Snapshot is one dashboard sample.
type Snapshot struct {
	Level      Level              `json:"level"`
	Goroutines int                `json:"goroutines"`
	HeapMB     uint64             `json:"heapMb"`
	SysMB      uint64             `json:"sysMb"`
	NumGC      uint32             `json:"numGc"`
	Uptime     time.Duration      `json:"uptime"`
	Ops        map[string]OpStats `json:"ops"`
	SampledAt  time.Time          `json:"sampledAt"`
}

// Monitor collects latency samples per operation name.
type Monitor struct {
	thresholds Thresholds
	started    time.Time

	mu    sync.Mutex
	rings map[string]*ring
}

func NewMonitor(thresholds Thresholds) *Monitor {
	return &Monitor{
		thresholds: thresholds.withDefaults(),
		started:    time.Now(),
		rings:      make(map[string]*ring),
	}
}

// Observe records one latency sample for op.
func (m *Monitor) Observe(op string, d time.Duration) {
	m.mu.Lock()
	r, ok := m.rings[op]
	if !ok {
		r = &ring{}
		m.rings[op] = r
	}
	r.add(d)
	m.mu.Unlock()
}

// Time runs fn and records its duration under op.
func (m *Monitor) Time(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	m.Observe(op, time.Since(start))
	return err
}

// Snapshot reads runtime stats and grades the badge. The worst signal wins:
// any operation's p95 or the heap crossing its critical threshold makes the
// whole snapshot critical.
func (m *Monitor) Snapshot() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.mu.Lock()
	ops := make(map[string]OpStats, len(m.rings))
	for name, r := range m.rings {
		avg, p95 := r.stats()
		ops[name] = OpStats{Count: r.filled, Avg: avg, P95: p95}
	}
	m.mu.Unlock()

	heapMB := ms.HeapAlloc / (1 << 20)
	s := Snapshot{
		Level:      Healthy,
		Goroutines: runtime.NumGoroutine(),
		HeapMB:     heapMB,
		SysMB:      ms.Sys / (1 << 20),
		NumGC:      ms.NumGC,
		Uptime:     time.Since(m.started),
		Ops:        ops,
		SampledAt:  time.Now().UTC(),
	}

	grade := func(level Level) {
		if level == Critical || (level == Degraded && s.Level == Healthy) {
			s.Level = level
		}
	}
	if heapMB >= m.thresholds.CriticalHeapMB {
		grade(Critical)
	} else if heapMB >= m.thresholds.DegradedHeapMB {
		grade(Degraded)
	}
	for _, st := range ops {
		if st.P95 >= m.thresholds.CriticalLatency {
			grade(Critical)
		} else if st.P95 >= m.thresholds.DegradedLatency {
			grade(Degraded)
		}
	}
	return s
}
