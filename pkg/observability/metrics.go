package observability

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/EquablePanic4/codli-gci/pkg/models"
)

const (
	MetricRunsStarted   = "runs.started"
	MetricRunsCompleted = "runs.completed"
	MetricRunsFailed    = "runs.failed"
	MetricCommands      = "commands.executed"
	MetricRunDuration   = "run.duration_ms"
	MetricStagesLast    = "run.stages"
)

// Counter only goes up.
type Counter struct {
	n atomic.Int64
}

func (c *Counter) Inc() { c.n.Add(1) }
func (c *Counter) Add(n int64) { c.n.Add(n) }
func (c *Counter) Value() int64 { return c.n.Load() }

// Gauge holds the last value set.
type Gauge struct {
	n atomic.Int64
}

func (g *Gauge) Set(v int64) { g.n.Store(v) }
func (g *Gauge) Value() int64 { return g.n.Load() }

// Histogram keeps running aggregates only; individual observations are
// not retained.
type Histogram struct {
	mu    sync.Mutex
	sum   float64
	count int64
	max   float64
}

func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	if h.count == 1 || v > h.max {
		h.max = v
	}
}

func (h *Histogram) Snapshot() (count int64, sum, avg, max float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return 0, 0, 0, 0
	}
	return h.count, h.sum, h.sum / float64(h.count), h.max
}

// Registry holds the metrics of one or more runs, keyed by name.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

func NewRegistry() *Registry {
	return &Registry{
		counters:   map[string]*Counter{},
		gauges:     map[string]*Gauge{},
		histograms: map[string]*Histogram{},
	}
}

// metric returns the entry for name in m, creating it on first use.
func metric[T any](r *Registry, m map[string]*T, name string) *T {
	r.mu.RLock()
	v, ok := m[name]
	r.mu.RUnlock()
	if ok {
		return v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := m[name]; ok {
		return v
	}
	v = new(T)
	m[name] = v
	return v
}

func (r *Registry) Counter(name string) *Counter { return metric(r, r.counters, name) }
func (r *Registry) Gauge(name string) *Gauge { return metric(r, r.gauges, name) }
func (r *Registry) Histogram(name string) *Histogram { return metric(r, r.histograms, name) }

// ObserveStage records one stage result.
func (r *Registry) ObserveStage(result models.StageResult) {
	if result.Command != "" {
		r.Counter(MetricCommands).Inc()
	}
	r.Histogram(stageMetric(result.Name, "duration_ms")).Observe(float64(result.DurationMs))

	outcome := "succeeded"
	switch result.Status {
	case models.StageFailed:
		outcome = "failed"
	case models.StageSoftFailed:
		outcome = "soft_failed"
	}
	r.Counter(stageMetric(result.Name, outcome)).Inc()
}

// ObserveRun records a finished run, including its stages when
// withStages is set. The controller observes stages as they finish and
// passes false.
func (r *Registry) ObserveRun(run *models.RunRecord, withStages bool) {
	r.Counter(MetricRunsStarted).Inc()
	switch run.State {
	case models.RunCompleted:
		r.Counter(MetricRunsCompleted).Inc()
	case models.RunFailed:
		r.Counter(MetricRunsFailed).Inc()
	}
	if run.StartedAt != nil && run.CompletedAt != nil {
		r.Histogram(MetricRunDuration).Observe(float64(run.CompletedAt.Sub(*run.StartedAt).Milliseconds()))
	}
	r.Gauge(MetricStagesLast).Set(int64(len(run.Stages)))
	if !withStages {
		return
	}
	for _, s := range run.Stages {
		r.ObserveStage(s)
	}
}

func stageMetric(name models.StageName, suffix string) string {
	return "stage." + string(name) + "." + suffix
}

// Snapshot flattens every metric into a "kind.name[.field]" map, the form
// stored on run records and served by the API.
func (r *Registry) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]any, len(r.counters)+len(r.gauges)+4*len(r.histograms))
	for name, c := range r.counters {
		out["counter."+name] = c.Value()
	}
	for name, g := range r.gauges {
		out["gauge."+name] = g.Value()
	}
	for name, h := range r.histograms {
		prefix := "histogram." + name
		count, sum, avg, max := h.Snapshot()
		out[prefix+".count"] = count
		out[prefix+".sum"] = sum
		out[prefix+".avg"] = avg
		out[prefix+".max"] = max
	}
	return out
}

// Names lists snapshot keys in sorted order.
func Names(snapshot map[string]any) []string {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
