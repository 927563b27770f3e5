package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	latencyTotal map[string]time.Duration
}

// Counter is one entry of a metrics snapshot.
type Counter struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// LatencyStat is the mean latency of one route.
type LatencyStat struct {
	Key    string  `json:"key"`
	MeanMS float64 `json:"mean_ms"`
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests []Counter     `json:"requests"`
	Errors   []Counter     `json:"errors"`
	Latency  []LatencyStat `json:"latency"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		latencyTotal: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyTotal[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the counters, sorted by key.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{Requests: []Counter{}, Errors: []Counter{}, Latency: []LatencyStat{}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Requests: sortedCounters(m.requestCount),
		Errors:   sortedCounters(m.errorCount),
		Latency:  make([]LatencyStat, 0, len(m.latencyTotal)),
	}
	for _, c := range snap.Requests {
		mean := m.latencyTotal[c.Key] / time.Duration(c.Count)
		snap.Latency = append(snap.Latency, LatencyStat{Key: c.Key, MeanMS: float64(mean) / float64(time.Millisecond)})
	}
	return snap
}

func sortedCounters(src map[string]int64) []Counter {
	out := make([]Counter, 0, len(src))
	for k, v := range src {
		out = append(out, Counter{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
