package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/auth/login", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/auth/login", "POST", 200, 30*time.Millisecond)
	m.RecordRequest("/auth/login", "POST", 401, time.Millisecond)
	m.RecordError("/auth/login", "POST", "UNAUTHENTICATED")

	snap := m.Snapshot()
	require.Equal(t, []Counter{
		{Key: "/auth/login|POST|200", Count: 2},
		{Key: "/auth/login|POST|401", Count: 1},
	}, snap.Requests)
	require.Equal(t, []Counter{{Key: "/auth/login|POST|UNAUTHENTICATED", Count: 1}}, snap.Errors)
	require.Len(t, snap.Latency, 2)
	require.InDelta(t, 20.0, snap.Latency[0].MeanMS, 0.001)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	snap := m.Snapshot()
	require.Empty(t, snap.Requests)
	require.NotNil(t, snap.Requests)
}
