package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	MQTT          MQTTMetrics    `json:"mqtt"`
	InfluxDB      *SinkMetrics   `json:"influxdb,omitempty"`
	Bridge        BridgeMetrics  `json:"bridge"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// SinkMetrics contains reading sink statistics.
type SinkMetrics struct {
	Connected   bool   `json:"connected"`
	WriteErrors uint64 `json:"write_errors"`
}

// BridgeMetrics contains poll, publish and command counters.
type BridgeMetrics struct {
	Polls         uint64 `json:"polls"`
	PollErrors    uint64 `json:"poll_errors"`
	Published     uint64 `json:"published"`
	PublishErrors uint64 `json:"publish_errors"`
	Commands      uint64 `json:"commands"`
	CommandErrors uint64 `json:"command_errors"`
	Dropped       uint64 `json:"dropped"`

	// LastPoll is RFC 3339, empty until the first successful poll.
	LastPoll string `json:"last_poll,omitempty"`
}

// handleMetrics returns bridge and runtime metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	bm := s.bridge.GetMetrics()

	// Uptime is the bridge's once it is running, the server's before that.
	uptime := bm.Uptime
	if uptime == 0 {
		uptime = time.Since(s.startTime)
	}

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(uptime.Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		MQTT: MQTTMetrics{
			Connected: bm.MQTTConnected,
		},
		Bridge: BridgeMetrics{
			Polls:         bm.Polls,
			PollErrors:    bm.PollErrors,
			Published:     bm.Published,
			PublishErrors: bm.PublishErrors,
			Commands:      bm.Commands,
			CommandErrors: bm.CommandErrors,
			Dropped:       bm.Dropped,
		},
	}

	if s.sink != nil {
		metrics.InfluxDB = &SinkMetrics{
			Connected:   s.sink.IsConnected(),
			WriteErrors: s.sink.WriteErrors(),
		}
	}
	if !bm.LastPoll.IsZero() {
		metrics.Bridge.LastPoll = bm.LastPoll.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, metrics)
}
