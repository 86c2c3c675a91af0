package port

import "time"

// MetricsRecorder receives counters from the application services and the HTTP layer
type MetricsRecorder interface {
	ObserveDocument(success bool)
	ObserveMatches(method string, n int)
	ObserveDroppedItems(n int)
	ObserveRequest(method, path string, status int, elapsed time.Duration)
}

// NopMetrics discards all observations
type NopMetrics struct{}

func (NopMetrics) ObserveDocument(bool)                              {}
func (NopMetrics) ObserveMatches(string, int)                        {}
func (NopMetrics) ObserveDroppedItems(int)                           {}
func (NopMetrics) ObserveRequest(string, string, int, time.Duration) {}
