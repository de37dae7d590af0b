package metrics

import "time"

// LookupResult enumerates outcomes of a module lookup for counters.
type LookupResult string

const (
	LookupServed     LookupResult = "served"
	LookupRedirected LookupResult = "redirected"
	LookupDenied     LookupResult = "denied"
	LookupNotFound   LookupResult = "not_found"
)

// Recorder defines observability hooks for the documentation pipeline.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveRenderDuration(d time.Duration)
	IncLookup(result LookupResult)
	IncCache(hit bool)
	ObserveSyncDuration(repo string, d time.Duration, success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRenderDuration(time.Duration)             {}
func (NoopRecorder) IncLookup(LookupResult)                          {}
func (NoopRecorder) IncCache(bool)                                   {}
func (NoopRecorder) ObserveSyncDuration(string, time.Duration, bool) {}
