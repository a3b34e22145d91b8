package driven

// Sampler collects low-volume diagnostic samples from the sync engine, such
// as the first document skipped for a missing key in a run. Injected so
// tests can assert on emitted samples instead of relying on process-global
// state and call order.
type Sampler interface {
	Sample(event string, attrs ...any)
}
