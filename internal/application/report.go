package application

// Report summarizes one reconciliation run over one stream. Every pulled
// document ends in exactly one of the three terminal states.
type Report struct {
	Pulled  int
	Created int
	Skipped int
	Failed  int
}
