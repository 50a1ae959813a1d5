// Package pipeline orchestrates an audit run.
//
// Two bounded worker pools drive the run: one probes URLs for liveness,
// one resolves dead URLs against the archive. A single collector
// goroutine drains completed results into the run report, which is the
// only place results are aggregated. Status updates stream to the
// display over a channel; quit arrives as a control call and takes
// effect at task boundaries.
package pipeline
