// Package model defines the core data structures used throughout WaybackWolf.
//
// This package contains the following main types:
//   - Task: A single URL to audit, with its recognized file extension
//   - CheckResult: The outcome of a liveness check
//   - SnapshotResult: The outcome of a Wayback Machine lookup
//   - AnalysisVerdict: The outcome of AI content analysis
//   - RunReport: The aggregate of all results for one run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (liveness, archive, analysis, pipeline,
// report) need to use these types, so centralizing them prevents import
// cycles.
//
// The models are designed to be serializable to JSON for report output.
package model
