package model

import (
	"encoding/json"
	"time"
)

// Status classifies the outcome of a liveness check.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and grouping. JSON marshaling converts to
// the human-readable form so reports stay self-describing.
type Status int

const (
	// StatusAccessible means the URL answered with a 2xx or terminal 3xx
	// response within the configured timeouts.
	StatusAccessible Status = iota

	// StatusInaccessible means the server answered, but with a status code
	// outside the accessible range (404, 403, 500 after retries, ...).
	StatusInaccessible

	// StatusError means no usable response was obtained: the request timed
	// out, the connection failed, or retries were exhausted.
	StatusError
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusAccessible:
		return "accessible"
	case StatusInaccessible:
		return "inaccessible"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the status as its string form.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the string form produced by MarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "accessible":
		*s = StatusAccessible
	case "inaccessible":
		*s = StatusInaccessible
	default:
		*s = StatusError
	}
	return nil
}

// CheckResult is the outcome of a liveness check for one URL.
// Exactly one CheckResult is produced per Task; it is immutable after
// creation.
type CheckResult struct {
	// URL is the checked URL.
	URL string `json:"url"`

	// Status classifies the outcome.
	Status Status `json:"status"`

	// HTTPCode is the final HTTP status code, or 0 when no response
	// completed (Status == StatusError).
	HTTPCode int `json:"http_code,omitempty"`

	// Latency is the wall time of the successful attempt, or of the
	// final failed attempt.
	Latency time.Duration `json:"latency_ms"`

	// RetriesUsed is the number of retries consumed before the final
	// outcome. 0 means the first attempt decided the result.
	RetriesUsed int `json:"retries_used"`

	// Err holds the final error message for StatusError results.
	Err string `json:"error,omitempty"`
}

// SnapshotResult is the outcome of a Wayback Machine lookup. It exists
// only for URLs whose CheckResult is not accessible.
type SnapshotResult struct {
	// URL is the original (dead) URL that was looked up.
	URL string `json:"url"`

	// Found reports whether the archive holds any snapshot. A miss is a
	// normal outcome, not an error.
	Found bool `json:"found"`

	// SnapshotURL is the replay URL of the most recent snapshot.
	SnapshotURL string `json:"snapshot_url,omitempty"`

	// SnapshotTimestamp is the archive's 14-digit capture timestamp
	// (YYYYMMDDhhmmss).
	SnapshotTimestamp string `json:"snapshot_timestamp,omitempty"`
}

// AnalysisVerdict is the outcome of AI content analysis for one URL.
// It exists only when the URL's extension is in the configured analysis
// set and content bytes were obtained.
type AnalysisVerdict struct {
	// URL is the analyzed URL.
	URL string `json:"url"`

	// Sensitive reports whether the analysis flagged confidential data.
	Sensitive bool `json:"sensitive"`

	// Categories names the matched sensitive-data kinds (credentials,
	// pii, financial, ...). The set is open: providers may surface
	// categories this tool does not enumerate.
	Categories []string `json:"categories,omitempty"`

	// RawSummary is the provider's verbatim summary, or a note about
	// why analysis was unavailable (extraction failure, provider error).
	RawSummary string `json:"raw_summary,omitempty"`

	// Provider is the backend that produced the verdict. With fallback
	// enabled this may differ from the one selected on the command line.
	Provider string `json:"provider,omitempty"`
}

// Result bundles everything known about one audited URL.
type Result struct {
	// Task is the originating task.
	Task Task `json:"task"`

	// Check is the liveness outcome. Always present for a completed task.
	Check CheckResult `json:"check"`

	// Snapshot is present iff Check.Status != StatusAccessible.
	Snapshot *SnapshotResult `json:"snapshot,omitempty"`

	// Verdict is present iff content analysis ran for this URL.
	Verdict *AnalysisVerdict `json:"verdict,omitempty"`
}

// Accessible reports whether the URL answered successfully.
func (r *Result) Accessible() bool {
	return r.Check.Status == StatusAccessible
}
