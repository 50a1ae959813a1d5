package model

import (
	"sort"
	"time"
)

// Stats holds the summary counters for a run.
type Stats struct {
	// Total is the number of completed tasks.
	Total int `json:"total"`

	// Accessible is the number of URLs that answered successfully.
	Accessible int `json:"accessible"`

	// Inaccessible is the number of URLs that did not, including errors.
	Inaccessible int `json:"inaccessible"`

	// Sensitive is the number of URLs whose analysis flagged
	// confidential data.
	Sensitive int `json:"sensitive"`
}

// RunReport aggregates all per-URL results of one run.
//
// Design decision: RunReport is not internally synchronized. All mutation
// goes through the pipeline's collector goroutine, which is the single
// aggregation point; report writers only see the report after the
// collector has drained every worker.
type RunReport struct {
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last result was collected.
	FinishedAt time.Time `json:"finished_at"`

	// Interrupted reports whether the run was cut short by quit or an
	// OS signal. The report then contains only completed tasks.
	Interrupted bool `json:"interrupted,omitempty"`

	// Results holds one entry per completed URL, keyed by the task URL.
	Results map[string]*Result `json:"results"`

	// Stats holds the summary counters.
	Stats Stats `json:"stats"`
}

// NewRunReport creates an empty report stamped with the current time.
func NewRunReport() *RunReport {
	return &RunReport{
		StartedAt: time.Now(),
		Results:   make(map[string]*Result),
	}
}

// Add records a completed result and updates the counters.
// Adding the same URL twice replaces the previous entry without
// double-counting.
func (rr *RunReport) Add(res *Result) {
	if prev, ok := rr.Results[res.Task.URL]; ok {
		rr.uncount(prev)
	}
	rr.Results[res.Task.URL] = res
	rr.Stats.Total++
	if res.Accessible() {
		rr.Stats.Accessible++
	} else {
		rr.Stats.Inaccessible++
	}
	if res.Verdict != nil && res.Verdict.Sensitive {
		rr.Stats.Sensitive++
	}
}

// uncount reverses the counter updates of a previously added result.
func (rr *RunReport) uncount(res *Result) {
	rr.Stats.Total--
	if res.Accessible() {
		rr.Stats.Accessible--
	} else {
		rr.Stats.Inaccessible--
	}
	if res.Verdict != nil && res.Verdict.Sensitive {
		rr.Stats.Sensitive--
	}
}

// Finalize stamps the completion time.
func (rr *RunReport) Finalize() {
	rr.FinishedAt = time.Now()
}

// AccessibleResults returns the accessible results sorted by URL.
// Sorting makes report output deterministic even though task completion
// order is not.
func (rr *RunReport) AccessibleResults() []*Result {
	return rr.sorted(true)
}

// InaccessibleResults returns the inaccessible and errored results
// sorted by URL.
func (rr *RunReport) InaccessibleResults() []*Result {
	return rr.sorted(false)
}

func (rr *RunReport) sorted(accessible bool) []*Result {
	out := make([]*Result, 0, len(rr.Results))
	for _, res := range rr.Results {
		if res.Accessible() == accessible {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Task.URL < out[j].Task.URL
	})
	return out
}

// ExtensionBreakdown counts tasks per recognized extension.
// The result is used for the pre-run breakdown table.
func ExtensionBreakdown(tasks []Task) map[string]int {
	counts := make(map[string]int)
	for _, t := range tasks {
		if t.Extension != "" {
			counts[t.Extension]++
		}
	}
	return counts
}
