// Package report renders a finished run in text, JSON, and Markdown.
//
// All writers consume the same RunReport and group URLs into accessible
// and inaccessible sections, with snapshot links and analysis verdicts
// attached where they exist. Output is deterministic: result groups are
// sorted by URL regardless of completion order.
package report
