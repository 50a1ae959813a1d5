// Package liveness probes whether a URL still answers on the live web.
//
// A probe is a HEAD request following redirects, retried on transient
// failures. Servers that reject HEAD get a ranged GET instead. A URL
// that answers with a success status is accessible; a definitive error
// status makes it inaccessible; transport exhaustion is recorded as an
// error outcome so the caller can tell "down" from "unreachable".
//
// When an accessible URL's extension is in the analysis set, the body
// is fetched once and written to the content cache for later analysis.
package liveness
