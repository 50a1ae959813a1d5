// Package retry provides bounded retry with exponential backoff for
// network calls.
//
// Only transient failures are retried: timeouts, connection resets,
// HTTP 5xx and 429. Definitive failures (other 4xx, permanent DNS
// errors, malformed URLs) fail on the first attempt. Exhaustion is
// reported with the attempt count so callers can say "failed after N
// retries".
package retry
