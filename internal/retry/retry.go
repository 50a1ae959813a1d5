package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"
)

// StatusError reports a completed HTTP response with a non-success code.
// It lets the policy classify responses without depending on the caller's
// HTTP stack.
type StatusError struct {
	// Code is the HTTP status code of the response.
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// ExhaustedError wraps the final error after the retry budget is spent.
type ExhaustedError struct {
	// Attempts is the total number of attempts made.
	Attempts int

	// Err is the error of the final attempt.
	Err error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d retries: %v", e.Attempts-1, e.Err)
}

// Unwrap supports errors.Is/As on the final attempt's error.
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Policy applies bounded retry with exponential backoff.
// The zero value is not usable; construct with New.
type Policy struct {
	// maxAttempts is the total attempt budget, including the first.
	maxAttempts int

	// baseDelay is the delay before the second attempt; it doubles for
	// each further attempt.
	baseDelay time.Duration

	// logger records retry decisions at debug level.
	logger *slog.Logger
}

// New creates a Policy. Attempts below 1 are clamped to 1; a
// non-positive delay disables backoff sleeps.
func New(maxAttempts int, baseDelay time.Duration, logger *slog.Logger) *Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}
}

// MaxAttempts returns the total attempt budget.
func (p *Policy) MaxAttempts() int {
	return p.maxAttempts
}

// Do runs op until it succeeds, fails definitively, or the attempt
// budget is spent. It returns the number of attempts made alongside the
// final error (nil on success). Cancellation is observed between
// attempts and during backoff sleeps, never mid-operation: each op is
// expected to honor its own timeouts via ctx.
func (p *Policy) Do(ctx context.Context, name string, op func(context.Context) error) (int, error) {
	var err error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return attempt - 1, ctx.Err()
		}

		err = op(ctx)
		if err == nil {
			return attempt, nil
		}
		if !Transient(err) {
			return attempt, err
		}
		if attempt == p.maxAttempts {
			break
		}

		delay := p.baseDelay << (attempt - 1)
		p.logger.Debug("transient failure, backing off",
			"op", name,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(delay):
		}
	}

	return p.maxAttempts, &ExhaustedError{Attempts: p.maxAttempts, Err: err}
}

// Transient reports whether an error belongs to a retryable failure
// class: timeout, connection reset/refused, temporary DNS failure, or
// an HTTP 5xx/429 response.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	// errors.Is unwraps through url.Error, so wrapped client timeouts
	// are caught here. Malformed URLs fall through to the default.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		// NXDOMAIN is definitive; server trouble is not.
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	return false
}
