package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"
)

// TestPolicyDo tests the attempt accounting of the policy.
func TestPolicyDo(t *testing.T) {
	t.Parallel()

	t.Run("succeeds on first attempt", func(t *testing.T) {
		t.Parallel()

		p := New(3, time.Millisecond, nil)
		calls := 0
		attempts, err := p.Do(context.Background(), "op", func(context.Context) error {
			calls++
			return nil
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 1 || calls != 1 {
			t.Errorf("expected 1 attempt, got attempts=%d calls=%d", attempts, calls)
		}
	})

	t.Run("always-transient failure makes exactly max attempts", func(t *testing.T) {
		t.Parallel()

		p := New(3, time.Millisecond, nil)
		calls := 0
		attempts, err := p.Do(context.Background(), "op", func(context.Context) error {
			calls++
			return &StatusError{Code: 503}
		})

		if calls != 3 {
			t.Errorf("expected exactly 3 calls, got %d", calls)
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts reported, got %d", attempts)
		}
		var exhausted *ExhaustedError
		if !errors.As(err, &exhausted) {
			t.Fatalf("expected ExhaustedError, got %v", err)
		}
		if exhausted.Attempts != 3 {
			t.Errorf("expected Attempts=3, got %d", exhausted.Attempts)
		}
	})

	t.Run("definitive failure makes exactly one attempt", func(t *testing.T) {
		t.Parallel()

		p := New(5, time.Millisecond, nil)
		calls := 0
		attempts, err := p.Do(context.Background(), "op", func(context.Context) error {
			calls++
			return &StatusError{Code: 404}
		})

		if calls != 1 || attempts != 1 {
			t.Errorf("expected 1 call, got calls=%d attempts=%d", calls, attempts)
		}
		var exhausted *ExhaustedError
		if errors.As(err, &exhausted) {
			t.Error("definitive failure must not be wrapped as exhaustion")
		}
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.Code != 404 {
			t.Errorf("expected the 404 back, got %v", err)
		}
	})

	t.Run("recovers after transient failures", func(t *testing.T) {
		t.Parallel()

		p := New(3, time.Millisecond, nil)
		calls := 0
		attempts, err := p.Do(context.Background(), "op", func(context.Context) error {
			calls++
			if calls < 3 {
				return &StatusError{Code: 500}
			}
			return nil
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("cancellation stops retries", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		p := New(10, time.Hour, nil) // backoff long enough that only cancel can end the run
		calls := 0
		done := make(chan struct{})

		go func() {
			defer close(done)
			_, err := p.Do(ctx, "op", func(context.Context) error {
				calls++
				return &StatusError{Code: 503}
			})
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Do did not return after cancellation")
		}
		if calls != 1 {
			t.Errorf("expected 1 call before cancellation, got %d", calls)
		}
	})
}

// timeoutErr implements net.Error with Timeout() == true.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

// TestTransient tests the failure classification.
func TestTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"http 500", &StatusError{Code: 500}, true},
		{"http 503", &StatusError{Code: 503}, true},
		{"http 429", &StatusError{Code: 429}, true},
		{"http 404", &StatusError{Code: 404}, false},
		{"http 403", &StatusError{Code: 403}, false},
		{"http 401", &StatusError{Code: 401}, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"net timeout", timeoutErr{}, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"nxdomain", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"dns timeout", &net.DNSError{Err: "timeout", IsTimeout: true}, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Transient(tt.err); got != tt.want {
				t.Errorf("Transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
