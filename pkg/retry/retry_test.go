package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hcortiz/cotejo/pkg/retry"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func policy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
		Retryable: func(err error) bool {
			return errors.Is(err, errTransient)
		},
	}
}

func TestDo(t *testing.T) {
	t.Run("succeeds first attempt", func(t *testing.T) {
		calls := 0
		err := policy(3).Do(context.Background(), func(context.Context) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("Do error: %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("retries transient errors until success", func(t *testing.T) {
		calls := 0
		err := policy(3).Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do error: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("non-retryable error surfaces immediately", func(t *testing.T) {
		calls := 0
		err := policy(3).Do(context.Background(), func(context.Context) error {
			calls++
			return errFatal
		})
		if !errors.Is(err, errFatal) {
			t.Errorf("error = %v, want errFatal", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("exhausted attempts wrap last error", func(t *testing.T) {
		calls := 0
		err := policy(3).Do(context.Background(), func(context.Context) error {
			calls++
			return errTransient
		})
		if !errors.Is(err, retry.ErrAttemptsExhausted) {
			t.Errorf("error = %v, want ErrAttemptsExhausted", err)
		}
		if !errors.Is(err, errTransient) {
			t.Errorf("error = %v, want wrapped errTransient", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := policy(3).Do(ctx, func(context.Context) error {
			return errTransient
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestDelay(t *testing.T) {
	p := retry.Policy{BaseDelay: time.Second, MaxDelay: 10 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{6, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
