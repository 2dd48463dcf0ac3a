package ratelimit

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newRecordingLimiter(cfg Config) (*Limiter, *[]time.Duration) {
	var sleeps []time.Duration
	l := New(cfg, zerolog.Nop())
	l.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return l, &sleeps
}

func TestThrottleBurstPacing(t *testing.T) {
	delay := 50 * time.Millisecond
	burst := 2 * time.Second
	l, sleeps := newRecordingLimiter(Config{BurstSize: 3, Delay: delay, BurstDelay: burst})
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if err := l.Throttle(ctx); err != nil {
			t.Fatalf("Throttle %d: %v", i, err)
		}
		if l.RequestCount() != i {
			t.Fatalf("expected count %d, got %d", i, l.RequestCount())
		}
	}
	if want := []time.Duration{delay, delay}; !reflect.DeepEqual(*sleeps, want) {
		t.Fatalf("calls below the burst size should only pay the base delay, got %v", *sleeps)
	}

	if err := l.Throttle(ctx); err != nil {
		t.Fatalf("Throttle 3: %v", err)
	}
	if l.RequestCount() != 0 {
		t.Fatalf("expected counter reset after burst, got %d", l.RequestCount())
	}
	if want := []time.Duration{delay, delay, delay, burst}; !reflect.DeepEqual(*sleeps, want) {
		t.Fatalf("unexpected sleeps after burst: %v", *sleeps)
	}

	// the cycle repeats
	for i := 0; i < 3; i++ {
		if err := l.Throttle(ctx); err != nil {
			t.Fatalf("Throttle: %v", err)
		}
	}
	want := []time.Duration{delay, delay, delay, burst, delay, delay, delay, burst}
	if !reflect.DeepEqual(*sleeps, want) {
		t.Fatalf("unexpected second cycle: %v", *sleeps)
	}
}

func TestThrottleWithoutBurst(t *testing.T) {
	l, sleeps := newRecordingLimiter(Config{Delay: time.Millisecond})
	for i := 0; i < 5; i++ {
		if err := l.Throttle(context.Background()); err != nil {
			t.Fatalf("Throttle: %v", err)
		}
	}
	if len(*sleeps) != 5 {
		t.Fatalf("expected 5 sleeps, got %d", len(*sleeps))
	}
	if l.RequestCount() != 5 {
		t.Fatalf("expected count 5, got %d", l.RequestCount())
	}
}

func TestThrottleCancelled(t *testing.T) {
	l := New(Config{BurstSize: 1, Delay: time.Hour, BurstDelay: time.Hour}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Throttle(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSleepWithContextZero(t *testing.T) {
	if err := SleepWithContext(context.Background(), 0); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	start := time.Now()
	if err := SleepWithContext(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("SleepWithContext: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("returned before the duration elapsed")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BurstSize != DefaultBurstSize || cfg.Delay != DefaultDelay || cfg.BurstDelay != DefaultBurstDelay {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
