// Package ratelimit paces outbound catalog requests.
//
// Every request pays a short delay. After BurstSize requests the limiter also
// pays a longer burst delay and starts counting again, giving short bursts
// separated by pauses.
package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBurstSize  = 10
	DefaultDelay      = 100 * time.Millisecond
	DefaultBurstDelay = time.Second
)

// Config describes the pacing of a Limiter.
type Config struct {
	BurstSize  int
	Delay      time.Duration
	BurstDelay time.Duration
}

// DefaultConfig matches the catalog's published request guidance.
func DefaultConfig() Config {
	return Config{
		BurstSize:  DefaultBurstSize,
		Delay:      DefaultDelay,
		BurstDelay: DefaultBurstDelay,
	}
}

// Limiter is a process-lifetime request throttle. It is not safe for
// concurrent use; all requests are expected to go through one caller.
type Limiter struct {
	log          zerolog.Logger
	cfg          Config
	requestCount int
	sleep        func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter. A BurstSize below 1 disables the burst pause.
func New(cfg Config, log zerolog.Logger) *Limiter {
	return &Limiter{
		log:   log.With().Str("module", "ratelimit").Logger(),
		cfg:   cfg,
		sleep: SleepWithContext,
	}
}

// Throttle must be called once before every outbound request.
func (l *Limiter) Throttle(ctx context.Context) error {
	l.requestCount++
	if err := l.sleep(ctx, l.cfg.Delay); err != nil {
		return err
	}
	if l.cfg.BurstSize > 0 && l.requestCount >= l.cfg.BurstSize {
		l.log.Debug().
			Int("requests", l.requestCount).
			Dur("burst_delay", l.cfg.BurstDelay).
			Msg("burst limit reached, pausing")
		l.requestCount = 0
		if err := l.sleep(ctx, l.cfg.BurstDelay); err != nil {
			return err
		}
	}
	return nil
}

// RequestCount returns the requests made since the last burst pause.
func (l *Limiter) RequestCount() int {
	return l.requestCount
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
