package github

import (
	"context"
	"github-retriever/internal/components/assert"
	"time"

	random "github.com/mazen160/go-random"
	"golang.org/x/time/rate"
)

type SchedulerOptions struct {
	// every request waits a random duration in [MinDelay, MaxDelay)
	MinDelay time.Duration
	MaxDelay time.Duration
	// after every PauseEvery requests an extra Pause is added, 0 disables it
	PauseEvery int
	Pause      time.Duration
	// RequestsPerSecond is a hard ceiling on top of the delays, 0 disables it
	RequestsPerSecond float64
}

// DefaultSchedulerOptions keep the crawler under the rate at which github
// starts answering with abuse errors.
func DefaultSchedulerOptions() SchedulerOptions {
	return SchedulerOptions{
		MinDelay:   100 * time.Millisecond,
		MaxDelay:   1000 * time.Millisecond,
		PauseEvery: 50,
		Pause:      5 * time.Second,
	}
}

// Scheduler decides how long to wait before each request of a run. It is
// shared by every session of a run so that the pause counter spans
// repositories.
//
// Scheduler is not safe for concurrent use, requests are made one at a time.
type Scheduler struct {
	opts    SchedulerOptions
	limiter *rate.Limiter
	calls   int

	jitter func(min, max time.Duration) time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewScheduler(opts SchedulerOptions) *Scheduler {
	assert.NonNegative("min delay", opts.MinDelay)
	assert.NonNegative("max delay", opts.MaxDelay)
	assert.NonNegative("pause interval", opts.PauseEvery)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Scheduler{
		opts:    opts,
		limiter: limiter,
		jitter:  randomJitter,
		sleep:   sleepContext,
	}
}

// Calls is the number of times Wait has been called.
func (s *Scheduler) Calls() int {
	return s.calls
}

// Delay returns how long the next request should wait and counts it.
func (s *Scheduler) Delay() time.Duration {
	s.calls++

	delay := clampDelay(s.jitter(s.opts.MinDelay, s.opts.MaxDelay), s.opts.MinDelay, s.opts.MaxDelay)
	previous := s.calls - 1
	if s.opts.PauseEvery > 0 && previous > 0 && previous%s.opts.PauseEvery == 0 {
		delay += s.opts.Pause
	}
	return delay
}

// Wait blocks before a request. It only fails if ctx is cancelled.
func (s *Scheduler) Wait(ctx context.Context) error {
	err := s.sleep(ctx, s.Delay())
	if err != nil {
		return err
	}
	return s.limiter.Wait(ctx)
}

func clampDelay(d, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	if d < min {
		return min
	}
	if d >= max {
		return max - time.Nanosecond
	}
	return d
}

func randomJitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	ms, err := random.IntRange(int(min.Milliseconds()), int(max.Milliseconds()))
	if err != nil {
		return min
	}
	return time.Duration(ms) * time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
