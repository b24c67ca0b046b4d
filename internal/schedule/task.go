// Package schedule runs fixed-rate periodic work on its own goroutine.
package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"glyphbridge/internal/telemetry"
	"glyphbridge/logging"
)

// ErrRunning reports a Start on a task that has not been stopped.
var ErrRunning = errors.New("schedule: task already running")

// Tick describes one invocation of a task step.
type Tick struct {
	Seq   uint64
	Now   time.Time
	Delta time.Duration
}

// Config tunes a task.
type Config struct {
	Name    string
	Rate    float64
	Clock   logging.Clock
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
}

// Task calls its step function at a fixed rate until stopped. Ticks that
// fire while a step is still running are skipped by the ticker.
type Task struct {
	config Config
	step   func(ctx context.Context, tick Tick)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	seq    uint64
}

// NewTask creates a stopped task. A non-positive rate defaults to 1 Hz.
func NewTask(cfg Config, step func(ctx context.Context, tick Tick)) *Task {
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.SystemClock{}
	}
	return &Task{config: cfg, step: step}
}

// Interval is the time between ticks.
func (t *Task) Interval() time.Duration {
	return time.Duration(float64(time.Second) / t.config.Rate)
}

// Running reports whether the task goroutine is live.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done != nil
}

// Start launches the task goroutine. It stops on its own when ctx ends.
func (t *Task) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		return ErrRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	go t.run(runCtx, done)
	return nil
}

// Stop cancels the task and waits for its current step to finish. Stopping
// a stopped task is a no-op.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Task) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	interval := t.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	clock := t.config.Clock
	last := clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := clock.Now()
			delta := now.Sub(last)
			last = now

			t.mu.Lock()
			t.seq++
			seq := t.seq
			t.mu.Unlock()

			start := clock.Now()
			t.step(ctx, Tick{Seq: seq, Now: now, Delta: delta})
			if took := clock.Now().Sub(start); took > interval {
				if t.config.Metrics != nil {
					t.config.Metrics.Add(t.config.Name+"_overruns_total", 1)
				}
				if t.config.Logger != nil {
					t.config.Logger.Printf("%s step took %s, budget %s", t.config.Name, took, interval)
				}
			}
		}
	}
}
