package agent

import (
	"context"
	"sync"
	"time"
)

type timerState int

const (
	timerDisabled timerState = iota
	timerArmed
)

func (s timerState) String() string {
	if s == timerArmed {
		return "armed"
	}
	return "disabled"
}

// localTimer is the page-local auto-extract timer. It only ever runs while
// its agent is alive.
type localTimer struct {
	fire func(ctx context.Context)

	mu     sync.Mutex
	state  timerState
	period time.Duration
	next   time.Time
	cancel context.CancelFunc
}

func newLocalTimer(fire func(ctx context.Context)) *localTimer {
	return &localTimer{fire: fire}
}

// Arm (re)starts the timer with period. Any previous schedule is discarded.
// Ticks run fire with ctx, so disarming never cancels an extraction in flight.
func (t *localTimer) Arm(ctx context.Context, period time.Duration) {
	t.Disarm()
	if period <= 0 {
		return
	}

	timerCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.state = timerArmed
	t.period = period
	t.next = time.Now().Add(period)
	t.cancel = cancel
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-timerCtx.Done():
				return
			case now := <-ticker.C:
				t.mu.Lock()
				if timerCtx.Err() != nil {
					t.mu.Unlock()
					return
				}
				t.next = now.Add(period)
				t.mu.Unlock()
				t.fire(ctx)
			}
		}
	}()
}

// Disarm stops future ticks. A tick already running is left to finish.
func (t *localTimer) Disarm() {
	t.mu.Lock()
	cancel := t.cancel
	t.state = timerDisabled
	t.cancel = nil
	t.next = time.Time{}
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (t *localTimer) State() timerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Next returns the time of the next tick, ok is false when disarmed.
func (t *localTimer) Next() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next, t.state == timerArmed
}
