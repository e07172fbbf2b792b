// Package loop drives an update/render pair at a fixed tick rate.
package loop

import (
	"context"
	"sync"
	"time"
)

type UpdateFunc func(dt float64)
type RenderFunc func()

// Loop calls update(dt) then render once per tick while running. dt is the
// wall time since the previous tick, in seconds.
type Loop struct {
	update UpdateFunc
	render RenderFunc
	step   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	last    time.Time
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(update UpdateFunc, render RenderFunc, tps int) *Loop {
	if tps <= 0 {
		tps = 60
	}
	if update == nil {
		update = func(float64) {}
	}
	if render == nil {
		render = func() {}
	}
	return &Loop{
		update: update,
		render: render,
		step:   time.Second / time.Duration(tps),
		now:    time.Now,
	}
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Start begins ticking on a new goroutine. It is a no-op if already running.
// The loop also stops when ctx is done.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.running = true
	l.cancel = cancel
	l.done = make(chan struct{})
	l.last = l.now()

	go l.run(ctx, l.done)
}

// Stop halts the loop and waits for an in-flight tick to finish. No callback
// runs after Stop returns.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(l.step)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.running = false
			l.mu.Unlock()
			return
		case <-t.C:
			l.Step()
		}
	}
}

// Tick advances the clock and calls update only. Hosts that own their own
// draw callback use Tick from their update hook.
func (l *Loop) Tick() float64 {
	now := l.now()
	l.mu.Lock()
	if l.last.IsZero() {
		l.last = now
	}
	dt := now.Sub(l.last).Seconds()
	l.last = now
	l.mu.Unlock()

	l.update(dt)
	return dt
}

// Step runs one full tick: update then render.
func (l *Loop) Step() {
	l.Tick()
	l.render()
}
