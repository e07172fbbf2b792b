package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStep_DeltaSecondsAndOrder(t *testing.T) {
	var calls []string
	var dts []float64
	l := New(
		func(dt float64) { calls = append(calls, "update"); dts = append(dts, dt) },
		func() { calls = append(calls, "render") },
		60,
	)
	clock := time.Unix(100, 0)
	l.now = func() time.Time { return clock }

	l.Step()
	clock = clock.Add(250 * time.Millisecond)
	l.Step()
	clock = clock.Add(16 * time.Millisecond)
	l.Step()

	want := []string{"update", "render", "update", "render", "update", "render"}
	if len(calls) != len(want) {
		t.Fatalf("calls: %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: got %s want %s", i, calls[i], want[i])
		}
	}
	if dts[0] != 0 || dts[1] != 0.25 || dts[2] != 0.016 {
		t.Fatalf("dts: %v", dts)
	}
}

func TestStartStop(t *testing.T) {
	var updates, renders atomic.Int64
	l := New(func(float64) { updates.Add(1) }, func() { renders.Add(1) }, 200)

	l.Start(context.Background())
	l.Start(context.Background()) // no-op
	if !l.Running() {
		t.Fatalf("expected running")
	}
	deadline := time.Now().Add(2 * time.Second)
	for updates.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	l.Stop()
	if l.Running() {
		t.Fatalf("expected stopped")
	}
	n := updates.Load()
	if n < 3 {
		t.Fatalf("updates: %d", n)
	}
	time.Sleep(30 * time.Millisecond)
	if updates.Load() != n || renders.Load() != n {
		t.Fatalf("ticks after Stop: updates %d->%d renders %d", n, updates.Load(), renders.Load())
	}
	l.Stop() // idempotent
}

func TestStart_StopsWithContext(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	l := New(func(float64) { mu.Lock(); ticks++; mu.Unlock() }, nil, 500)
	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for l.Running() && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if l.Running() {
		t.Fatalf("loop still running after context cancel")
	}
	// Restart after a context stop.
	l.Start(context.Background())
	defer l.Stop()
	if !l.Running() {
		t.Fatalf("restart failed")
	}
}
