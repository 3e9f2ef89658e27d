package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitForReturnsWhenTimerFires(t *testing.T) {
	original := newTimer
	var waited time.Duration
	stopped := false
	newTimer = func(d time.Duration) (<-chan time.Time, func() bool) {
		waited = d
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch, func() bool { stopped = true; return false }
	}
	defer func() { newTimer = original }()

	if err := WaitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waited != 3*time.Second {
		t.Fatalf("expected to wait 3s, waited %s", waited)
	}
	if !stopped {
		t.Fatal("expected timer to be stopped")
	}
}

func TestWaitForStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitFor(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForSkipsNonPositiveDuration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, 0); err != nil {
		t.Fatalf("expected nil for zero duration, got %v", err)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct{ part, total, want int }{
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 3, 100},
		{1, 0, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.part, tt.total); got != tt.want {
			t.Fatalf("Percent(%d, %d) = %d, want %d", tt.part, tt.total, got, tt.want)
		}
	}
}
