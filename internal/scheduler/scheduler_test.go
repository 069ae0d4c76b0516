package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"croco_webapp/internal/logger"
)

func init() {
	logger.InitWriter(io.Discard, "error", false)
}

func TestEveryRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- Every(ctx, 10*time.Millisecond, "count", func(context.Context) error {
			if runs.Add(1) == 3 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}
}

func TestEverySurvivesPanicsAndErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var runs atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- Every(ctx, 5*time.Millisecond, "flaky", func(context.Context) error {
			switch runs.Add(1) {
			case 1:
				panic("boom")
			case 2:
				return errors.New("transient")
			default:
				cancel()
				return nil
			}
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not recover")
	}
	if runs.Load() < 3 {
		t.Fatalf("expected the loop to continue after panic, got %d runs", runs.Load())
	}
}

func TestEveryRejectsZeroInterval(t *testing.T) {
	if err := Every(context.Background(), 0, "bad", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected error")
	}
}
