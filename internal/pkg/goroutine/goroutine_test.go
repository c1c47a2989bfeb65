package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestManager(t *testing.T) {
	t.Run("RunsTasksAndCollectsErrors", func(t *testing.T) {
		// Arrange
		m := NewManager(4)
		var ran atomic.Int32
		errBoom := errors.New("boom")

		// Act
		for i := 0; i < 3; i++ {
			m.Go(context.Background(), "ok", func(context.Context) error {
				ran.Add(1)
				return nil
			})
		}
		m.Go(context.Background(), "fail", func(context.Context) error { return errBoom })
		err := m.Wait()

		// Assert
		if ran.Load() != 3 {
			t.Fatalf("expected 3 runs, got %d", ran.Load())
		}
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}
	})

	t.Run("RecoversPanic", func(t *testing.T) {
		m := NewManager(1)
		m.Go(context.Background(), "panic", func(context.Context) error { panic("x") })
		if err := m.Wait(); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	})

	t.Run("SkipsAfterWait", func(t *testing.T) {
		m := NewManager(1)
		_ = m.Wait()

		var ran atomic.Bool
		m.Go(context.Background(), "late", func(context.Context) error {
			ran.Store(true)
			return nil
		})
		_ = m.Wait()

		if ran.Load() {
			t.Fatal("expected task to be skipped after Wait")
		}
	})

	t.Run("SkipsCanceledContext", func(t *testing.T) {
		m := NewManager(1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var ran atomic.Bool
		m.Go(ctx, "canceled", func(context.Context) error {
			ran.Store(true)
			return nil
		})
		_ = m.Wait()

		if ran.Load() {
			t.Fatal("expected canceled task not to run")
		}
	})

	t.Run("NilManager", func(t *testing.T) {
		var m *Manager
		m.Go(context.Background(), "nil", func(context.Context) error { return nil })
		if err := m.Wait(); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	})
	t.Run("DropsWhenFull", func(t *testing.T) {
		// Arrange
		m := NewManager(1)
		release := make(chan struct{})
		started := make(chan struct{})
		m.Go(context.Background(), "blocker", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
		<-started

		// Act
		m.Go(context.Background(), "extra", func(context.Context) error { return nil })
		close(release)
		_ = m.Wait()

		// Assert
		if m.Dropped() != 1 {
			t.Fatalf("expected 1 dropped task, got %d", m.Dropped())
		}
	})

	t.Run("TaskTimeout", func(t *testing.T) {
		m := NewManager(1, WithTaskTimeout(10*time.Millisecond))
		m.Go(context.Background(), "slow", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		if err := m.Wait(); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	})
}
