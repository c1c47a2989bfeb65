package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

var errAbort = errors.New("abort")

// runStoreContract exercises the behaviour every driver must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	exp := time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC)
	seed := entity.Session{Identity: "a@b.com", OTPDigest: "d1", OTPExpiry: exp}

	t.Run("CreateAndGet", func(t *testing.T) {
		// Arrange
		s := newStore(t)

		// Act
		id, err := s.Create(ctx, seed)

		// Assert
		if err != nil || id == "" {
			t.Fatalf("Create() = %q, %v", id, err)
		}
		got, err := s.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Identity != seed.Identity || !got.SameChallenge(&seed) {
			t.Fatalf("unexpected session %+v", got)
		}
	})

	t.Run("GetUnknown", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateUnknownSkipsFn", func(t *testing.T) {
		s := newStore(t)
		called := false
		err := s.Update(ctx, "missing", func(*entity.Session) (entity.Mutation, error) {
			called = true
			return entity.MutationSave, nil
		})
		if !errors.Is(err, goerror.ErrNotFound) || called {
			t.Fatalf("expected ErrNotFound without calling fn, got %v called=%v", err, called)
		}
	})

	t.Run("UpdateSave", func(t *testing.T) {
		s := newStore(t)
		id, _ := s.Create(ctx, seed)

		err := s.Update(ctx, id, func(sess *entity.Session) (entity.Mutation, error) {
			sess.OTPAttempts = 3
			return entity.MutationSave, nil
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, _ := s.Get(ctx, id)
		if got.OTPAttempts != 3 {
			t.Fatalf("expected 3 attempts, got %d", got.OTPAttempts)
		}
	})

	t.Run("UpdateNoneAndAbortKeepState", func(t *testing.T) {
		s := newStore(t)
		id, _ := s.Create(ctx, seed)

		_ = s.Update(ctx, id, func(sess *entity.Session) (entity.Mutation, error) {
			sess.OTPAttempts = 9
			return entity.MutationNone, nil
		})
		err := s.Update(ctx, id, func(sess *entity.Session) (entity.Mutation, error) {
			sess.OTPAttempts = 9
			return entity.MutationSave, errAbort
		})
		if !errors.Is(err, errAbort) {
			t.Fatalf("expected errAbort, got %v", err)
		}

		got, _ := s.Get(ctx, id)
		if got.OTPAttempts != 0 {
			t.Fatalf("expected untouched session, got %d attempts", got.OTPAttempts)
		}
	})

	t.Run("UpdateDestroy", func(t *testing.T) {
		s := newStore(t)
		id, _ := s.Create(ctx, seed)

		_ = s.Update(ctx, id, func(*entity.Session) (entity.Mutation, error) {
			return entity.MutationDestroy, nil
		})

		if _, err := s.Get(ctx, id); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected destroyed session, got %v", err)
		}
	})

	t.Run("Regenerate", func(t *testing.T) {
		s := newStore(t)
		oldID, _ := s.Create(ctx, seed)
		now := exp.Add(-time.Minute)

		newID, err := s.Regenerate(ctx, oldID, func(cur *entity.Session) (*entity.Session, error) {
			return cur.Authenticated(now), nil
		})
		if err != nil {
			t.Fatalf("Regenerate() error = %v", err)
		}
		if newID == "" || newID == oldID {
			t.Fatalf("expected a fresh id, got %q", newID)
		}

		if _, err := s.Get(ctx, oldID); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected old id gone, got %v", err)
		}
		got, err := s.Get(ctx, newID)
		if err != nil {
			t.Fatalf("Get(newID) error = %v", err)
		}
		if !got.IsAuthenticated || got.Identity != seed.Identity || got.HasChallenge() {
			t.Fatalf("unexpected regenerated session %+v", got)
		}
	})

	t.Run("RegenerateAbortKeepsOld", func(t *testing.T) {
		s := newStore(t)
		oldID, _ := s.Create(ctx, seed)

		_, err := s.Regenerate(ctx, oldID, func(*entity.Session) (*entity.Session, error) {
			return nil, entity.ErrChallengeChanged
		})
		if !errors.Is(err, entity.ErrChallengeChanged) {
			t.Fatalf("expected ErrChallengeChanged, got %v", err)
		}

		got, err := s.Get(ctx, oldID)
		if err != nil || !got.SameChallenge(&seed) {
			t.Fatalf("expected old session intact, got %+v, %v", got, err)
		}
	})

	t.Run("RegenerateUnknown", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Regenerate(ctx, "missing", func(cur *entity.Session) (*entity.Session, error) {
			return cur, nil
		})
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DestroyIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		id, _ := s.Create(ctx, seed)

		if err := s.Destroy(ctx, id); err != nil {
			t.Fatalf("Destroy() error = %v", err)
		}
		if err := s.Destroy(ctx, id); err != nil {
			t.Fatalf("second Destroy() error = %v", err)
		}
	})

	t.Run("ConcurrentUpdatesAreSerialized", func(t *testing.T) {
		s := newStore(t)
		id, _ := s.Create(ctx, seed)

		const workers = 20
		var wg sync.WaitGroup
		for range workers {
			wg.Go(func() {
				err := s.Update(ctx, id, func(sess *entity.Session) (entity.Mutation, error) {
					sess.OTPAttempts++
					return entity.MutationSave, nil
				})
				if err != nil {
					t.Errorf("Update() error = %v", err)
				}
			})
		}
		wg.Wait()

		got, _ := s.Get(ctx, id)
		if got.OTPAttempts != workers {
			t.Fatalf("expected %d attempts, got %d", workers, got.OTPAttempts)
		}
	})

	t.Run("ConcurrentRegenerateHasOneWinner", func(t *testing.T) {
		s := newStore(t)
		oldID, _ := s.Create(ctx, seed)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range 5 {
			wg.Go(func() {
				_, err := s.Regenerate(ctx, oldID, func(cur *entity.Session) (*entity.Session, error) {
					if !cur.SameChallenge(&seed) {
						return nil, entity.ErrChallengeChanged
					}
					return cur.Authenticated(exp), nil
				})
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			})
		}
		wg.Wait()

		if wins != 1 {
			t.Fatalf("expected exactly one winner, got %d", wins)
		}
	})
}
