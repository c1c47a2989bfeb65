package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	txRetryBase = 10 * time.Millisecond
	txRetryCap  = 200 * time.Millisecond
	txRetryMax  = 50
)

// RedisConfig configures the Redis store.
type RedisConfig struct {
	// Prefix is prepended to every key.
	Prefix string
	TTL    time.Duration
}

// Redis stores sessions as JSON under prefix+HMAC(id), so a leaked keyspace
// does not reveal usable session ids. Read-modify-write cycles use
// WATCH/MULTI and are retried when another writer touched the key.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	ids    uid.StringID
	hmac   hash.Hash
	ins    instrument.Instrumentation
}

func NewRedis(client *redis.Client, cfg RedisConfig, ids uid.StringID, hmac hash.Hash, ins instrument.Instrumentation) *Redis {
	return &Redis{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		ids:    ids,
		hmac:   hmac,
		ins:    ins,
	}
}

func (r *Redis) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.ins.Tracer("auth.outbound.session").Start(ctx, name)
}

func (r *Redis) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, entity.ErrChallengeChanged) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *Redis) key(id string) (string, error) {
	h, err := r.hmac.Hash(id)
	if err != nil {
		return "", fmt.Errorf("session: hash id: %w", err)
	}
	return r.prefix + string(h), nil
}

func (r *Redis) backoff() retry.Backoff {
	b := retry.NewExponential(txRetryBase)
	b = retry.WithCappedDuration(txRetryCap, b)
	return retry.WithMaxRetries(txRetryMax, b)
}

// watch runs fn in a WATCH transaction on keys, retrying on conflicts.
func (r *Redis) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	return retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		err := r.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func decodeSession(raw []byte) (*entity.Session, error) {
	var sess entity.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &sess, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getSession(ctx context.Context, c stringGetter, key string) (*entity.Session, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(raw)
}

func (r *Redis) Get(ctx context.Context, id string) (sess *entity.Session, err error) {
	ctx, span := r.startSpan(ctx, "Get")
	defer func() { r.endSpan(span, err) }()

	key, err := r.key(id)
	if err != nil {
		return nil, err
	}

	return getSession(ctx, r.client, key)
}

func (r *Redis) Create(ctx context.Context, sess entity.Session) (id string, err error) {
	ctx, span := r.startSpan(ctx, "Create")
	defer func() { r.endSpan(span, err) }()

	raw, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("session: encode: %w", err)
	}

	for range maxCreateAttempts {
		id = r.ids.Generate()
		key, err := r.key(id)
		if err != nil {
			return "", err
		}

		ok, err := r.client.SetNX(ctx, key, raw, r.ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return id, nil
		}
	}

	return "", ErrIDExhausted
}

func (r *Redis) Update(ctx context.Context, id string, fn func(sess *entity.Session) (entity.Mutation, error)) (err error) {
	ctx, span := r.startSpan(ctx, "Update")
	defer func() { r.endSpan(span, err) }()

	key, err := r.key(id)
	if err != nil {
		return err
	}

	return r.watch(ctx, func(tx *redis.Tx) error {
		sess, err := getSession(ctx, tx, key)
		if err != nil {
			return err
		}

		op, err := fn(sess)
		if err != nil {
			return err
		}

		var raw []byte
		if op == entity.MutationSave {
			if raw, err = json.Marshal(sess); err != nil {
				return fmt.Errorf("session: encode: %w", err)
			}
		}

		switch op {
		case entity.MutationSave:
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.SetArgs(ctx, key, raw, redis.SetArgs{KeepTTL: true})
				return nil
			})
		case entity.MutationDestroy:
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
		}
		return err
	}, key)
}

func (r *Redis) Regenerate(ctx context.Context, oldID string, fn func(cur *entity.Session) (*entity.Session, error)) (newID string, err error) {
	ctx, span := r.startSpan(ctx, "Regenerate")
	defer func() { r.endSpan(span, err) }()

	oldKey, err := r.key(oldID)
	if err != nil {
		return "", err
	}

	err = r.watch(ctx, func(tx *redis.Tx) error {
		cur, err := getSession(ctx, tx, oldKey)
		if err != nil {
			return err
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("session: encode: %w", err)
		}

		newID = r.ids.Generate()
		newKey, err := r.key(newID)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, newKey, raw, r.ttl)
			pipe.Del(ctx, oldKey)
			return nil
		})
		return err
	}, oldKey)
	if err != nil {
		return "", err
	}

	return newID, nil
}

func (r *Redis) Destroy(ctx context.Context, id string) (err error) {
	ctx, span := r.startSpan(ctx, "Destroy")
	defer func() { r.endSpan(span, err) }()

	key, err := r.key(id)
	if err != nil {
		return err
	}

	return r.client.Del(ctx, key).Err()
}

// Close is a no-op; the redis client is owned by the application.
func (r *Redis) Close() error {
	return nil
}
