// Package session implements the auth session store on top of process memory
// or Redis. Both stores run every read-modify-write of one session as a
// single critical section and mint session ids themselves.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// Supported values for the session.driver setting.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// DefaultTTL bounds how long an idle session is kept.
const DefaultTTL = 48 * time.Hour

const maxCreateAttempts = 3

var (
	// ErrUnknownDriver is returned by New for an unsupported driver name.
	ErrUnknownDriver = errors.New("session: unknown driver")
	// ErrRedisRequired is returned by New when the redis driver has no client.
	ErrRedisRequired = errors.New("session: redis client is required")
	// ErrIDExhausted is returned when no unused id could be minted.
	ErrIDExhausted = errors.New("session: could not mint an unused id")
)

// Config selects and configures a store.
type Config struct {
	Driver string
	TTL    time.Duration
	// Prefix namespaces redis keys.
	Prefix string
}

// Dependency carries the collaborators a store may need.
type Dependency struct {
	Redis      *redis.Client
	IDs        uid.StringID
	HMAC       hash.Hash
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

// Store is implemented by both drivers.
type Store interface {
	Get(ctx context.Context, id string) (*entity.Session, error)
	Create(ctx context.Context, sess entity.Session) (string, error)
	Update(ctx context.Context, id string, fn func(sess *entity.Session) (entity.Mutation, error)) error
	Regenerate(ctx context.Context, oldID string, fn func(cur *entity.Session) (*entity.Session, error)) (string, error)
	Destroy(ctx context.Context, id string) error
	Close() error
}

// New builds the store named by cfg.Driver.
func New(cfg Config, dep Dependency) (Store, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch strings.ToLower(cfg.Driver) {
	case DriverMemory, "":
		return NewMemory(dep.IDs, dep.Clock, ttl), nil
	case DriverRedis:
		if dep.Redis == nil {
			return nil, ErrRedisRequired
		}
		return NewRedis(dep.Redis, RedisConfig{Prefix: cfg.Prefix, TTL: ttl}, dep.IDs, dep.HMAC, dep.Instrument), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
