package session

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

type memoryEntry struct {
	sess      entity.Session
	expiresAt time.Time
}

// Memory keeps sessions in a map guarded by one mutex. Sessions are lost on
// restart and are not shared between processes.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ids      uid.StringID
	clock    clock.Clocker
	ttl      time.Duration
}

func NewMemory(ids uid.StringID, clk clock.Clocker, ttl time.Duration) *Memory {
	return &Memory{
		sessions: make(map[string]memoryEntry),
		ids:      ids,
		clock:    clk,
		ttl:      ttl,
	}
}

// load returns the live entry for id, dropping it if expired. Callers hold mu.
func (m *Memory) load(id string) (memoryEntry, bool) {
	e, ok := m.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.clock.Now().Before(e.expiresAt) {
		delete(m.sessions, id)
		return memoryEntry{}, false
	}
	return e, true
}

// mint returns an unused id. Callers hold mu.
func (m *Memory) mint() (string, error) {
	for range maxCreateAttempts {
		id := m.ids.Generate()
		if _, taken := m.load(id); !taken {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

func (m *Memory) Get(ctx context.Context, id string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.load(id)
	if !ok {
		return nil, goerror.ErrNotFound
	}
	sess := e.sess
	return &sess, nil
}

func (m *Memory) Create(ctx context.Context, sess entity.Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.mint()
	if err != nil {
		return "", err
	}
	m.sessions[id] = memoryEntry{sess: sess, expiresAt: m.clock.Now().Add(m.ttl)}
	return id, nil
}

func (m *Memory) Update(ctx context.Context, id string, fn func(sess *entity.Session) (entity.Mutation, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.load(id)
	if !ok {
		return goerror.ErrNotFound
	}

	sess := e.sess
	op, err := fn(&sess)
	if err != nil {
		return err
	}

	switch op {
	case entity.MutationSave:
		m.sessions[id] = memoryEntry{sess: sess, expiresAt: e.expiresAt}
	case entity.MutationDestroy:
		delete(m.sessions, id)
	}
	return nil
}

func (m *Memory) Regenerate(ctx context.Context, oldID string, fn func(cur *entity.Session) (*entity.Session, error)) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.load(oldID)
	if !ok {
		return "", goerror.ErrNotFound
	}

	cur := e.sess
	next, err := fn(&cur)
	if err != nil {
		return "", err
	}

	newID, err := m.mint()
	if err != nil {
		return "", err
	}

	m.sessions[newID] = memoryEntry{sess: *next, expiresAt: m.clock.Now().Add(m.ttl)}
	delete(m.sessions, oldID)
	return newID, nil
}

func (m *Memory) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id := range m.sessions {
		if _, ok := m.load(id); ok {
			n++
		}
	}
	return n
}

func (m *Memory) Close() error {
	return nil
}
