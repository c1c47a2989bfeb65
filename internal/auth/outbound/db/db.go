package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS auth_events (
	id           UUID PRIMARY KEY,
	session_hash TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	kind         TEXT NOT NULL,
	detail       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS auth_events_email_created_at_idx ON auth_events (email, created_at DESC);
`

const insertEvent = `
INSERT INTO auth_events (id, session_hash, email, kind, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const listEventsByEmail = `
SELECT id, session_hash, email, kind, detail, created_at
FROM auth_events
WHERE email = $1
ORDER BY created_at DESC
LIMIT $2`

// Recorder persists and lists audit events.
type Recorder interface {
	Record(ctx context.Context, ev entity.AuthEvent) error
	ListByEmail(ctx context.Context, email string, limit int) ([]entity.AuthEvent, error)
}

// NewRecorder returns a DB backed recorder, or Noop when conn is nil.
func NewRecorder(conn *pgxpool.Pool, ins instrument.Instrumentation) Recorder {
	if conn == nil {
		return Noop{}
	}
	return NewDB(conn, ins)
}

// DB records the authentication audit trail in PostgreSQL.
type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// EnsureSchema creates the audit table when it does not exist.
func (s *DB) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, "EnsureSchema")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, schema)
	return s.mapError(err)
}

func (s *DB) Record(ctx context.Context, ev entity.AuthEvent) (err error) {
	ctx, span := s.startSpan(ctx, "Record")
	defer func() { s.endSpan(span, err) }()

	if !uid.IsUUID(ev.ID) {
		return goerror.NewServer(fmt.Errorf("audit event id %q is not a uuid", ev.ID))
	}

	_, err = s.conn.Exec(ctx, insertEvent, ev.ID, ev.SessionHash, ev.Email, string(ev.Kind), ev.Detail, ev.CreatedAt)
	return s.mapError(err)
}

// ListByEmail returns the most recent events for email, newest first.
func (s *DB) ListByEmail(ctx context.Context, email string, limit int) (events []entity.AuthEvent, err error) {
	ctx, span := s.startSpan(ctx, "ListByEmail")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, listEventsByEmail, email, limit)
	if err != nil {
		return nil, s.mapError(err)
	}

	events, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.AuthEvent, error) {
		var (
			ev   entity.AuthEvent
			kind string
		)
		err := row.Scan(&ev.ID, &ev.SessionHash, &ev.Email, &kind, &ev.Detail, &ev.CreatedAt)
		ev.Kind = entity.EventKind(kind)
		return ev, err
	})
	return events, s.mapError(err)
}

// Noop discards audit events. It is used when auditing is disabled.
type Noop struct{}

func (Noop) Record(context.Context, entity.AuthEvent) error {
	return nil
}

func (Noop) ListByEmail(context.Context, string, int) ([]entity.AuthEvent, error) {
	return nil, nil
}
