package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/hash"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DB is the Postgres user store. Passwords are hashed here, never by callers.
type DB struct {
	conn     *pgxpool.Pool
	password hash.Hash
	ins      instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, password hash.Hash, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, password: password, ins: ins}
}

// - 23505 unique violation -> goerror.ErrConflict
// - no rows -> goerror.ErrNotFound
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
	return s.ins.Tracer("signup.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const userColumns = `id, username, email, phone, password_hash, created_at`
