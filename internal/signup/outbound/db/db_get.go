package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
)

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}

	return &u, nil
}

func (s *DB) FindByEmailOrUsername(ctx context.Context, email, username string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "FindByEmailOrUsername")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) OR LOWER(username) = LOWER($2) LIMIT 1`,
		email, username,
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

// Authenticate looks the user up by username or email and checks password.
func (s *DB) Authenticate(ctx context.Context, identifier, password string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "Authenticate")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1) LIMIT 1`,
		identifier,
	))
	if err = s.mapError(err); errors.Is(err, goerror.ErrNotFound) {
		return nil, entity.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.password.Verify(user.PasswordHash, password) {
		return nil, entity.ErrInvalidCredentials
	}

	return user, nil
}
