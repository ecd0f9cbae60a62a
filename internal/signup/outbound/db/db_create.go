package db

import (
	"context"

	"github.com/shandysiswandi/gosignup/internal/signup/entity"
)

// Create hashes password and inserts the user. A taken username or email
// yields goerror.ErrConflict.
func (s *DB) Create(ctx context.Context, in entity.NewUser, password string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { s.endSpan(span, err) }()

	hashed, err := s.password.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(s.conn.QueryRow(ctx,
		`INSERT INTO users (id, username, email, phone, password_hash) VALUES ($1, $2, $3, $4, $5) RETURNING `+userColumns,
		in.ID, in.Username, in.Email, in.Phone, string(hashed),
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}
