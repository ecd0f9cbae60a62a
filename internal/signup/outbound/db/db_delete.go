package db

import "context"

// Delete removes a user. Deleting an absent user is not an error.
func (s *DB) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return s.mapError(err)
}
