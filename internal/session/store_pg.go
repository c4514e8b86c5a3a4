package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGStore keeps sessions in the sessions table.
type PGStore struct {
	DB *sql.DB
}

func (s *PGStore) Create(ctx context.Context, sess Session) error {
	const query = `
INSERT INTO sessions (id, user_id, display_name, email, picture, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.DB.ExecContext(ctx, query,
		sess.ID,
		sess.UserID,
		sess.DisplayName,
		sess.Email,
		sess.Picture,
		sess.CreatedAt,
		sess.ExpiresAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id string) (Session, error) {
	const query = `
SELECT id, user_id, display_name, email, picture, created_at, expires_at
FROM sessions
WHERE id = $1
LIMIT 1`
	var sess Session
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.DisplayName,
		&sess.Email,
		&sess.Picture,
		&sess.CreatedAt,
		&sess.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return sess, nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *PGStore) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1 RETURNING id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PGStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
