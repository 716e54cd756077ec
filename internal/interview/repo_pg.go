package interview

import (
	"context"
	"database/sql"
	"errors"
)

const sessionColumns = `id, user_id, job_role, company, created_at`

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, s Session) error {
	const query = `
INSERT INTO interview_sessions (id, user_id, job_role, company, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, s.ID, s.UserID, s.JobRole, s.Company, s.CreatedAt)
	return err
}

func (r *PGRepo) Get(ctx context.Context, id string) (Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE id = $1 LIMIT 1`
	var s Session
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.UserID, &s.JobRole, &s.Company, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// Delete also removes the session's messages through the cascading foreign key.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM interview_sessions WHERE id = $1`, id)
	return err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]Session, error) {
	const query = `
SELECT ` + sessionColumns + `
FROM interview_sessions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.JobRole, &s.Company, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
