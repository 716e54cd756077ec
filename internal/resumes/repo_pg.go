package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const recordColumns = `id, user_id, resume_json, source_key, created_at, updated_at`

// PGRepo implements Store on Postgres. The unique user_id column makes the
// upsert a single statement; ON CONFLICT keeps the existing row and its id.
type PGRepo struct {
	DB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) Upsert(ctx context.Context, userID int64, resume StructuredResume) (Record, error) {
	payload, err := json.Marshal(resume)
	if err != nil {
		return Record{}, fmt.Errorf("encode resume: %w", err)
	}
	const query = `
INSERT INTO resumes (user_id, resume_json, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (user_id) DO UPDATE
SET resume_json = EXCLUDED.resume_json, updated_at = now()
RETURNING ` + recordColumns
	return scanRecord(r.DB.QueryRowContext(ctx, query, userID, payload))
}

func (r *PGRepo) GetByUserID(ctx context.Context, userID int64) (Record, error) {
	const query = `SELECT ` + recordColumns + ` FROM resumes WHERE user_id = $1 LIMIT 1`
	return scanRecord(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	const query = `SELECT ` + recordColumns + ` FROM resumes WHERE id = $1 LIMIT 1`
	return scanRecord(r.DB.QueryRowContext(ctx, query, id))
}

func (r *PGRepo) AttachSource(ctx context.Context, userID int64, key string) error {
	const query = `UPDATE resumes SET source_key = $2, updated_at = now() WHERE user_id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID, key)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var payload []byte
	var sourceKey sql.NullString
	err := row.Scan(&rec.ID, &rec.UserID, &payload, &sourceKey, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if err := json.Unmarshal(payload, &rec.Resume); err != nil {
		return Record{}, fmt.Errorf("decode resume %d: %w", rec.ID, err)
	}
	rec.SourceKey = sourceKey.String
	return rec, nil
}
