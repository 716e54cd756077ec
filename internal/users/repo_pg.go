package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, email, name, provider, is_pro, trials, created_at, updated_at`

type PGRepo struct {
	DB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) Create(ctx context.Context, user User) (User, error) {
	const query = `
INSERT INTO users (email, name, provider, is_pro, trials, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
RETURNING ` + userColumns
	created, err := scanUser(r.DB.QueryRowContext(ctx, query,
		user.Email,
		nullableString(user.Name),
		nullableString(user.Provider),
		user.IsPro,
		user.Trials,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return created, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = $1 LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, strings.ToLower(email)))
}

func (r *PGRepo) SetPro(ctx context.Context, id int64, pro bool) (User, error) {
	const query = `
UPDATE users
SET is_pro = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, query, id, pro))
}

func (r *PGRepo) ConsumeTrial(ctx context.Context, id int64) (User, error) {
	const query = `
UPDATE users
SET trials = trials - 1, updated_at = now()
WHERE id = $1 AND trials > 0
RETURNING ` + userColumns
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, ErrNotFound) {
		// Either the user is gone or the counter is already zero.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return User{}, getErr
		}
		return User{}, ErrNoTrials
	}
	return user, err
}

func (r *PGRepo) RefundTrial(ctx context.Context, id int64) (User, error) {
	const query = `
UPDATE users
SET trials = trials + 1, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func scanUser(row rowScanner) (User, error) {
	var user User
	var name, provider sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Email,
		&name,
		&provider,
		&user.IsPro,
		&user.Trials,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Name = name.String
	user.Provider = provider.String
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
