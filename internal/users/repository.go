package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursehub/coursehub/internal/platform/httpx"
)

const userColumns = `id, username, password_hash, role, real_name, email, phone, avatar, enabled, last_login_time, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.RealName, &u.Email,
		&u.Phone, &u.Avatar, &u.Enabled, &u.LastLoginTime, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, httpx.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// FindByUsername fetches a user by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Create inserts a new user and returns the stored record.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, role, real_name, email, phone, avatar, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+userColumns,
		u.Username, u.PasswordHash, u.Role, u.RealName, u.Email, u.Phone, u.Avatar, u.Enabled)
	created, err := scanUser(row)
	if err != nil {
		return User{}, err
	}
	return created, nil
}

// UpdateProfile updates the mutable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, realName, email, phone, avatar string) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET real_name = $2, email = $3, phone = $4, avatar = $5, updated_at = NOW()
		 WHERE id = $1 RETURNING `+userColumns,
		id, realName, email, phone, avatar)
	return scanUser(row)
}

// UpdatePassword stores a new password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// SetEnabled flips the enabled flag.
func (r *Repository) SetEnabled(ctx context.Context, id int64, enabled bool) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET enabled = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, enabled)
	return scanUser(row)
}

// SetRole changes the account role.
func (r *Repository) SetRole(ctx context.Context, id int64, role string) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, role)
	return scanUser(row)
}

// TouchLastLogin records the login timestamp.
func (r *Repository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_time = $2 WHERE id = $1`, id, at)
	return err
}

// List returns a page of users ordered by id plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
