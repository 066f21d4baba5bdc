// Package postgres implements authcore.UserStore and authcore.RoleStore on
// PostgreSQL through a pgx connection pool. Call [Migrate] before first use.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/authcore"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, password_hash, status, failed_login_attempts,
	security_question, security_answer_hash, roles, created_at, updated_at`

// Store satisfies both authcore.UserStore and authcore.RoleStore.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects a pool to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool. The caller keeps ownership of pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) FindByUsername(ctx context.Context, username string) (authcore.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (s *Store) FindByID(ctx context.Context, id string) (authcore.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&ok)
	return ok, err
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&ok)
	return ok, err
}

// Save upserts by ID. Unique violations map to authcore.ErrUsernameTaken
// or authcore.ErrEmailTaken.
func (s *Store) Save(ctx context.Context, u authcore.User) error {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			status = EXCLUDED.status,
			failed_login_attempts = EXCLUDED.failed_login_attempts,
			security_question = EXCLUDED.security_question,
			security_answer_hash = EXCLUDED.security_answer_hash,
			roles = EXCLUDED.roles,
			updated_at = EXCLUDED.updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, int16(u.Status), u.FailedLoginAttempts,
		u.SecurityQuestion, u.SecurityAnswerHash, roles, u.CreatedAt, u.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return authcore.ErrUsernameTaken
		case "users_email_lower_key":
			return authcore.ErrEmailTaken
		}
	}
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func (s *Store) FindByCode(ctx context.Context, code string) (authcore.Role, error) {
	var r authcore.Role
	err := s.pool.QueryRow(ctx, `SELECT code, name FROM roles WHERE code = $1`, code).Scan(&r.Code, &r.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return authcore.Role{}, authcore.ErrRoleNotFound
	}
	return r, err
}

// PutRole inserts or renames a role.
func (s *Store) PutRole(ctx context.Context, role authcore.Role) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO roles (code, name) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name`,
		role.Code, role.Name,
	)
	return err
}

func scanUser(row pgx.Row) (authcore.User, error) {
	var (
		u      authcore.User
		status int16
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &status, &u.FailedLoginAttempts,
		&u.SecurityQuestion, &u.SecurityAnswerHash, &u.Roles, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	if err != nil {
		return authcore.User{}, err
	}
	u.Status = authcore.AccountStatus(status)
	return u, nil
}
