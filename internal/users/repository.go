package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse-api/gatehouse/internal/auth"
	"github.com/gatehouse-api/gatehouse/internal/rbac"
	"github.com/gatehouse-api/gatehouse/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for user accounts. It
// also serves as the credential store consulted by the auth verifier.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, email, password_hash, role_id, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a user by primary key.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByUsername fetches a user by its unique username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// GetUserByEmail fetches a user by its unique email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// CreateUser inserts a new account and fills in the generated fields.
func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at`,
		u.Username, u.Email, u.PasswordHash, u.RoleID).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shared.ErrDuplicate
		}
		return err
	}
	return nil
}

// ListUsers returns a page of users ordered by id descending.
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateEmail changes the account email.
func (r *Repository) UpdateEmail(ctx context.Context, id int64, email string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET email = $2, updated_at = now() WHERE id = $1`, id, email)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shared.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateRole reassigns the account role.
func (r *Repository) UpdateRole(ctx context.Context, id, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role_id = $2, updated_at = now() WHERE id = $1`, id, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteUser removes an account.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const accountQuery = `
	SELECT u.id, u.username, u.email, u.password_hash,
	       r.id, r.name, r.permissions, r.is_default
	FROM users u
	JOIN roles r ON r.id = u.role_id`

func scanAccount(row pgx.Row) (auth.Account, error) {
	var account auth.Account
	var perms int32
	err := row.Scan(
		&account.Subject.ID, &account.Subject.Username, &account.Subject.Email, &account.PasswordHash,
		&account.Subject.Role.ID, &account.Subject.Role.Name, &perms, &account.Subject.Role.IsDefault,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Account{}, shared.ErrNotFound
		}
		return auth.Account{}, err
	}
	account.Subject.Role.Permissions = rbac.Permission(perms)
	return account, nil
}

// FindByID resolves a credential store account by user id.
func (r *Repository) FindByID(ctx context.Context, id int64) (auth.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, accountQuery+` WHERE u.id = $1`, id))
}

// FindByEmail resolves a credential store account by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (auth.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, accountQuery+` WHERE u.email = $1`, email))
}

// FindByUsername resolves a credential store account by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (auth.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, accountQuery+` WHERE u.username = $1`, username))
}

var _ auth.Store = (*Repository)(nil)
