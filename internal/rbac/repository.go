package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse-api/gatehouse/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	GetByID(ctx context.Context, id int64) (Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	DefaultRole(ctx context.Context) (Role, error)
	RoleWithPermissions(ctx context.Context, perms Permission) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpsertRole(ctx context.Context, name string, perms Permission, isDefault bool) error
}

// Repository provides PostgreSQL backed persistence for roles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, permissions, is_default, created_at, updated_at`

func (r *Repository) scanRole(row pgx.Row) (Role, error) {
	var role Role
	var perms int32
	if err := row.Scan(&role.ID, &role.Name, &perms, &role.IsDefault, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	role.Permissions = Permission(perms)
	return role, nil
}

// GetByID fetches a role by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (Role, error) {
	return r.scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
}

// GetByName fetches a role by its unique name.
func (r *Repository) GetByName(ctx context.Context, name string) (Role, error) {
	return r.scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name))
}

// DefaultRole returns the first role flagged as default.
func (r *Repository) DefaultRole(ctx context.Context) (Role, error) {
	return r.scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE is_default ORDER BY id LIMIT 1`))
}

// RoleWithPermissions returns the first role holding exactly the given bits.
func (r *Repository) RoleWithPermissions(ctx context.Context, perms Permission) (Role, error) {
	return r.scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE permissions = $1 ORDER BY id LIMIT 1`, int32(perms)))
}

// ListRoles returns all roles ordered by id.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		var perms int32
		if err := rows.Scan(&role.ID, &role.Name, &perms, &role.IsDefault, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		role.Permissions = Permission(perms)
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// UpsertRole inserts a role or updates its permissions and default flag.
func (r *Repository) UpsertRole(ctx context.Context, name string, perms Permission, isDefault bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO roles (name, permissions, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (name) DO UPDATE
		SET permissions = EXCLUDED.permissions, is_default = EXCLUDED.is_default, updated_at = now()`,
		name, int32(perms), isDefault)
	return err
}

var _ RepositoryPort = (*Repository)(nil)
