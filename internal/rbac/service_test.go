package rbac_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-api/gatehouse/internal/rbac"
	"github.com/gatehouse-api/gatehouse/internal/shared"
)

type stubRoleRepo struct {
	roles  map[string]rbac.Role
	nextID int64
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{roles: map[string]rbac.Role{}}
}

func (s *stubRoleRepo) GetByID(ctx context.Context, id int64) (rbac.Role, error) {
	for _, role := range s.roles {
		if role.ID == id {
			return role, nil
		}
	}
	return rbac.Role{}, shared.ErrNotFound
}

func (s *stubRoleRepo) GetByName(ctx context.Context, name string) (rbac.Role, error) {
	role, ok := s.roles[name]
	if !ok {
		return rbac.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (s *stubRoleRepo) DefaultRole(ctx context.Context) (rbac.Role, error) {
	for _, role := range s.roles {
		if role.IsDefault {
			return role, nil
		}
	}
	return rbac.Role{}, shared.ErrNotFound
}

func (s *stubRoleRepo) RoleWithPermissions(ctx context.Context, perms rbac.Permission) (rbac.Role, error) {
	for _, role := range s.roles {
		if role.Permissions == perms {
			return role, nil
		}
	}
	return rbac.Role{}, shared.ErrNotFound
}

func (s *stubRoleRepo) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	var out []rbac.Role
	for _, role := range s.roles {
		out = append(out, role)
	}
	return out, nil
}

func (s *stubRoleRepo) UpsertRole(ctx context.Context, name string, perms rbac.Permission, isDefault bool) error {
	role, ok := s.roles[name]
	if !ok {
		s.nextID++
		role = rbac.Role{ID: s.nextID, Name: name}
	}
	role.Permissions = perms
	role.IsDefault = isDefault
	s.roles[name] = role
	return nil
}

func TestSeedInstallsBuiltinRoles(t *testing.T) {
	ctx := context.Background()
	repo := newStubRoleRepo()
	service := rbac.NewService(repo)

	require.NoError(t, service.Seed(ctx))

	user, err := service.GetByName(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, rbac.PermComment|rbac.PermWriteArticles, user.Permissions)
	assert.True(t, user.IsDefault)

	admin, err := service.GetByName(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, rbac.PermAll, admin.Permissions)
	assert.False(t, admin.IsDefault)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newStubRoleRepo()
	service := rbac.NewService(repo)

	require.NoError(t, service.Seed(ctx))
	require.NoError(t, service.Seed(ctx))

	roles, err := service.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}

func TestResolveForUsername(t *testing.T) {
	ctx := context.Background()
	repo := newStubRoleRepo()
	service := rbac.NewService(repo)
	require.NoError(t, service.Seed(ctx))

	role, err := service.ResolveForUsername(ctx, rbac.BootstrapUsername)
	require.NoError(t, err)
	assert.Equal(t, rbac.PermAll, role.Permissions)

	role, err = service.ResolveForUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, role.IsDefault)
	assert.False(t, role.Grants(rbac.PermAdmin))
}
