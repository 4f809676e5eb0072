package users

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"github.com/gatehouse-api/gatehouse/internal/auth"
	"github.com/gatehouse-api/gatehouse/internal/rbac"
	"github.com/gatehouse-api/gatehouse/internal/shared"
)

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateRole(ctx context.Context, id, roleID int64) error
	DeleteUser(ctx context.Context, id int64) error
}

// RoleResolver computes role assignments for principals.
type RoleResolver interface {
	ResolveForUsername(ctx context.Context, username string) (rbac.Role, error)
	GetByName(ctx context.Context, name string) (rbac.Role, error)
}

// Service handles user account business logic.
type Service struct {
	repo  RepositoryPort
	roles RoleResolver
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, roles RoleResolver) *Service {
	return &Service{repo: repo, roles: roles}
}

// CreatePrincipal is the factory for new accounts. The role is resolved up
// front (bootstrap username gets the all-permissions role, everyone else the
// default role) and the password is hashed before the insert; construction
// has no hidden side effects.
func (s *Service) CreatePrincipal(ctx context.Context, username, email, password string) (*User, error) {
	username = norm.NFC.String(username)
	email = norm.NFC.String(email)

	role, err := s.roles.ResolveForUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		RoleID:       role.ID,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser fetches a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// ListUsers returns one page of users, newest first.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]User, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.repo.ListUsers(ctx, perPage, (page-1)*perPage)
}

// UpdateEmail changes the account's email address.
func (s *Service) UpdateEmail(ctx context.Context, id int64, email string) error {
	return s.repo.UpdateEmail(ctx, id, norm.NFC.String(email))
}

// ChangePassword rotates the password hash after verifying the old
// password. A wrong old password is an authentication failure.
func (s *Service) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(oldPassword, user.PasswordHash) {
		return shared.ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// AssignRole reassigns a user's role by role name.
func (s *Service) AssignRole(ctx context.Context, id int64, roleName string) error {
	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		return err
	}
	return s.repo.UpdateRole(ctx, id, role.ID)
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}
