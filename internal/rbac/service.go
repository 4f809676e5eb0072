package rbac

import "context"

// BootstrapUsername is the distinguished username that receives the
// all-permissions role at creation time instead of the default role.
const BootstrapUsername = "admin"

// Service orchestrates role lookups and seeding.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Seed installs the built-in roles. It runs at startup and is idempotent:
// the role set is static reference data afterwards.
func (s *Service) Seed(ctx context.Context) error {
	if err := s.repo.UpsertRole(ctx, "user", PermComment|PermWriteArticles, true); err != nil {
		return err
	}
	return s.repo.UpsertRole(ctx, "admin", PermAll, false)
}

// ResolveForUsername computes the role a new principal receives. The
// bootstrap username gets the all-permissions role, everyone else the
// default role.
func (s *Service) ResolveForUsername(ctx context.Context, username string) (Role, error) {
	if username == BootstrapUsername {
		return s.repo.RoleWithPermissions(ctx, PermAll)
	}
	return s.repo.DefaultRole(ctx)
}

// GetByID fetches a role by primary key.
func (s *Service) GetByID(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByName fetches a role by name.
func (s *Service) GetByName(ctx context.Context, name string) (Role, error) {
	return s.repo.GetByName(ctx, name)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}
