package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for audit events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores one event.
func (r *Repository) Insert(ctx context.Context, e Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (kind, subject_id, identifier, action, target_id, created_at)
		VALUES ($1, NULLIF($2, 0), $3, $4, NULLIF($5, 0), $6)`,
		e.Kind, e.SubjectID, e.Identifier, e.Action, e.TargetID, e.CreatedAt.UTC())
	return err
}

// Prune deletes events older than the retention window and reports how many
// rows were removed.
func (r *Repository) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_events WHERE created_at < $1`, time.Now().Add(-retention).UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
