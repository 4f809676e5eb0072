package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gatehouse-api/gatehouse/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditRecord is the task type for persisting audit events.
	TaskTypeAuditRecord = "audit:record"
)

// AuditRecordPayload carries one audit event through the queue.
type AuditRecordPayload struct {
	Kind       string    `json:"kind"`
	SubjectID  int64     `json:"subject_id,omitempty"`
	Identifier string    `json:"identifier,omitempty"`
	Action     string    `json:"action,omitempty"`
	TargetID   int64     `json:"target_id,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewAuditRecordTask constructs an Asynq task.
func NewAuditRecordTask(payload AuditRecordPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditRecord, data), nil
}

// NewAuditRecordHandler returns the worker-side handler persisting audit
// events to the database.
func NewAuditRecordHandler(repo *audit.Repository) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditRecordPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return repo.Insert(ctx, audit.Event{
			Kind:       payload.Kind,
			SubjectID:  payload.SubjectID,
			Identifier: payload.Identifier,
			Action:     payload.Action,
			TargetID:   payload.TargetID,
			CreatedAt:  payload.RecordedAt,
		})
	}
}

// AuditRecorder enqueues audit events from the request path. Recording is
// best-effort: enqueue failures are logged and never fail the request.
type AuditRecorder struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewAuditRecorder constructs an AuditRecorder.
func NewAuditRecorder(client *asynq.Client, logger *slog.Logger) *AuditRecorder {
	return &AuditRecorder{client: client, logger: logger}
}

func (a *AuditRecorder) enqueue(ctx context.Context, payload AuditRecordPayload) {
	payload.RecordedAt = time.Now().UTC()
	task, err := NewAuditRecordTask(payload)
	if err == nil {
		_, err = a.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	}
	if err != nil && a.logger != nil {
		a.logger.Warn("enqueue audit event", slog.String("kind", payload.Kind), slog.Any("error", err))
	}
}

// LoginSucceeded records a successful authentication.
func (a *AuditRecorder) LoginSucceeded(ctx context.Context, subjectID int64, username string) {
	a.enqueue(ctx, AuditRecordPayload{Kind: audit.KindLoginSuccess, SubjectID: subjectID, Identifier: username})
}

// LoginFailed records a failed authentication attempt.
func (a *AuditRecorder) LoginFailed(ctx context.Context, identifier string) {
	a.enqueue(ctx, AuditRecordPayload{Kind: audit.KindLoginFailure, Identifier: identifier})
}

// AdminAction records an administrative mutation.
func (a *AuditRecorder) AdminAction(ctx context.Context, actorID int64, action string, targetID int64) {
	a.enqueue(ctx, AuditRecordPayload{Kind: audit.KindAdminAction, SubjectID: actorID, Action: action, TargetID: targetID})
}
