package auth

import (
	"context"
	"time"

	"github.com/gatehouse-api/gatehouse/internal/rbac"
	"github.com/gatehouse-api/gatehouse/internal/shared"
)

// Account couples a subject identity with its stored password hash. The hash
// never leaves the auth package.
type Account struct {
	Subject      rbac.Subject
	PasswordHash string
}

// Store is the credential store consulted during verification. Implemented
// by the users repository.
type Store interface {
	FindByID(ctx context.Context, id int64) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
}

// Recorder receives authentication outcome events for the audit trail.
// Implementations must be best-effort and non-blocking.
type Recorder interface {
	LoginSucceeded(ctx context.Context, subjectID int64, username string)
	LoginFailed(ctx context.Context, identifier string)
}

// Service is the multi-scheme credential verifier. A single credential slot
// carries a token, an email or a username: the verifier infers the scheme by
// trying the cheapest check first (a pure signature validation) before
// touching the store.
type Service struct {
	store    Store
	codec    *Codec
	throttle *Throttle
	recorder Recorder
}

// NewService constructs a Service. throttle and recorder may be nil.
func NewService(store Store, codec *Codec, throttle *Throttle, recorder Recorder) *Service {
	return &Service{store: store, codec: codec, throttle: throttle, recorder: recorder}
}

// Authenticate resolves a credential to a principal.
//
// An empty identifier binds the anonymous principal and succeeds: the gate
// passes and downstream permission guards reject correctly. Every failing
// path returns shared.ErrInvalidCredentials without further detail.
func (s *Service) Authenticate(ctx context.Context, identifier, secret string) (rbac.Principal, error) {
	if identifier == "" {
		return rbac.Anonymous(), nil
	}

	// Token scheme: token strings and usernames/emails live in disjoint
	// formats, so a successful decode settles the scheme.
	if id, err := s.codec.Validate(identifier); err == nil {
		account, err := s.store.FindByID(ctx, id)
		if err != nil {
			return rbac.Anonymous(), shared.ErrInvalidCredentials
		}
		return rbac.Authenticated(account.Subject), nil
	}

	return s.passwordScheme(ctx, identifier, secret)
}

// VerifyPassword authenticates through the password scheme only, never the
// token scheme. The login endpoint uses it so an existing token cannot mint
// a fresh one.
func (s *Service) VerifyPassword(ctx context.Context, identifier, secret string) (rbac.Principal, error) {
	if identifier == "" {
		return rbac.Anonymous(), shared.ErrInvalidCredentials
	}
	return s.passwordScheme(ctx, identifier, secret)
}

// passwordScheme tries an email lookup first, then username.
func (s *Service) passwordScheme(ctx context.Context, identifier, secret string) (rbac.Principal, error) {
	if s.throttle != nil && s.throttle.Blocked(ctx, identifier) {
		return rbac.Anonymous(), shared.ErrInvalidCredentials
	}

	account, err := s.store.FindByEmail(ctx, identifier)
	if err != nil {
		account, err = s.store.FindByUsername(ctx, identifier)
	}
	if err != nil || !CheckPassword(secret, account.PasswordHash) {
		if s.throttle != nil {
			s.throttle.RecordFailure(ctx, identifier)
		}
		if s.recorder != nil {
			s.recorder.LoginFailed(ctx, identifier)
		}
		return rbac.Anonymous(), shared.ErrInvalidCredentials
	}
	if s.throttle != nil {
		s.throttle.Reset(ctx, identifier)
	}
	if s.recorder != nil {
		s.recorder.LoginSucceeded(ctx, account.Subject.ID, account.Subject.Username)
	}
	return rbac.Authenticated(account.Subject), nil
}

// IssueToken produces a signed token for the subject.
func (s *Service) IssueToken(subjectID int64, ttl time.Duration) (string, error) {
	return s.codec.Issue(subjectID, ttl)
}
