package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gatehouse-api/gatehouse/internal/shared"
)

// DefaultTokenTTL applies when a caller requests a token without a duration.
const DefaultTokenTTL = time.Hour

// Codec issues and validates signed, self-contained tokens binding a subject
// id to an expiry. Tokens are HS256 JWTs signed with a server-wide secret;
// the codec holds no other state and is safe for concurrent use.
type Codec struct {
	secret []byte
}

// NewCodec constructs a Codec with the server-wide signing secret.
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Issue produces a signed token for the given subject. A non-positive ttl
// falls back to DefaultTokenTTL; the codec enforces no upper bound, that
// policy belongs to the caller.
func (c *Codec) Issue(subjectID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(subjectID, 10),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Validate verifies the signature and expiry and returns the encoded subject
// id. Expired-but-validly-signed tokens return shared.ErrTokenExpired; every
// other defect returns shared.ErrTokenInvalid.
func (c *Codec) Validate(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, shared.ErrTokenExpired
		}
		return 0, shared.ErrTokenInvalid
	}
	if !token.Valid {
		return 0, shared.ErrTokenInvalid
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, shared.ErrTokenInvalid
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return 0, shared.ErrTokenInvalid
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, shared.ErrTokenInvalid
	}
	return id, nil
}
