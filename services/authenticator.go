package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixojiambo/customer-order-system/identity"
	"github.com/felixojiambo/customer-order-system/models"

	"gorm.io/gorm"
)

// ErrNoCredential is returned when the request carries no Authorization
// header. It is not a failure; anonymous-permitted endpoints proceed without
// an identity.
var ErrNoCredential = errors.New("no credential provided")

// AuthCause classifies why an authentication attempt failed. The cause is
// kept for logging; every cause maps to the same HTTP-level rejection.
type AuthCause int

const (
	CauseMalformedHeader AuthCause = iota
	CauseInvalidToken
	CauseExpiredToken
	CauseRevokedToken
	CauseUnknownSubject
	CauseProviderError
)

func (c AuthCause) String() string {
	switch c {
	case CauseMalformedHeader:
		return "malformed_header"
	case CauseInvalidToken:
		return "invalid_token"
	case CauseExpiredToken:
		return "expired_token"
	case CauseRevokedToken:
		return "revoked_token"
	case CauseUnknownSubject:
		return "unknown_subject"
	case CauseProviderError:
		return "provider_error"
	}
	return "unknown"
}

// AuthError is a classified authentication failure.
type AuthError struct {
	Cause   AuthCause
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// TokenVerifier is the slice of the identity provider the authenticator needs.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (*identity.Claims, error)
}

// SubjectStore resolves provider subject ids to local users.
type SubjectStore interface {
	FindByUID(ctx context.Context, uid string) (*models.User, error)
}

// Authenticator resolves a request's acting identity from a bearer token. It
// holds no state across requests; each call performs the full chain of header
// parsing, external verification and local subject lookup.
type Authenticator struct {
	verifier TokenVerifier
	users    SubjectStore
}

func NewAuthenticator(verifier TokenVerifier, users SubjectStore) *Authenticator {
	return &Authenticator{verifier: verifier, users: users}
}

// Authenticate returns the authenticated user and the raw token, or
// ErrNoCredential when the header is absent, or an *AuthError describing the
// failure.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*models.User, string, error) {
	if header == "" {
		return nil, "", ErrNoCredential
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) < 2 || parts[1] == "" {
		return nil, "", &AuthError{
			Cause:   CauseMalformedHeader,
			Message: "Invalid token header. No token provided.",
		}
	}
	token := parts[1]

	claims, err := a.verifier.VerifyToken(ctx, token)
	if err != nil {
		return nil, "", &AuthError{
			Cause:   classifyVerifyError(err),
			Message: "Authentication failed.",
			Err:     err,
		}
	}

	user, err := a.users.FindByUID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", &AuthError{
				Cause:   CauseUnknownSubject,
				Message: "Authentication failed.",
				Err:     err,
			}
		}
		return nil, "", &AuthError{
			Cause:   CauseProviderError,
			Message: "Authentication failed.",
			Err:     err,
		}
	}

	return user, token, nil
}

func classifyVerifyError(err error) AuthCause {
	switch {
	case errors.Is(err, identity.ErrExpiredToken):
		return CauseExpiredToken
	case errors.Is(err, identity.ErrRevokedToken):
		return CauseRevokedToken
	case errors.Is(err, identity.ErrInvalidToken):
		return CauseInvalidToken
	default:
		return CauseProviderError
	}
}
