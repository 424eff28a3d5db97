package identity

import (
	"context"
	"errors"
	"time"
)

// Claims is the decoded claim set of a verified ID token.
type Claims struct {
	Subject  string
	Email    string
	AuthTime time.Time
}

// Classified provider failures. Callers branch with errors.Is.
var (
	ErrInvalidToken       = errors.New("invalid id token")
	ErrExpiredToken       = errors.New("id token expired")
	ErrRevokedToken       = errors.New("id token revoked")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnavailable        = errors.New("identity provider unavailable")
	ErrTimeout            = errors.New("identity provider timeout")
)

// Provider is the external identity collaborator: token verification and
// remote account management.
type Provider interface {
	VerifyToken(ctx context.Context, idToken string) (*Claims, error)
	CreateAccount(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
}
