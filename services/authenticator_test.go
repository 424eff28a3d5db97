package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/felixojiambo/customer-order-system/identity"
	"github.com/felixojiambo/customer-order-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// --- Mocks for Dependencies ---

type MockVerifier struct{ mock.Mock }

func (m *MockVerifier) VerifyToken(ctx context.Context, idToken string) (*identity.Claims, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Claims), args.Error(1)
}

type MockSubjectStore struct{ mock.Mock }

func (m *MockSubjectStore) FindByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// --- Tests ---

func TestAuthenticate_NoHeader(t *testing.T) {
	authn := NewAuthenticator(new(MockVerifier), new(MockSubjectStore))

	_, _, err := authn.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	authn := NewAuthenticator(new(MockVerifier), new(MockSubjectStore))

	for _, header := range []string{"Bearer", "Bearer "} {
		_, _, err := authn.Authenticate(context.Background(), header)

		var authErr *AuthError
		assert.ErrorAs(t, err, &authErr, "header %q", header)
		assert.Equal(t, CauseMalformedHeader, authErr.Cause)
		assert.Equal(t, "Invalid token header. No token provided.", authErr.Message)
	}
}

func TestAuthenticate_VerifierFailures(t *testing.T) {
	cases := []struct {
		name      string
		verifyErr error
		wantCause AuthCause
	}{
		{"invalid", fmt.Errorf("%w: bad signature", identity.ErrInvalidToken), CauseInvalidToken},
		{"expired", fmt.Errorf("%w: exp in the past", identity.ErrExpiredToken), CauseExpiredToken},
		{"revoked", fmt.Errorf("%w: account disabled", identity.ErrRevokedToken), CauseRevokedToken},
		{"provider down", fmt.Errorf("%w: 503", identity.ErrUnavailable), CauseProviderError},
		{"timeout", fmt.Errorf("%w: deadline", identity.ErrTimeout), CauseProviderError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := new(MockVerifier)
			verifier.On("VerifyToken", mock.Anything, "some-token").Return(nil, tc.verifyErr).Once()

			authn := NewAuthenticator(verifier, new(MockSubjectStore))
			_, _, err := authn.Authenticate(context.Background(), "Bearer some-token")

			var authErr *AuthError
			assert.ErrorAs(t, err, &authErr)
			assert.Equal(t, tc.wantCause, authErr.Cause)
			verifier.AssertExpectations(t)
		})
	}
}

func TestAuthenticate_UnknownSubject(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("VerifyToken", mock.Anything, "valid-token").
		Return(&identity.Claims{Subject: "firebase-uid"}, nil).Once()

	store := new(MockSubjectStore)
	store.On("FindByUID", mock.Anything, "firebase-uid").Return(nil, gorm.ErrRecordNotFound).Once()

	authn := NewAuthenticator(verifier, store)
	_, _, err := authn.Authenticate(context.Background(), "Bearer valid-token")

	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, CauseUnknownSubject, authErr.Cause)
	store.AssertExpectations(t)
}

func TestAuthenticate_StoreError(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("VerifyToken", mock.Anything, "valid-token").
		Return(&identity.Claims{Subject: "firebase-uid"}, nil).Once()

	store := new(MockSubjectStore)
	store.On("FindByUID", mock.Anything, "firebase-uid").Return(nil, errors.New("db down")).Once()

	authn := NewAuthenticator(verifier, store)
	_, _, err := authn.Authenticate(context.Background(), "Bearer valid-token")

	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Equal(t, CauseProviderError, authErr.Cause)
}

func TestAuthenticate_Success(t *testing.T) {
	expected := &models.User{ID: uuid.New(), Username: "testuser", UID: "firebase-uid"}

	verifier := new(MockVerifier)
	verifier.On("VerifyToken", mock.Anything, "valid-token").
		Return(&identity.Claims{Subject: "firebase-uid"}, nil).Once()

	store := new(MockSubjectStore)
	store.On("FindByUID", mock.Anything, "firebase-uid").Return(expected, nil).Once()

	authn := NewAuthenticator(verifier, store)
	user, token, err := authn.Authenticate(context.Background(), "Bearer valid-token")

	assert.NoError(t, err)
	assert.Equal(t, expected, user)
	assert.Equal(t, "valid-token", token)
	verifier.AssertExpectations(t)
	store.AssertExpectations(t)
}
