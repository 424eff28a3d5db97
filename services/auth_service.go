package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/felixojiambo/customer-order-system/apperrors"
	"github.com/felixojiambo/customer-order-system/identity"
	"github.com/felixojiambo/customer-order-system/models"
	awspkg "github.com/felixojiambo/customer-order-system/pkg/aws"
	"github.com/felixojiambo/customer-order-system/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// maxCodeAttempts bounds the regenerate-and-reinsert loop when a generated
// code loses the max-lookup race and hits the unique index.
const maxCodeAttempts = 3

type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phone_number" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthService handles registration and login. Identity lives in Firebase;
// the local record carries the subject id and the generated customer code.
type AuthService struct {
	users    repository.UserRepository
	provider identity.Provider
	codes    *CodeGenerator
	metrics  *awspkg.MetricsClient
	logger   *zap.Logger
}

func NewAuthService(users repository.UserRepository, provider identity.Provider, codes *CodeGenerator, metrics *awspkg.MetricsClient, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, provider: provider, codes: codes, metrics: metrics, logger: logger}
}

// Register creates the remote account first, then persists the local user
// with a freshly generated customer code. A duplicate customer code is
// retried with a new code; duplicates on email, username or phone surface to
// the caller.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	uid, err := s.provider.CreateAccount(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			return nil, apperrors.Duplicate("A user with this email already exists.")
		}
		s.logger.Error("Remote account creation failed", zap.String("email", req.Email), zap.Error(err))
		return nil, apperrors.New(http.StatusBadRequest, "An error occurred during registration.", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.New(http.StatusInternalServerError, "Failed to process registration.", err)
	}

	for attempt := 1; ; attempt++ {
		code, err := s.codes.CustomerCode(ctx)
		if err != nil {
			return nil, apperrors.New(http.StatusInternalServerError, "Failed to generate customer code.", err)
		}

		user := &models.User{
			ID:           uuid.New(),
			Username:     req.Username,
			Email:        req.Email,
			Password:     string(hashed),
			PhoneNumber:  req.PhoneNumber,
			UID:          uid,
			CustomerCode: code,
		}

		err = s.users.Create(ctx, user)
		if err == nil {
			s.logger.Info("User registered",
				zap.String("email", user.Email),
				zap.String("customer_code", user.CustomerCode),
			)
			if s.metrics != nil && s.metrics.IsEnabled() {
				go func() {
					mctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = s.metrics.RecordCount(mctx, awspkg.MetricUsersCreated, map[string]string{"Service": "auth-service"})
				}()
			}
			return user, nil
		}

		if constraint, ok := repository.UniqueViolation(err); ok {
			if strings.Contains(constraint, "customer_code") && attempt < maxCodeAttempts {
				s.logger.Warn("Customer code collision, regenerating",
					zap.String("customer_code", code),
					zap.Int("attempt", attempt),
				)
				continue
			}
			return nil, apperrors.Duplicate("A user with these details already exists.")
		}

		return nil, apperrors.New(http.StatusInternalServerError, "Failed to create account.", err)
	}
}

// Login delegates credential verification to the identity provider and
// returns its ID token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	token, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrRevokedToken) {
			s.logger.Warn("Login failed", zap.String("email", email), zap.Error(err))
			return "", apperrors.New(http.StatusUnauthorized, "Invalid email or password.", err)
		}
		s.logger.Error("Login request failed", zap.String("email", email), zap.Error(err))
		return "", apperrors.New(http.StatusInternalServerError, "An error occurred while attempting to login.", err)
	}

	s.logger.Info("User logged in", zap.String("email", email))
	return token, nil
}
