package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixojiambo/customer-order-system/apperrors"
	"github.com/felixojiambo/customer-order-system/controllers"
	"github.com/felixojiambo/customer-order-system/models"
	"github.com/felixojiambo/customer-order-system/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// ---- concrete mock implementing controllers.AuthService ----

type mockAuthSvc struct {
	user     *models.User
	regErr   error
	token    string
	loginErr error
}

func (m *mockAuthSvc) Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error) {
	if m.regErr != nil {
		return nil, m.regErr
	}
	return m.user, nil
}
func (m *mockAuthSvc) Login(ctx context.Context, email, password string) (string, error) {
	if m.loginErr != nil {
		return "", m.loginErr
	}
	return m.token, nil
}

func setupAuthRouter(svc controllers.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	c := controllers.NewAuthController(svc)

	r.POST("/register", c.Register)
	r.POST("/login", c.Login)
	return r
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_Created(t *testing.T) {
	svc := &mockAuthSvc{
		user: &models.User{
			ID:           uuid.New(),
			UID:          "firebase-uid",
			Email:        "alice@example.com",
			CustomerCode: "CUST2024110215040501",
		},
	}
	r := setupAuthRouter(svc)

	w := postJSON(r, "/register", map[string]string{
		"username":     "alice",
		"email":        "alice@example.com",
		"password":     "secret123",
		"phone_number": "+254711000111",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "firebase-uid", resp["uid"])
	assert.Equal(t, "CUST2024110215040501", resp["customer_code"])
}

func TestRegister_MissingFields(t *testing.T) {
	r := setupAuthRouter(&mockAuthSvc{})

	w := postJSON(r, "/register", map[string]string{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_InvalidEmail(t *testing.T) {
	r := setupAuthRouter(&mockAuthSvc{})

	w := postJSON(r, "/register", map[string]string{
		"username":     "alice",
		"email":        "not-an-email",
		"password":     "secret123",
		"phone_number": "+254711000111",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := &mockAuthSvc{regErr: apperrors.Duplicate("A user with this email already exists.")}
	r := setupAuthRouter(svc)

	w := postJSON(r, "/register", map[string]string{
		"username":     "alice",
		"email":        "alice@example.com",
		"password":     "secret123",
		"phone_number": "+254711000111",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "A user with this email already exists.", resp["error"])
}

func TestLogin_OK(t *testing.T) {
	svc := &mockAuthSvc{token: "fake-id-token"}
	r := setupAuthRouter(svc)

	w := postJSON(r, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "fake-id-token", resp["token"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &mockAuthSvc{loginErr: apperrors.New(http.StatusUnauthorized, "Invalid email or password.", nil)}
	r := setupAuthRouter(svc)

	w := postJSON(r, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_BadJSON(t *testing.T) {
	r := setupAuthRouter(&mockAuthSvc{})

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte("not-json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
