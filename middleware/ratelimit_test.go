package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/felixojiambo/customer-order-system/middleware"
)

func setupRateLimitedRoute() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware())
	r.POST("/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func doLogin(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	t.Setenv("AUTH_RATE_PER_MINUTE", "60")
	t.Setenv("AUTH_RATE_BURST", "3")
	r := setupRateLimitedRoute()

	for i := 0; i < 3; i++ {
		w := doLogin(r, "10.0.0.1:4000")
		assert.Equal(t, http.StatusOK, w.Code, "request %d within burst", i+1)
	}

	w := doLogin(r, "10.0.0.1:4000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")
}

func TestRateLimit_IsolatesClients(t *testing.T) {
	t.Setenv("AUTH_RATE_PER_MINUTE", "60")
	t.Setenv("AUTH_RATE_BURST", "1")
	r := setupRateLimitedRoute()

	assert.Equal(t, http.StatusOK, doLogin(r, "10.0.0.1:4000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doLogin(r, "10.0.0.1:4000").Code)

	// A different address gets its own bucket.
	assert.Equal(t, http.StatusOK, doLogin(r, "10.0.0.2:4000").Code)
}

func TestRateLimit_DefaultsOnBadEnv(t *testing.T) {
	t.Setenv("AUTH_RATE_PER_MINUTE", "not-a-number")
	t.Setenv("AUTH_RATE_BURST", "-5")
	r := setupRateLimitedRoute()

	// Defaults allow a healthy burst, so a handful of requests all pass.
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doLogin(r, "10.0.0.3:4000").Code)
	}
}
