package middleware

import (
	"errors"
	"net/http"

	"github.com/felixojiambo/customer-order-system/models"
	"github.com/felixojiambo/customer-order-system/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const UserContextKey = "authUser"

// FirebaseAuth authenticates the request's bearer token and stores the
// resolved user in the gin context. Every failure, including a missing
// header, is rejected with 401; the classified cause goes to the log only.
func FirebaseAuth(authn *services.Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _, err := authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, services.ErrNoCredential) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
				return
			}

			var authErr *services.AuthError
			if errors.As(err, &authErr) {
				logger.Warn("Authentication failed",
					zap.String("cause", authErr.Cause.String()),
					zap.String("path", c.Request.URL.Path),
					zap.Error(authErr),
				)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authErr.Message})
				return
			}

			logger.Error("Authentication error", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed."})
			return
		}

		c.Set(UserContextKey, user)
		c.Next()
	}
}

// GetUser returns the authenticated user stored by FirebaseAuth.
func GetUser(c *gin.Context) (*models.User, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if user, ok := val.(*models.User); ok && user != nil {
			return user, nil
		}
	}
	return nil, errors.New("user not found in context")
}
