package routes

import (
	"net/http"

	"github.com/felixojiambo/customer-order-system/controllers"
	"github.com/felixojiambo/customer-order-system/middleware"
	"github.com/felixojiambo/customer-order-system/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Register wires the HTTP surface: public auth routes, the health check, and
// the token-protected order routes.
func Register(r *gin.Engine, ac *controllers.AuthController, oc *controllers.OrderController, authn *services.Authenticator, logger *zap.Logger) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRoutes := r.Group("/")
	authRoutes.Use(middleware.RateLimitMiddleware())
	authRoutes.POST("/register", ac.Register)
	authRoutes.POST("/login", ac.Login)

	orderRoutes := r.Group("/orders")
	orderRoutes.Use(middleware.FirebaseAuth(authn, logger))
	orderRoutes.GET("", oc.List)
	orderRoutes.POST("/create", oc.Create)
	orderRoutes.GET("/:id", oc.Get)
	orderRoutes.PUT("/:id", oc.Update)
	orderRoutes.DELETE("/:id", oc.Delete)
}
