package main

import (
	"context"
	"log"
	"time"

	"github.com/felixojiambo/customer-order-system/controllers"
	"github.com/felixojiambo/customer-order-system/database"
	"github.com/felixojiambo/customer-order-system/identity"
	"github.com/felixojiambo/customer-order-system/logger"
	"github.com/felixojiambo/customer-order-system/middleware"
	"github.com/felixojiambo/customer-order-system/models"
	awspkg "github.com/felixojiambo/customer-order-system/pkg/aws"
	"github.com/felixojiambo/customer-order-system/repository"
	"github.com/felixojiambo/customer-order-system/routes"
	"github.com/felixojiambo/customer-order-system/sender"
	"github.com/felixojiambo/customer-order-system/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "customer-order-service"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	db, err := database.ConnectPostgres(logger.Log, cfg.DSN(), &models.User{}, &models.Order{})
	if err != nil {
		logger.Log.Fatal("Could not connect to PostgreSQL", zap.Error(err))
	}
	defer database.Close(db)

	// Collaborators
	firebase, err := identity.NewFirebaseClient()
	if err != nil {
		logger.Log.Fatal("Could not configure identity provider", zap.Error(err))
	}

	var sms sender.SMSSender
	if at, err := sender.NewAfricasTalkingSender(); err != nil {
		logger.Log.Warn("SMS alerts disabled", zap.Error(err))
	} else {
		sms = at
	}

	var events services.EventPublisher
	if cfg.SNSTopicARN != "" {
		awsCfg, err := awspkg.LoadAWSConfig(context.Background())
		if err != nil {
			logger.Log.Warn("Order events disabled", zap.Error(err))
		} else {
			events = awspkg.NewSNSClient(awsCfg)
		}
	}

	metricsClient, err := awspkg.NewMetricsClient(context.Background())
	if err != nil {
		logger.Log.Warn("CloudWatch metrics disabled", zap.Error(err))
	}

	// Repositories and services
	userRepo := repository.NewGormUserRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)

	userCodes := services.NewCodeGenerator(codeSource{users: userRepo, orders: orderRepo})
	authn := services.NewAuthenticator(firebase, userRepo)
	authService := services.NewAuthService(userRepo, firebase, userCodes, metricsClient, logger.Log)
	orderService := services.NewOrderService(orderRepo, userCodes, sms, events, cfg.SNSTopicARN, metricsClient, logger.Log)

	authController := controllers.NewAuthController(authService)
	orderController := controllers.NewOrderController(orderService)

	// Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middleware.RequestMetrics(metricsClient, serviceName))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.Register(r, authController, orderController, authn, logger.Log)

	logger.Log.Info("Server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Error starting server", zap.Error(err))
	}
}

// codeSource joins the two repositories into the single max-lookup interface
// the code generator consumes.
type codeSource struct {
	users  repository.UserRepository
	orders repository.OrderRepository
}

func (s codeSource) MaxCustomerCode(ctx context.Context) (string, error) {
	return s.users.MaxCustomerCode(ctx)
}

func (s codeSource) MaxOrderNumberInSecond(ctx context.Context, bucket time.Time) (string, error) {
	return s.orders.MaxOrderNumberInSecond(ctx, bucket)
}
