package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/felixojiambo/customer-order-system/apperrors"
	"github.com/felixojiambo/customer-order-system/models"
	"github.com/felixojiambo/customer-order-system/services"

	"github.com/gin-gonic/gin"
)

// AuthService is the slice of the auth service the controller uses.
type AuthService interface {
	Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthController struct {
	auth AuthService
}

func NewAuthController(auth AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register handles user registration requests
func (ac *AuthController) Register(ctx *gin.Context) {
	var req services.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, err := ac.auth.Register(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"uid":           user.UID,
		"email":         user.Email,
		"customer_code": user.CustomerCode,
	})
}

// Login handles login requests
func (ac *AuthController) Login(ctx *gin.Context) {
	var req services.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
		return
	}

	token, err := ac.auth.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// respondError maps application errors onto HTTP responses.
func respondError(ctx *gin.Context, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		ctx.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
