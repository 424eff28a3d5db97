package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/felixojiambo/customer-order-system/middleware"
	"github.com/felixojiambo/customer-order-system/models"
	"github.com/felixojiambo/customer-order-system/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderService is the slice of the order service the controller uses.
type OrderService interface {
	Create(ctx context.Context, user *models.User, req *services.CreateOrderRequest) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page, limit int) (*services.OrderListResponse, error)
	GetByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, userID, orderID uuid.UUID, req *services.UpdateOrderRequest) (*models.Order, error)
	Delete(ctx context.Context, userID, orderID uuid.UUID) error
}

type OrderController struct {
	orders OrderService
}

func NewOrderController(orders OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Create handles order creation requests
func (oc *OrderController) Create(ctx *gin.Context) {
	user, err := middleware.GetUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, err := oc.orders.Create(ctx.Request.Context(), user, &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"order": order})
}

// List returns paginated orders for the authenticated user
func (oc *OrderController) List(ctx *gin.Context) {
	user, err := middleware.GetUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(ctx)

	result, err := oc.orders.ListForUser(ctx.Request.Context(), user.ID, page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// Get returns a specific order for the authenticated user
func (oc *OrderController) Get(ctx *gin.Context) {
	user, err := middleware.GetUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return
	}

	order, svcErr := oc.orders.GetByID(ctx.Request.Context(), user.ID, orderID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// Update applies a partial update to the authenticated user's order
func (oc *OrderController) Update(ctx *gin.Context) {
	user, err := middleware.GetUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return
	}

	var req services.UpdateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orders.Update(ctx.Request.Context(), user.ID, orderID, &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// Delete removes the authenticated user's order
func (oc *OrderController) Delete(ctx *gin.Context) {
	user, err := middleware.GetUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return
	}

	if err := oc.orders.Delete(ctx.Request.Context(), user.ID, orderID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

// parsePaginationParams extracts and validates pagination parameters
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxPage = 1000000
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 10

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		pageInt = p
		if pageInt > MaxPage {
			pageInt = MaxPage
		}
	}

	if l, err := strconv.Atoi(ctx.DefaultQuery("limit", "10")); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}

	return pageInt, limitInt
}
