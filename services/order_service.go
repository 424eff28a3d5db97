package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixojiambo/customer-order-system/apperrors"
	"github.com/felixojiambo/customer-order-system/models"
	awspkg "github.com/felixojiambo/customer-order-system/pkg/aws"
	"github.com/felixojiambo/customer-order-system/repository"
	"github.com/felixojiambo/customer-order-system/sender"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultAlertTimeout = 10 * time.Second

type CreateOrderRequest struct {
	Item   string          `json:"item" binding:"required,min=2"`
	Amount decimal.Decimal `json:"amount"`
}

type UpdateOrderRequest struct {
	Item   *string             `json:"item"`
	Amount *decimal.Decimal    `json:"amount"`
	Status *models.OrderStatus `json:"status"`
}

type OrderListResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderCreatedEvent is the payload published to the order events topic.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	Item        string          `json:"item"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
}

// EventPublisher publishes order events to a topic, best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

// ValidateAmount rejects amounts that are not strictly positive.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.Validation("Amount must be greater than zero.")
	}
	return nil
}

// OrderService handles order CRUD. Order numbers are generated explicitly
// before persistence; SMS alerts and event publishing are best-effort and
// never fail the originating request.
type OrderService struct {
	orders       repository.OrderRepository
	codes        *CodeGenerator
	sms          sender.SMSSender
	events       EventPublisher
	eventsTopic  string
	alertTimeout time.Duration
	metrics      *awspkg.MetricsClient
	logger       *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, codes *CodeGenerator, sms sender.SMSSender, events EventPublisher, eventsTopic string, metrics *awspkg.MetricsClient, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:       orders,
		codes:        codes,
		sms:          sms,
		events:       events,
		eventsTopic:  eventsTopic,
		alertTimeout: defaultAlertTimeout,
		metrics:      metrics,
		logger:       logger,
	}
}

func (s *OrderService) recordMetric(name string) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.RecordCount(ctx, name, map[string]string{"Service": "order-service"})
	}()
}

// Create validates the request, generates an order number and persists the
// order. A generated number that loses the same-second race is regenerated
// and retried. On success an SMS alert and an order-created event go out
// best-effort.
func (s *OrderService) Create(ctx context.Context, user *models.User, req *CreateOrderRequest) (*models.Order, error) {
	if err := ValidateAmount(req.Amount); err != nil {
		return nil, err
	}

	var order *models.Order
	for attempt := 1; ; attempt++ {
		code, err := s.codes.OrderCode(ctx, req.Item)
		if err != nil {
			var appErr *apperrors.Error
			if errors.As(err, &appErr) {
				return nil, appErr
			}
			return nil, apperrors.New(http.StatusInternalServerError, "Failed to generate order number.", err)
		}

		order = &models.Order{
			ID:          uuid.New(),
			OrderNumber: code,
			UserID:      user.ID,
			Item:        req.Item,
			Amount:      req.Amount.Round(2),
			Status:      models.OrderStatusPending,
		}

		err = s.orders.Create(ctx, order)
		if err == nil {
			break
		}

		if _, ok := repository.UniqueViolation(err); ok {
			if attempt < maxCodeAttempts {
				s.logger.Warn("Order number collision, regenerating",
					zap.String("order_number", code),
					zap.Int("attempt", attempt),
				)
				continue
			}
			return nil, apperrors.Duplicate("Could not allocate a unique order number.")
		}

		return nil, apperrors.New(http.StatusInternalServerError, "Failed to create order.", err)
	}

	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", user.ID.String()),
	)
	s.recordMetric(awspkg.MetricOrdersCreated)

	s.sendAlert(user, order)
	s.publishEvent(order)

	return order, nil
}

// sendAlert notifies the customer over SMS. Failures are logged only.
func (s *OrderService) sendAlert(user *models.User, order *models.Order) {
	if s.sms == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.alertTimeout)
	defer cancel()

	msg := fmt.Sprintf("Dear %s, your order #%s for %s amounting to %s has been received.",
		user.Username, order.OrderNumber, order.Item, order.Amount.StringFixed(2))

	result, err := s.sms.SendSMS(ctx, user.PhoneNumber, msg)
	if err != nil {
		s.logger.Error("SMS alert failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		s.recordMetric(awspkg.MetricSMSFailures)
		return
	}

	s.logger.Info("SMS alert sent",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", result.Status),
		zap.String("cost", result.Cost),
	)
	s.recordMetric(awspkg.MetricSMSAlerts)
}

// publishEvent emits the order-created event with its own deadline, detached
// from the request context. Failures are logged only.
func (s *OrderService) publishEvent(order *models.Order) {
	if s.events == nil || s.eventsTopic == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.alertTimeout)
	defer cancel()

	event := OrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Item:        order.Item,
		Amount:      order.Amount,
		Timestamp:   time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal order event", zap.Error(err))
		return
	}

	if err := s.events.Publish(ctx, s.eventsTopic, payload); err != nil {
		s.logger.Error("Order event publish failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}
}

// ListForUser retrieves paginated orders for a user
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderListResponse, error) {
	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperrors.New(http.StatusInternalServerError, "Failed to fetch orders.", err)
	}

	return &OrderListResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

// GetByID retrieves a specific order owned by the user
func (s *OrderService) GetByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(http.StatusNotFound, "Order not found.", err)
		}
		return nil, apperrors.New(http.StatusInternalServerError, "Failed to fetch order.", err)
	}
	return order, nil
}

// Update applies a partial update to an order owned by the user. The order
// number is never touched.
func (s *OrderService) Update(ctx context.Context, userID, orderID uuid.UUID, req *UpdateOrderRequest) (*models.Order, error) {
	order, err := s.GetByID(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if req.Item != nil {
		if len([]rune(*req.Item)) < 2 {
			return nil, apperrors.Validation("Item must be at least 2 characters.")
		}
		order.Item = *req.Item
	}
	if req.Amount != nil {
		if err := ValidateAmount(*req.Amount); err != nil {
			return nil, err
		}
		order.Amount = req.Amount.Round(2)
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.Validation("Invalid order status.")
		}
		order.Status = *req.Status
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apperrors.New(http.StatusInternalServerError, "Failed to update order.", err)
	}
	return order, nil
}

// Delete removes an order owned by the user
func (s *OrderService) Delete(ctx context.Context, userID, orderID uuid.UUID) error {
	if err := s.orders.Delete(ctx, orderID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(http.StatusNotFound, "Order not found.", err)
		}
		return apperrors.New(http.StatusInternalServerError, "Failed to delete order.", err)
	}
	return nil
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
