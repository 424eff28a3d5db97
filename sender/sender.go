package sender

import (
	"context"
)

// SendResult carries the delivery status and cost reported by the gateway.
type SendResult struct {
	Status string
	Cost   string
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, msg string) (SendResult, error)
}
