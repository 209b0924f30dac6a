package payment

import (
	"context"
	"time"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/subscription"
)

type Repository interface {
	CreatePending(ctx context.Context, subscriptionID int, amountCents int64, currency, gatewayOrderID string) error
	GetByOrderID(ctx context.Context, gatewayOrderID string) (*Detail, error)
	MarkFailed(ctx context.Context, paymentID int, gatewayPaymentID, signature string) error
	CompleteAndActivate(ctx context.Context, paymentID, subscriptionID int, gatewayPaymentID, signature string, startDate, endDate time.Time) (*subscription.Subscription, error)
}
