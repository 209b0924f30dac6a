package payment

import (
	"time"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/plan"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/subscription"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Payment struct {
	ID               int       `db:"id" json:"id"`
	SubscriptionID   int       `db:"subscription_id" json:"subscription_id"`
	AmountCents      int64     `db:"amount_cents" json:"amount_cents"`
	Currency         string    `db:"currency" json:"currency"`
	GatewayOrderID   string    `db:"gateway_order_id" json:"gateway_order_id"`
	GatewayPaymentID *string   `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	GatewaySignature *string   `db:"gateway_signature" json:"-"`
	Status           Status    `db:"status" json:"status"`
	SettlementID     *int      `db:"settlement_id" json:"settlement_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Detail is the payment joined with the subscription and plan fields the
// callback path needs in one read.
type Detail struct {
	Payment
	SubscriptionStatus subscription.Status `db:"subscription_status"`
	UserID             int                 `db:"user_id"`
	GymID              int                 `db:"gym_id"`
	DurationValue      int                 `db:"duration_value"`
	DurationUnit       plan.DurationUnit   `db:"duration_unit"`
}

type CallbackRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	GatewaySignature string `json:"gateway_signature" binding:"required"`
}
