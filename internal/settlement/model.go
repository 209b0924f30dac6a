package settlement

import (
	"time"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/payment"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
)

type Settlement struct {
	ID            int       `db:"id" json:"id"`
	GymID         int       `db:"gym_id" json:"gym_id"`
	AmountCents   int64     `db:"amount_cents" json:"amount_cents"`
	Status        Status    `db:"status" json:"status"`
	TransactionID *string   `db:"transaction_id" json:"transaction_id,omitempty"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// UnsettledSummary describes what a settlement for the gym would capture
// right now, without capturing it.
type UnsettledSummary struct {
	GymID       int               `json:"gym_id"`
	AmountCents int64             `json:"amount_cents"`
	Count       int               `json:"count"`
	Payments    []payment.Payment `json:"payments"`
}

type ProcessRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Notes         string `json:"notes"`
}
