package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/subscription"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAlreadyCompleted = errors.New("payment already completed")
)

type Repo struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// CreatePending satisfies subscription.PaymentCreator.
func (r *Repo) CreatePending(ctx context.Context, subscriptionID int, amountCents int64, currency, gatewayOrderID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (subscription_id, amount_cents, currency, gateway_order_id, status)
		VALUES ($1, $2, $3, $4, 'pending')
	`, subscriptionID, amountCents, currency, gatewayOrderID)
	return err
}

func (r *Repo) GetByOrderID(ctx context.Context, gatewayOrderID string) (*Detail, error) {
	d := &Detail{}
	err := r.db.GetContext(ctx, d, `
		SELECT p.id, p.subscription_id, p.amount_cents, p.currency, p.gateway_order_id,
		       p.gateway_payment_id, p.gateway_signature, p.status, p.settlement_id,
		       p.created_at, p.updated_at,
		       s.status AS subscription_status, s.user_id, s.gym_id,
		       pl.duration_value, pl.duration_unit
		FROM payments p
		JOIN subscriptions s ON s.id = p.subscription_id
		JOIN plans pl ON pl.id = s.plan_id
		WHERE p.gateway_order_id = $1
	`, gatewayOrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// MarkFailed records a terminal verification failure. Conditional on the
// pending status so a completed payment can never regress.
func (r *Repo) MarkFailed(ctx context.Context, paymentID int, gatewayPaymentID, signature string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'failed', gateway_payment_id = $2, gateway_signature = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, paymentID, gatewayPaymentID, signature)
	return err
}

// CompleteAndActivate performs the financial transition: the payment becomes
// COMPLETED and the subscription ACTIVE with its real validity window, in one
// transaction. The payment update is conditional on the pending status and
// the affected-row count is checked inside the transaction, so of two racing
// callbacks for the same order exactly one wins; the loser gets
// ErrAlreadyCompleted and nothing is written.
func (r *Repo) CompleteAndActivate(
	ctx context.Context,
	paymentID, subscriptionID int,
	gatewayPaymentID, signature string,
	startDate, endDate time.Time,
) (*subscription.Subscription, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = 'completed', gateway_payment_id = $2, gateway_signature = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, paymentID, gatewayPaymentID, signature)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrAlreadyCompleted
	}

	sub := &subscription.Subscription{}
	err = tx.QueryRowxContext(ctx, `
		UPDATE subscriptions
		SET status = 'active', start_date = $2, end_date = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, gym_id, plan_id, status, source, access_code, start_date, end_date, created_at, updated_at
	`, subscriptionID, startDate, endDate).StructScan(sub)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return sub, nil
}
