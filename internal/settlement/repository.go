package settlement

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/payment"
)

var (
	ErrSettlementNotFound   = errors.New("settlement not found")
	ErrAlreadyProcessed     = errors.New("settlement already processed")
	ErrNoUnsettledPayments  = errors.New("no unsettled payments for gym")
	ErrConcurrentSettlement = errors.New("payments were settled concurrently")
)

// Only app-sourced subscriptions flow through the gateway, so only their
// payments carry money the platform owes the gym. Manual subscriptions are
// cash at the desk and never enter a settlement.
const unsettledFilter = `
	FROM payments p
	JOIN subscriptions s ON s.id = p.subscription_id
	WHERE s.gym_id = $1
	  AND s.source = 'app'
	  AND p.status = 'completed'
	  AND p.settlement_id IS NULL
`

type Repo struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Create captures every currently unsettled completed payment for the gym
// into a new PENDING settlement, in one transaction. The candidate rows are
// locked FOR UPDATE and the stamping update is conditional on
// settlement_id IS NULL with an affected-rows check, so a payment can never
// land in two settlements.
func (r *Repo) Create(ctx context.Context, gymID int) (*Settlement, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var candidates []payment.Payment
	err = tx.SelectContext(ctx, &candidates, `
		SELECT p.id, p.subscription_id, p.amount_cents, p.currency, p.gateway_order_id,
		       p.gateway_payment_id, p.gateway_signature, p.status, p.settlement_id,
		       p.created_at, p.updated_at
		`+unsettledFilter+`
		FOR UPDATE OF p
	`, gymID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoUnsettledPayments
	}

	var total int64
	ids := make([]int, 0, len(candidates))
	for _, p := range candidates {
		total += p.AmountCents
		ids = append(ids, p.ID)
	}

	s := &Settlement{}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO settlements (gym_id, amount_cents, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, gym_id, amount_cents, status, transaction_id, notes, created_at, updated_at
	`, gymID, total).StructScan(s)
	if err != nil {
		return nil, err
	}

	query, args, err := sqlx.In(`
		UPDATE payments
		SET settlement_id = ?, updated_at = NOW()
		WHERE id IN (?) AND settlement_id IS NULL
	`, s.ID, ids)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected != int64(len(ids)) {
		return nil, ErrConcurrentSettlement
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s, nil
}

// GetUnsettledAmount is the read-only preview of Create.
func (r *Repo) GetUnsettledAmount(ctx context.Context, gymID int) (*UnsettledSummary, error) {
	summary := &UnsettledSummary{GymID: gymID, Payments: []payment.Payment{}}

	err := r.db.SelectContext(ctx, &summary.Payments, `
		SELECT p.id, p.subscription_id, p.amount_cents, p.currency, p.gateway_order_id,
		       p.gateway_payment_id, p.gateway_signature, p.status, p.settlement_id,
		       p.created_at, p.updated_at
		`+unsettledFilter+`
		ORDER BY p.created_at
	`, gymID)
	if err != nil {
		return nil, err
	}

	summary.Count = len(summary.Payments)
	for _, p := range summary.Payments {
		summary.AmountCents += p.AmountCents
	}
	return summary, nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (*Settlement, error) {
	s := &Settlement{}
	err := r.db.GetContext(ctx, s, `
		SELECT id, gym_id, amount_cents, status, transaction_id, notes, created_at, updated_at
		FROM settlements
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Process marks a PENDING settlement PROCESSED with the payout reference.
// Conditional on the pending status so a second Process of the same
// settlement is rejected rather than silently overwriting the reference.
func (r *Repo) Process(ctx context.Context, id int, transactionID, notes string) (*Settlement, error) {
	s := &Settlement{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE settlements
		SET status = 'processed', transaction_id = $2, notes = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, gym_id, amount_cents, status, transaction_id, notes, created_at, updated_at
	`, id, transactionID, notes).StructScan(s)
	if errors.Is(err, sql.ErrNoRows) {
		// distinguish missing from already-processed
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrAlreadyProcessed
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns settlements newest first, optionally filtered by gym and
// status. Zero gymID / empty status mean no filter.
func (r *Repo) List(ctx context.Context, gymID int, status Status) ([]Settlement, error) {
	query := `
		SELECT id, gym_id, amount_cents, status, transaction_id, notes, created_at, updated_at
		FROM settlements
		WHERE ($1 = 0 OR gym_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`

	settlements := []Settlement{}
	if err := r.db.SelectContext(ctx, &settlements, query, gymID, string(status)); err != nil {
		return nil, err
	}
	return settlements, nil
}
