package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type Repo struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// CreatePending inserts a subscription awaiting payment. Start and end dates
// are placeholders; activation stamps the real window.
func (r *Repo) CreatePending(ctx context.Context, userID, gymID, planID int, accessCode string, source Source) (*Subscription, error) {
	now := time.Now()

	sub := &Subscription{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO subscriptions (user_id, gym_id, plan_id, status, source, access_code, start_date, end_date)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6, $6)
		RETURNING id, user_id, gym_id, plan_id, status, source, access_code, start_date, end_date, created_at, updated_at
	`, userID, gymID, planID, source, accessCode, now).StructScan(sub)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// Delete is the compensating action for a failed gateway order creation.
// Only a still-pending subscription may be removed.
func (r *Repo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM subscriptions
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.GetContext(ctx, sub, `
		SELECT id, user_id, gym_id, plan_id, status, source, access_code, start_date, end_date, created_at, updated_at
		FROM subscriptions
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *Repo) GetByAccessCode(ctx context.Context, accessCode string) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.GetContext(ctx, sub, `
		SELECT id, user_id, gym_id, plan_id, status, source, access_code, start_date, end_date, created_at, updated_at
		FROM subscriptions
		WHERE access_code = $1
	`, accessCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID int) ([]Subscription, error) {
	subs := []Subscription{}
	err := r.db.SelectContext(ctx, &subs, `
		SELECT id, user_id, gym_id, plan_id, status, source, access_code, start_date, end_date, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return subs, err
}
