package subscription

import "time"

type Status string
type Source string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"

	// SourceApp marks gateway-collected subscriptions; only these are
	// eligible for settlement batching. SourceManual covers cash or
	// staff-recorded memberships.
	SourceApp    Source = "app"
	SourceManual Source = "manual"
)

type Subscription struct {
	ID         int       `db:"id" json:"id"`
	UserID     int       `db:"user_id" json:"user_id"`
	GymID      int       `db:"gym_id" json:"gym_id"`
	PlanID     int       `db:"plan_id" json:"plan_id"`
	Status     Status    `db:"status" json:"status"`
	Source     Source    `db:"source" json:"source"`
	AccessCode string    `db:"access_code" json:"access_code"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

type CreateSubscriptionRequest struct {
	PlanID int `json:"plan_id" binding:"required"`
	GymID  int `json:"gym_id" binding:"required"`
}

// CheckoutPayload prefills the gateway payment form on the client. The notes
// map travels with the gateway order and comes back on the callback, which is
// how a payment is correlated with its subscription.
type CheckoutPayload struct {
	Name     string            `json:"name"`
	Contact  string            `json:"contact"`
	PlanName string            `json:"plan_name"`
	GymName  string            `json:"gym_name"`
	Notes    map[string]string `json:"notes"`
}
