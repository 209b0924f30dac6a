package subscription

import "context"

type Repository interface {
	CreatePending(ctx context.Context, userID, gymID, planID int, accessCode string, source Source) (*Subscription, error)
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*Subscription, error)
	GetByAccessCode(ctx context.Context, accessCode string) (*Subscription, error)
	ListByUser(ctx context.Context, userID int) ([]Subscription, error)
}
