package plan

import "context"

type Repository interface {
	GetByID(ctx context.Context, id int) (*Plan, error)
	ListByGym(ctx context.Context, gymID int) ([]Plan, error)
}
