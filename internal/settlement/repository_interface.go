package settlement

import "context"

type Repository interface {
	Create(ctx context.Context, gymID int) (*Settlement, error)
	GetUnsettledAmount(ctx context.Context, gymID int) (*UnsettledSummary, error)
	GetByID(ctx context.Context, id int) (*Settlement, error)
	Process(ctx context.Context, id int, transactionID, notes string) (*Settlement, error)
	List(ctx context.Context, gymID int, status Status) ([]Settlement, error)
}
