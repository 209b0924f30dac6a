package gym

import "context"

type Repository interface {
	Create(ctx context.Context, name, location string, ownerID int) (*Gym, error)
	GetByID(ctx context.Context, id int) (*Gym, error)
	GetAll(ctx context.Context) ([]Gym, error)
	OwnsGym(ctx context.Context, userID, gymID int) (bool, error)
}
