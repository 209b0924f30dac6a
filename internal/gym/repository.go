package gym

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrGymNotFound = errors.New("gym not found")

type Repo struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, name, location string, ownerID int) (*Gym, error) {
	g := &Gym{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO gyms (name, location, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, location, owner_id, created_at
	`, name, location, ownerID).StructScan(g)
	return g, err
}

func (r *Repo) GetByID(ctx context.Context, id int) (*Gym, error) {
	g := &Gym{}
	err := r.db.GetContext(ctx, g, `
		SELECT id, name, location, owner_id, created_at
		FROM gyms
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGymNotFound
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Repo) GetAll(ctx context.Context) ([]Gym, error) {
	gyms := []Gym{}
	err := r.db.SelectContext(ctx, &gyms, `
		SELECT id, name, location, owner_id, created_at
		FROM gyms
		ORDER BY name ASC
	`)
	return gyms, err
}

// OwnsGym reports whether userID owns the gym. The settlement routes use it
// to scope owners to their own gym.
func (r *Repo) OwnsGym(ctx context.Context, userID, gymID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM gyms WHERE id = $1 AND owner_id = $2)
	`, gymID, userID)
	return exists, err
}
