package audit

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
)

type Repo struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Insert persists one audit event. The pipeline delivers at least once, so a
// replayed event id is silently dropped rather than duplicated.
func (r *Repo) Insert(ctx context.Context, e Event) error {
	details := e.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, action, entity, entity_id, actor_id, gym_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, e.ID, e.Action, e.Entity, e.EntityID, e.ActorID, e.GymID, payload, e.Created)

	return err
}
