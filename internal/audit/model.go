package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable fact about an action taken by an actor on an entity.
// ID is assigned at enqueue time so the at-least-once pipeline can dedupe
// on insert.
type Event struct {
	ID       string                 `json:"id"`
	Action   string                 `json:"action"`
	Entity   string                 `json:"entity"`
	EntityID string                 `json:"entity_id"`
	ActorID  int                    `json:"actor_id"`
	GymID    *int                   `json:"gym_id,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Tries    int                    `json:"tries"`
	Created  time.Time              `json:"created"`
}

func NewEvent(action, entity, entityID string, actorID int) Event {
	return Event{
		ID:       uuid.NewString(),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		ActorID:  actorID,
		Created:  time.Now(),
	}
}

func (e Event) WithGym(gymID int) Event {
	e.GymID = &gymID
	return e
}

func (e Event) WithDetails(details map[string]interface{}) Event {
	e.Details = details
	return e
}
