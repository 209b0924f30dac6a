package plan

import "time"

type DurationUnit string

const (
	UnitDay   DurationUnit = "day"
	UnitWeek  DurationUnit = "week"
	UnitMonth DurationUnit = "month"
	UnitYear  DurationUnit = "year"
)

type Plan struct {
	ID            int          `db:"id" json:"id"`
	GymID         int          `db:"gym_id" json:"gym_id"`
	Name          string       `db:"name" json:"name"`
	PriceCents    int64        `db:"price_cents" json:"price_cents"`
	Currency      string       `db:"currency" json:"currency"`
	DurationValue int          `db:"duration_value" json:"duration_value"`
	DurationUnit  DurationUnit `db:"duration_unit" json:"duration_unit"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}
