package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Session holds per-visitor state keyed by the session cookie. Values is a
// JSON object of integer counters.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s" tstype:"-"`

	ID        string    `bun:",pk" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Values    string    `bun:",notnull" json:"-"`
}
