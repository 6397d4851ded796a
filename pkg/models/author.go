package models

import (
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a" tstype:"-"`

	ID          int        `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FirstName   string     `bun:",nullzero" json:"first_name"`
	LastName    string     `bun:",nullzero" json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	DateOfDeath *time.Time `json:"date_of_death"`
	Books       []*Book    `bun:"rel:has-many,join:id=author_id" json:"books,omitempty" tstype:"Book[]"`
}

// String returns the "last, first" form used in listings.
func (a *Author) String() string {
	return a.LastName + ", " + a.FirstName
}

func (a *Author) URL() string {
	return "/authors/" + strconv.Itoa(a.ID)
}
