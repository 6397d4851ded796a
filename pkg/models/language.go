package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Language is reference data describing the language a book is written in.
// Books don't hold a foreign key to it.
type Language struct {
	bun.BaseModel `bun:"table:languages,alias:l" tstype:"-"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `bun:",nullzero" json:"name"`
}

func (l *Language) String() string {
	return l.Name
}
