package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const (
	BookTitleMaxLength   = 200
	BookSummaryMaxLength = 1000
	BookISBNMaxLength    = 13

	// displayGenreLimit caps how many genre names DisplayGenre joins.
	displayGenreLimit = 3
)

// Book is a catalog title, not a physical copy. Copies are BookInstances.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b" tstype:"-"`

	ID         int             `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Title      string          `bun:",nullzero" json:"title"`
	Summary    string          `bun:",notnull" json:"summary"`
	ISBN       string          `bun:"isbn,notnull" json:"isbn"`
	AuthorID   *int            `json:"author_id"`
	Author     *Author         `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty" tstype:"Author"`
	BookGenres []*BookGenre    `bun:"rel:has-many,join:id=book_id" json:"book_genres,omitempty" tstype:"BookGenre[]"`
	Instances  []*BookInstance `bun:"rel:has-many,join:id=book_id" json:"instances,omitempty" tstype:"BookInstance[]"`
}

func (b *Book) String() string {
	return b.Title
}

func (b *Book) URL() string {
	return "/books/" + strconv.Itoa(b.ID)
}

// Genres returns the loaded genres in association order. BookGenres must have
// been loaded with the nested Genre relation.
func (b *Book) Genres() []*Genre {
	genres := make([]*Genre, 0, len(b.BookGenres))
	for _, bg := range b.BookGenres {
		if bg.Genre != nil {
			genres = append(genres, bg.Genre)
		}
	}
	return genres
}

// DisplayGenre joins the names of the first three genres.
func (b *Book) DisplayGenre() string {
	genres := b.Genres()
	if len(genres) > displayGenreLimit {
		genres = genres[:displayGenreLimit]
	}
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}
