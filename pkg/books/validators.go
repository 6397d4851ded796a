package books

// ListBooksQuery selects a 1-based page. The page size comes from config.
type ListBooksQuery struct {
	Page     int  `query:"page" default:"1" validate:"min=1"`
	AuthorID *int `query:"author_id"`
	GenreID  *int `query:"genre_id"`
}

type CreateBookPayload struct {
	Title    string `json:"title" form:"title" mod:"trim" validate:"required,max=200"`
	Summary  string `json:"summary" form:"summary" validate:"max=1000"`
	ISBN     string `json:"isbn" form:"isbn" mod:"trim" validate:"max=13"`
	AuthorID *int   `json:"author_id" form:"author_id"`
	GenreIDs []int  `json:"genre_ids" form:"genre_ids"`
}

// UpdateBookPayload leaves absent fields untouched. A present genre_ids
// replaces the whole genre set, and clear_author drops the author.
type UpdateBookPayload struct {
	Title       *string `json:"title" form:"title" mod:"trim" validate:"omitempty,min=1,max=200"`
	Summary     *string `json:"summary" form:"summary" validate:"omitempty,max=1000"`
	ISBN        *string `json:"isbn" form:"isbn" mod:"trim" validate:"omitempty,max=13"`
	AuthorID    *int    `json:"author_id" form:"author_id"`
	ClearAuthor bool    `json:"clear_author" form:"clear_author"`
	GenreIDs    *[]int  `json:"genre_ids" form:"genre_ids"`
}
