package bookinstances

type ListBookInstancesQuery struct {
	Limit      int     `query:"limit" default:"100" validate:"min=1,max=500"`
	Offset     int     `query:"offset" validate:"min=0"`
	BookID     *int    `query:"book_id"`
	BorrowerID *int    `query:"borrower_id"`
	Status     *string `query:"status" validate:"omitempty,status"`
}

type CreateBookInstancePayload struct {
	BookID     *int   `json:"book_id" form:"book_id"`
	Imprint    string `json:"imprint" form:"imprint" mod:"trim" validate:"required,max=200"`
	DueBack    string `json:"due_back" form:"due_back" mod:"trim" validate:"date"`
	BorrowerID *int   `json:"borrower_id" form:"borrower_id"`
	Status     string `json:"status" form:"status" mod:"trim" default:"m" validate:"status"`
}

// UpdateBookInstancePayload leaves absent fields untouched. An empty
// due_back clears it; clear_borrower drops the borrower.
type UpdateBookInstancePayload struct {
	BookID        *int    `json:"book_id" form:"book_id"`
	Imprint       *string `json:"imprint" form:"imprint" mod:"trim" validate:"omitempty,min=1,max=200"`
	DueBack       *string `json:"due_back" form:"due_back" mod:"trim" validate:"omitempty,date"`
	BorrowerID    *int    `json:"borrower_id" form:"borrower_id"`
	ClearBorrower bool    `json:"clear_borrower" form:"clear_borrower"`
	Status        *string `json:"status" form:"status" mod:"trim" validate:"omitempty,status"`
}
