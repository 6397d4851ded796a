package loans

type RenewPayload struct {
	RenewalDate string `json:"renewal_date" form:"renewal_date" mod:"trim" validate:"required,date"`
}

type CheckOutPayload struct {
	BorrowerID int    `json:"borrower_id" form:"borrower_id" validate:"required,min=1"`
	DueBack    string `json:"due_back" form:"due_back" mod:"trim" validate:"required,date"`
}

type ReservePayload struct {
	BorrowerID *int `json:"borrower_id" form:"borrower_id" validate:"omitempty,min=1"`
}

type MyBooksQuery struct {
	Page int `query:"page" default:"1" validate:"min=1"`
}

type RenewalProposal struct {
	BookInstanceID  string `json:"book_instance_id"`
	CurrentDueBack  string `json:"current_due_back,omitempty"`
	ProposedDueBack string `json:"proposed_due_back"`
}
