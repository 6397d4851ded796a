package authors

type ListAuthorsQuery struct {
	Limit  int `query:"limit" default:"100" validate:"min=1,max=500"`
	Offset int `query:"offset" validate:"min=0"`
}

type CreateAuthorPayload struct {
	FirstName   string `json:"first_name" form:"first_name" mod:"trim" validate:"required,max=100"`
	LastName    string `json:"last_name" form:"last_name" mod:"trim" validate:"required,max=100"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" mod:"trim" validate:"date"`
	DateOfDeath string `json:"date_of_death" form:"date_of_death" mod:"trim" validate:"date"`
}

// UpdateAuthorPayload leaves fields that are absent untouched. An empty date
// string clears the date.
type UpdateAuthorPayload struct {
	FirstName   *string `json:"first_name" form:"first_name" mod:"trim" validate:"omitempty,max=100,ne="`
	LastName    *string `json:"last_name" form:"last_name" mod:"trim" validate:"omitempty,max=100,ne="`
	DateOfBirth *string `json:"date_of_birth" form:"date_of_birth" mod:"trim" validate:"omitempty,date"`
	DateOfDeath *string `json:"date_of_death" form:"date_of_death" mod:"trim" validate:"omitempty,date"`
}
