package users

type CreateUserPayload struct {
	Username string  `json:"username" mod:"trim" validate:"required,min=3,max=150"`
	Email    *string `json:"email" mod:"trim" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Role     string  `json:"role" default:"patron" validate:"oneof=admin librarian patron"`
}

type UpdateUserPayload struct {
	Username *string `json:"username" mod:"trim" validate:"omitempty,min=3,max=150"`
	Email    *string `json:"email" mod:"trim" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin librarian patron"`
	IsActive *bool   `json:"is_active"`
}

type ResetPasswordPayload struct {
	// Required when resetting your own password.
	CurrentPassword *string `json:"current_password"`
	NewPassword     string  `json:"new_password" validate:"required,min=8"`
}

type ListUsersQuery struct {
	Limit  int    `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int    `query:"offset" validate:"min=0"`
	Role   string `query:"role" validate:"omitempty,oneof=admin librarian patron"`
}
