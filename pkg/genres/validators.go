package genres

type ListGenresQuery struct {
	Limit  int `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int `query:"offset" validate:"min=0"`
}

type CreateGenrePayload struct {
	Name string `json:"name" form:"name" mod:"trim" validate:"required,max=200"`
}

type UpdateGenrePayload struct {
	Name *string `json:"name" form:"name" mod:"trim" validate:"omitempty,max=200,ne="`
}
