package testutils

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db *bun.DB
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" default:"patron" validate:"oneof=admin librarian patron"`
}

type createUserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// createUser creates a fixture user with the requested role.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := InsertUser(ctx, h.db, req.Username, req.Role, req.Password)
	if err != nil {
		return errcodes.ValidationError(err.Error())
	}

	return errors.WithStack(c.JSON(http.StatusCreated, createUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     req.Role,
	}))
}

type resetResponse struct {
	Deleted map[string]int64 `json:"deleted"`
}

// reset wipes catalog data and users while keeping the seeded roles.
// DELETE /test/data.
func (h *handler) reset(c echo.Context) error {
	ctx := c.Request().Context()

	resp := resetResponse{Deleted: map[string]int64{}}
	tables := []struct {
		name  string
		model interface{}
	}{
		{"book_instances", (*models.BookInstance)(nil)},
		{"book_genres", (*models.BookGenre)(nil)},
		{"books", (*models.Book)(nil)},
		{"authors", (*models.Author)(nil)},
		{"genres", (*models.Genre)(nil)},
		{"languages", (*models.Language)(nil)},
		{"sessions", (*models.Session)(nil)},
		{"users", (*models.User)(nil)},
	}

	for _, table := range tables {
		result, err := h.db.NewDelete().Model(table.model).Where("1=1").Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to delete %s", table.name)
		}
		n, _ := result.RowsAffected()
		resp.Deleted[table.name] = n
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
