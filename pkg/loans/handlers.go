package loans

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	config      *config.Config
	loanService *Service
}

func (h *handler) proposeRenewal(c echo.Context) error {
	ctx := c.Request().Context()

	instance := &models.BookInstance{}
	if err := loadInstance(ctx, h.loanService.db, c.Param("id"), instance); err != nil {
		return errors.WithStack(err)
	}

	resp := RenewalProposal{
		BookInstanceID:  instance.ID,
		ProposedDueBack: h.loanService.DefaultRenewalDate().Format(models.DateLayout),
	}
	if instance.DueBack != nil {
		resp.CurrentDueBack = instance.DueBack.Format(models.DateLayout)
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) renew(c echo.Context) error {
	ctx := c.Request().Context()

	params := RenewPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	dueBack, err := models.ParseDate(params.RenewalDate)
	if err != nil {
		return errcodes.ValidationError(`"renewal_date" should be in the format of YYYY-MM-DD`)
	}

	instance, err := h.loanService.Renew(ctx, c.Param("id"), *dueBack)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respond(c, instance)
}

func (h *handler) checkOut(c echo.Context) error {
	ctx := c.Request().Context()

	params := CheckOutPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	dueBack, err := models.ParseDate(params.DueBack)
	if err != nil {
		return errcodes.ValidationError(`"due_back" should be in the format of YYYY-MM-DD`)
	}

	instance, err := h.loanService.CheckOut(ctx, c.Param("id"), params.BorrowerID, *dueBack)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respond(c, instance)
}

func (h *handler) reserve(c echo.Context) error {
	ctx := c.Request().Context()

	c.Set("disallow_empty_body", false)
	params := ReservePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	instance, err := h.loanService.Reserve(ctx, c.Param("id"), params.BorrowerID)
	if err != nil {
		return errors.WithStack(err)
	}

	return h.respond(c, instance)
}

func (h *handler) returnInstance(c echo.Context) error {
	instance, err := h.loanService.Return(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}
	return h.respond(c, instance)
}

func (h *handler) markAvailable(c echo.Context) error {
	instance, err := h.loanService.MarkAvailable(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}
	return h.respond(c, instance)
}

func (h *handler) sendToMaintenance(c echo.Context) error {
	instance, err := h.loanService.SendToMaintenance(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}
	return h.respond(c, instance)
}

// myBooks lists the current user's loans, a page at a time.
func (h *handler) myBooks(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := MyBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	pageSize := h.config.LoansPageSize
	instances, total, err := h.loanService.ListBorrowedByUser(ctx, user.ID, pageSize, (params.Page-1)*pageSize)
	if err != nil {
		return errors.WithStack(err)
	}

	numPages := (total + pageSize - 1) / pageSize
	if numPages < 1 {
		numPages = 1
	}
	if params.Page > numPages {
		return errcodes.NotFound("Page")
	}

	resp := struct {
		BookInstances []*models.BookInstance `json:"book_instances"`
		Total         int                    `json:"total"`
		Page          int                    `json:"page"`
		NumPages      int                    `json:"num_pages"`
	}{instances, total, params.Page, numPages}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) allBorrowed(c echo.Context) error {
	instances, err := h.loanService.ListAllBorrowed(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		BookInstances []*models.BookInstance `json:"book_instances"`
	}{instances}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) respond(c echo.Context, instance *models.BookInstance) error {
	instance.Annotate(h.loanService.Today())
	return errors.WithStack(c.JSON(http.StatusOK, instance))
}
