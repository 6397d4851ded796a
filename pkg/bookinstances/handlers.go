package bookinstances

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	instanceService *Service
	now             func() time.Time
}

func (h *handler) today() time.Time {
	return models.DateOf(h.now())
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBookInstancesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	instances, total, err := h.instanceService.ListBookInstancesWithTotal(ctx, ListBookInstancesOptions{
		Limit:      &params.Limit,
		Offset:     &params.Offset,
		BookID:     params.BookID,
		BorrowerID: params.BorrowerID,
		Status:     params.Status,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	today := h.today()
	for _, bi := range instances {
		bi.Annotate(today)
	}

	resp := struct {
		BookInstances []*models.BookInstance `json:"book_instances"`
		Total         int                    `json:"total"`
	}{instances, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	instance, err := h.instanceService.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	instance.Annotate(h.today())

	return errors.WithStack(c.JSON(http.StatusOK, instance))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookInstancePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	instance := &models.BookInstance{
		BookID:     params.BookID,
		Imprint:    params.Imprint,
		BorrowerID: params.BorrowerID,
		Status:     params.Status,
	}
	var err error
	if instance.DueBack, err = models.ParseDate(params.DueBack); err != nil {
		return errcodes.ValidationError(`"due_back" should be in the format of YYYY-MM-DD`)
	}

	if err := h.instanceService.CreateBookInstance(ctx, instance); err != nil {
		return errors.WithStack(err)
	}

	instance, err = h.instanceService.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	if err != nil {
		return errors.WithStack(err)
	}
	instance.Annotate(h.today())

	return errors.WithStack(c.JSON(http.StatusCreated, instance))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	params := UpdateBookInstancePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	instance, err := h.instanceService.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateBookInstanceOptions{Columns: []string{}}
	if params.BookID != nil {
		instance.BookID = params.BookID
		opts.Columns = append(opts.Columns, "book_id")
	}
	if params.Imprint != nil && *params.Imprint != instance.Imprint {
		instance.Imprint = *params.Imprint
		opts.Columns = append(opts.Columns, "imprint")
	}
	if params.DueBack != nil {
		if instance.DueBack, err = models.ParseDate(*params.DueBack); err != nil {
			return errcodes.ValidationError(`"due_back" should be in the format of YYYY-MM-DD`)
		}
		opts.Columns = append(opts.Columns, "due_back")
	}
	if params.ClearBorrower {
		instance.BorrowerID = nil
		opts.Columns = append(opts.Columns, "borrower_id")
	} else if params.BorrowerID != nil {
		instance.BorrowerID = params.BorrowerID
		opts.Columns = append(opts.Columns, "borrower_id")
	}
	if params.Status != nil && *params.Status != instance.Status {
		instance.Status = *params.Status
		opts.Columns = append(opts.Columns, "status")
	}

	if err := h.instanceService.UpdateBookInstance(ctx, instance, opts); err != nil {
		return errors.WithStack(err)
	}

	instance, err = h.instanceService.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	instance.Annotate(h.today())

	return errors.WithStack(c.JSON(http.StatusOK, instance))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.instanceService.DeleteBookInstance(ctx, c.Param("id")); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
