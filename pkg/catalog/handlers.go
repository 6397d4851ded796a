package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/sessions"
	"github.com/pkg/errors"
)

type handler struct {
	catalogService *Service
	sessionService *sessions.Service
}

type indexResponse struct {
	*Counts
	NumVisits int `json:"num_visits"`
}

func (h *handler) index(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.catalogService.Counts(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := indexResponse{Counts: counts}
	if id, ok := sessions.IDFromContext(c); ok {
		resp.NumVisits, err = h.sessionService.IncrementVisits(ctx, id)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
