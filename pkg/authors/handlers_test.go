package authors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/binder"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, method, path, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func TestHandler_Create(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := &handler{authorService: NewService(db)}

	c, rr := newTestContext(t, http.MethodPost, "/authors", `{"first_name":" Ursula ","last_name":"Le Guin","date_of_birth":"1929-10-21","date_of_death":"2018-01-22"}`)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `"display_name":"Le Guin, Ursula"`)
	assert.Contains(t, body, `"date_of_birth":"1929-10-21T00:00:00Z"`)
	assert.Contains(t, body, `"url":"/authors/1"`)
}

func TestHandler_Create_RejectsMalformedDate(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := &handler{authorService: NewService(db)}

	c, _ := newTestContext(t, http.MethodPost, "/authors", `{"first_name":"A","last_name":"B","date_of_birth":"21/10/1929"}`)
	err := h.create(c)
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, `"date_of_birth" should be in the format of YYYY-MM-DD`, codeErr.Message)
}

func TestHandler_Update_ClearsDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	h := &handler{authorService: NewService(db)}

	author := testutils.CreateAuthor(ctx, t, db, "Iain", "Banks")
	id := strconv.Itoa(author.ID)

	c, rr := newTestContext(t, http.MethodPost, "/authors/"+id, `{"date_of_death":"2013-06-09"}`)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.update(c))
	assert.Contains(t, rr.Body.String(), `"date_of_death":"2013-06-09T00:00:00Z"`)

	c, rr = newTestContext(t, http.MethodPost, "/authors/"+id, `{"date_of_death":""}`)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.update(c))
	assert.Contains(t, rr.Body.String(), `"date_of_death":null`)
}

func TestHandler_Retrieve_NotFound(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := &handler{authorService: NewService(db)}

	c, _ := newTestContext(t, http.MethodGet, "/authors/77", "")
	c.SetParamNames("id")
	c.SetParamValues("77")
	assert.ErrorIs(t, h.retrieve(c), errcodes.NotFound("Author"))
}
