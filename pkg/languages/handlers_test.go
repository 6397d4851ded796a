package languages

import (
	"context"
	"net/http"
	"net/http/httptest"
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

func TestHandler_CreateAndList(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := &handler{languageService: NewService(db)}

	for _, name := range []string{"French", "  English  "} {
		c, rr := newTestContext(t, http.MethodPost, "/languages", `{"name":"`+name+`"}`)
		require.NoError(t, h.create(c))
		assert.Equal(t, http.StatusCreated, rr.Code)
	}

	c, rr := newTestContext(t, http.MethodPost, "/languages", `{"name":"french"}`)
	err := h.create(c)
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusConflict, codeErr.HTTPCode)
	assert.Equal(t, http.StatusOK, rr.Code)

	c, rr = newTestContext(t, http.MethodGet, "/languages", "")
	require.NoError(t, h.list(c))
	body := rr.Body.String()
	assert.Contains(t, body, `"total":2`)
	assert.Less(t, strings.Index(body, "English"), strings.Index(body, "French"))
}

func TestHandler_Retrieve_NotFound(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := &handler{languageService: NewService(db)}

	for _, id := range []string{"42", "abc"} {
		c, _ := newTestContext(t, http.MethodGet, "/languages/"+id, "")
		c.SetParamNames("id")
		c.SetParamValues(id)
		assert.ErrorIs(t, h.retrieve(c), errcodes.NotFound("Language"))
	}
}

func TestService_DeleteLanguage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	language := testutils.CreateLanguage(ctx, t, db, "Farsi")
	require.NoError(t, svc.DeleteLanguage(ctx, language.ID))
	assert.ErrorIs(t, svc.DeleteLanguage(ctx, language.ID), errcodes.NotFound("Language"))
}
