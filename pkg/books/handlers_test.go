package books

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/binder"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestContext(t *testing.T, method, path, payload string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	if payload != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func newTestHandler(db *bun.DB) *handler {
	return &handler{config: config.NewForTest(), bookService: NewService(db)}
}

func TestHandler_List_Paginates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db)

	for _, title := range []string{"A", "B", "C"} {
		testutils.CreateBook(ctx, t, db, title, nil)
	}

	c, rr := newTestContext(t, http.MethodGet, "/books?page=2", "")
	require.NoError(t, h.list(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	resp := listBooksResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.NumPages)
	require.Len(t, resp.Books, 1)
	assert.Equal(t, "C", resp.Books[0].Title)
}

func TestHandler_List_PageOutOfRange(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db)

	c, rr := newTestContext(t, http.MethodGet, "/books", "")
	require.NoError(t, h.list(c))
	assert.Contains(t, rr.Body.String(), `"num_pages":1`)

	c, _ = newTestContext(t, http.MethodGet, "/books?page=2", "")
	assert.ErrorIs(t, h.list(c), errcodes.NotFound("Page"))
}

func TestHandler_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db)

	genre := testutils.CreateGenre(ctx, t, db, "Mystery")
	payload := `{"title":" The Hound ","isbn":"9780140437867","genre_ids":[` + strconv.Itoa(genre.ID) + `]}`

	c, rr := newTestContext(t, http.MethodPost, "/books", payload)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `"title":"The Hound"`)
	assert.Contains(t, body, `"display_genre":"Mystery"`)
	assert.Contains(t, body, `"url":"/books/1"`)
}

func TestHandler_Create_ISBNLength(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db)

	c, rr := newTestContext(t, http.MethodPost, "/books", `{"title":"Dune","isbn":"0441013597"}`)
	require.NoError(t, h.create(c))
	assert.Contains(t, rr.Body.String(), `"isbn":"0441013597"`)

	c, _ = newTestContext(t, http.MethodPost, "/books", `{"title":"Dune","isbn":"97804410135930"}`)
	err := h.create(c)
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, `"isbn" length must be less than or equal to 13 characters`, codeErr.Message)
}

func TestHandler_Create_AddsSummaryText(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db)

	c, rr := newTestContext(t, http.MethodPost, "/books", `{"title":"Dune","summary":"<p>Spice <b>must</b> flow.</p>"}`)
	require.NoError(t, h.create(c))

	resp := bookResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "<p>Spice <b>must</b> flow.</p>", resp.Summary)
	assert.Equal(t, "Spice must flow.", resp.SummaryText)
}

func TestHandler_Retrieve_AnnotatesInstances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db)

	book := testutils.CreateBook(ctx, t, db, "Middlemarch", nil)
	patron := testutils.CreateUser(ctx, t, db, "dorothea", models.RolePatron)
	testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusOnLoan, testutils.DatePtr(2000, 1, 1), patron)

	id := strconv.Itoa(book.ID)
	c, rr := newTestContext(t, http.MethodGet, "/books/"+id, "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.retrieve(c))

	body := rr.Body.String()
	assert.Contains(t, body, `"status_display":"On loan"`)
	assert.Contains(t, body, `"is_overdue":true`)
}

func TestHandler_Update_ClearsAuthor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db)

	author := testutils.CreateAuthor(ctx, t, db, "Mary", "Shelley")
	book := testutils.CreateBook(ctx, t, db, "Frankenstein", author)

	id := strconv.Itoa(book.ID)
	c, rr := newTestContext(t, http.MethodPost, "/books/"+id, `{"clear_author":true}`)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.update(c))
	assert.Contains(t, rr.Body.String(), `"author_id":null`)
}

func TestHandler_Delete_NotFound(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db)

	c, _ := newTestContext(t, http.MethodDelete, "/books/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	assert.ErrorIs(t, h.delete(c), errcodes.NotFound("Book"))
}
