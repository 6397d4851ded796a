package bookinstances

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/binder"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
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

func newTestHandler(db *bun.DB, today time.Time) *handler {
	return &handler{
		instanceService: NewService(db, config.NewForTest()),
		now:             func() time.Time { return today.Add(15 * time.Hour) },
	}
}

func TestHandler_Retrieve_OverdueFollowsClock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)

	book := testutils.CreateBook(ctx, t, db, "Persuasion", nil)
	instance := testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusOnLoan, testutils.DatePtr(2026, 6, 10), nil)

	tests := []struct {
		today   time.Time
		overdue string
	}{
		{testutils.Date(2026, 6, 10), `"is_overdue":false`},
		{testutils.Date(2026, 6, 11), `"is_overdue":true`},
	}
	for _, tt := range tests {
		h := newTestHandler(db, tt.today)
		c, rr := newTestContext(t, http.MethodGet, "/bookinstances/"+instance.ID, "")
		c.SetParamNames("id")
		c.SetParamValues(instance.ID)
		require.NoError(t, h.retrieve(c))
		assert.Contains(t, rr.Body.String(), tt.overdue)
		assert.Contains(t, rr.Body.String(), `"status_display":"On loan"`)
	}
}

func TestHandler_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db, testutils.Date(2026, 1, 1))

	book := testutils.CreateBook(ctx, t, db, "Kindred", nil)
	payload := `{"book_id":` + strconv.Itoa(book.ID) + `,"imprint":"Doubleday, 1979","status":"a"}`

	c, rr := newTestContext(t, http.MethodPost, "/bookinstances", payload)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"a"`)
	assert.Contains(t, rr.Body.String(), `"title":"Kindred"`)
}

func TestHandler_Create_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db, testutils.Date(2026, 1, 1))

	c, _ := newTestContext(t, http.MethodPost, "/bookinstances", `{"imprint":"X","status":"z"}`)
	err := h.create(c)
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusUnprocessableEntity, codeErr.HTTPCode)
}

func TestHandler_Update_ClearsDueBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db, testutils.Date(2026, 1, 1))

	instance := testutils.CreateBookInstance(ctx, t, db, nil, models.BookInstanceStatusOnLoan, testutils.DatePtr(2026, 1, 20), nil)

	c, rr := newTestContext(t, http.MethodPost, "/bookinstances/"+instance.ID, `{"due_back":"","status":"m"}`)
	c.SetParamNames("id")
	c.SetParamValues(instance.ID)
	require.NoError(t, h.update(c))
	assert.Contains(t, rr.Body.String(), `"due_back":null`)
	assert.Contains(t, rr.Body.String(), `"status":"m"`)
}

func TestHandler_Update_RejectsLoanWithoutDueBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	h := newTestHandler(db, time.Now())

	instance := testutils.CreateBookInstance(ctx, t, db, nil, models.BookInstanceStatusMaintenance, nil, nil)

	c, _ := newTestContext(t, http.MethodPost, "/bookinstances/"+instance.ID, `{"status":"o"}`)
	c.SetParamNames("id")
	c.SetParamValues(instance.ID)
	err := h.update(c)
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusUnprocessableEntity, codeErr.HTTPCode)
	assert.Equal(t, `"borrower_id" is required for a copy on loan`, codeErr.Message)
}
