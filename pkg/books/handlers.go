package books

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/htmlutil"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	config      *config.Config
	bookService *Service
}

// bookResponse adds derived read-only fields. SummaryText is the summary
// with any markup flattened to plain text; Summary itself is untouched.
type bookResponse struct {
	*models.Book
	DisplayGenre string `json:"display_genre"`
	SummaryText  string `json:"summary_text"`
	URL          string `json:"url"`
}

func newBookResponse(b *models.Book) bookResponse {
	return bookResponse{
		Book:         b,
		DisplayGenre: b.DisplayGenre(),
		SummaryText:  htmlutil.StripTags(b.Summary),
		URL:          b.URL(),
	}
}

type listBooksResponse struct {
	Books    []bookResponse `json:"books"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	NumPages int            `json:"num_pages"`
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	pageSize := h.config.BooksPageSize
	offset := (params.Page - 1) * pageSize
	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:    &pageSize,
		Offset:   &offset,
		AuthorID: params.AuthorID,
		GenreID:  params.GenreID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// An empty catalog still has one (empty) page.
	numPages := (total + pageSize - 1) / pageSize
	if numPages < 1 {
		numPages = 1
	}
	if params.Page > numPages {
		return errcodes.NotFound("Page")
	}

	resp := listBooksResponse{
		Books:    make([]bookResponse, len(books)),
		Total:    total,
		Page:     params.Page,
		NumPages: numPages,
	}
	for i, b := range books {
		resp.Books[i] = newBookResponse(b)
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id, WithInstances: true})
	if err != nil {
		return errors.WithStack(err)
	}

	today := models.DateOf(time.Now())
	for _, bi := range book.Instances {
		bi.Annotate(today)
	}

	return errors.WithStack(c.JSON(http.StatusOK, newBookResponse(book)))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		Title:    params.Title,
		Summary:  params.Summary,
		ISBN:     params.ISBN,
		AuthorID: params.AuthorID,
	}
	if err := h.bookService.CreateBook(ctx, book, params.GenreIDs); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, newBookResponse(book)))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateBookOptions{Columns: []string{}, GenreIDs: params.GenreIDs}
	if params.Title != nil && *params.Title != book.Title {
		book.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.Summary != nil && *params.Summary != book.Summary {
		book.Summary = *params.Summary
		opts.Columns = append(opts.Columns, "summary")
	}
	if params.ISBN != nil && *params.ISBN != book.ISBN {
		book.ISBN = *params.ISBN
		opts.Columns = append(opts.Columns, "isbn")
	}
	if params.ClearAuthor {
		book.AuthorID = nil
		opts.Columns = append(opts.Columns, "author_id")
	} else if params.AuthorID != nil {
		book.AuthorID = params.AuthorID
		opts.Columns = append(opts.Columns, "author_id")
	}

	if err := h.bookService.UpdateBook(ctx, book, opts); err != nil {
		return errors.WithStack(err)
	}

	book, err = h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, newBookResponse(book)))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
