package books

import (
	"context"
	"database/sql"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID *int

	// WithInstances also loads the book's copies, in due date order.
	WithInstances bool
}

type ListBooksOptions struct {
	Limit    *int
	Offset   *int
	AuthorID *int
	GenreID  *int

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string

	// GenreIDs, when set, replaces the book's genres with exactly these, in
	// this order.
	GenreIDs *[]int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBook inserts a book and tags it with genreIDs in order.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book, genreIDs []int) error {
	if err := prepare(book); err != nil {
		return err
	}

	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkAuthorExists(ctx, tx, book.AuthorID); err != nil {
			return err
		}

		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return replaceGenres(ctx, tx, book.ID, genreIDs)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("book created", logger.Data{"book_id": book.ID, "genres": len(genreIDs)})
	return nil
}

// RetrieveBook loads a book with its author and genres. It returns
// NotFound("Book") when no book matches.
func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Author").
		Relation("BookGenres", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bg.id ASC")
		}).
		Relation("BookGenres.Genre")

	if opts.WithInstances {
		q = q.Relation("Instances", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bi.due_back ASC", "bi.id ASC")
		})
	}
	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Author").
		Relation("BookGenres", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bg.id ASC")
		}).
		Relation("BookGenres.Genre").
		Order("b.title ASC", "b.id ASC")

	if opts.AuthorID != nil {
		q = q.Where("b.author_id = ?", *opts.AuthorID)
	}
	if opts.GenreID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_genres WHERE genre_id = ?)", *opts.GenreID)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 && opts.GenreIDs == nil {
		return nil
	}
	if err := prepare(book); err != nil {
		return err
	}

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkAuthorExists(ctx, tx, book.AuthorID); err != nil {
			return err
		}

		book.UpdatedAt = time.Now()
		columns := append(slices.Clone(opts.Columns), "updated_at")

		result, err := tx.
			NewUpdate().
			Model(book).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book")
		}

		if opts.GenreIDs != nil {
			return replaceGenres(ctx, tx, book.ID, *opts.GenreIDs)
		}
		return nil
	})
}

// DeleteBook deletes a book and its genre tags. Its copies are kept with no
// book.
func (svc *Service) DeleteBook(ctx context.Context, bookID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		_, err = tx.NewUpdate().
			Model((*models.BookInstance)(nil)).
			Set("book_id = NULL").
			Set("updated_at = ?", time.Now()).
			Where("book_id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.BookGenre)(nil)).
			Where("book_id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// prepare enforces field lengths. The summary is stored as submitted.
func prepare(book *models.Book) error {
	if utf8.RuneCountInString(book.Summary) > models.BookSummaryMaxLength {
		return errcodes.ValidationError(`"summary" length must be less than or equal to 1000 characters`)
	}
	if book.Title == "" {
		return errcodes.ValidationError(`"title" is required`)
	}
	if utf8.RuneCountInString(book.Title) > models.BookTitleMaxLength {
		return errcodes.ValidationError(`"title" length must be less than or equal to 200 characters`)
	}
	if utf8.RuneCountInString(book.ISBN) > models.BookISBNMaxLength {
		return errcodes.ValidationError(`"isbn" length must be less than or equal to 13 characters`)
	}
	return nil
}

func checkAuthorExists(ctx context.Context, db bun.IDB, authorID *int) error {
	if authorID == nil {
		return nil
	}
	exists, err := db.NewSelect().
		Model((*models.Author)(nil)).
		Where("id = ?", *authorID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.ValidationError(`"author_id" doesn't match an author`)
	}
	return nil
}

// replaceGenres makes genreIDs the book's complete genre set. Duplicate IDs
// are tagged once.
func replaceGenres(ctx context.Context, tx bun.Tx, bookID int, genreIDs []int) error {
	_, err := tx.NewDelete().
		Model((*models.BookGenre)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	seen := map[int]bool{}
	bookGenres := make([]*models.BookGenre, 0, len(genreIDs))
	for _, id := range genreIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		bookGenres = append(bookGenres, &models.BookGenre{BookID: bookID, GenreID: id})
	}
	if len(bookGenres) == 0 {
		return nil
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	found, err := tx.NewSelect().
		Model((*models.Genre)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if found != len(ids) {
		return errcodes.ValidationError(`"genre_ids" contains an unknown genre`)
	}

	_, err = tx.NewInsert().Model(&bookGenres).Exec(ctx)
	return errors.WithStack(err)
}
