package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the password every fixture user is created with.
const TestPassword = "password123"

// CreateUser inserts an active user with the named role and returns it with
// its role and permissions loaded.
func CreateUser(ctx context.Context, t testing.TB, db *bun.DB, username, roleName string) *models.User {
	t.Helper()
	user, err := InsertUser(ctx, db, username, roleName, TestPassword)
	require.NoError(t, err)
	return user
}

// InsertUser is CreateUser without the testing dependency, for the fixture
// routes and the seed script.
func InsertUser(ctx context.Context, db bun.IDB, username, roleName, password string) (*models.User, error) {
	role := &models.Role{}
	err := db.NewSelect().
		Model(role).
		Relation("Permissions").
		Where("r.name = ?", roleName).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get role %s", roleName)
	}

	// Fixture users don't need a slow hash.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		RoleID:       role.ID,
		IsActive:     true,
		Role:         role,
	}
	_, err = db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create user %s", username)
	}
	return user, nil
}

func CreateGenre(ctx context.Context, t testing.TB, db *bun.DB, name string) *models.Genre {
	t.Helper()
	genre := &models.Genre{Name: name}
	_, err := db.NewInsert().Model(genre).Exec(ctx)
	require.NoError(t, err)
	return genre
}

func CreateLanguage(ctx context.Context, t testing.TB, db *bun.DB, name string) *models.Language {
	t.Helper()
	language := &models.Language{Name: name}
	_, err := db.NewInsert().Model(language).Exec(ctx)
	require.NoError(t, err)
	return language
}

func CreateAuthor(ctx context.Context, t testing.TB, db *bun.DB, first, last string) *models.Author {
	t.Helper()
	author := &models.Author{FirstName: first, LastName: last}
	_, err := db.NewInsert().Model(author).Exec(ctx)
	require.NoError(t, err)
	return author
}

// CreateBook inserts a book by author (which may be nil) tagged with genres,
// in the order given.
func CreateBook(ctx context.Context, t testing.TB, db *bun.DB, title string, author *models.Author, genres ...*models.Genre) *models.Book {
	t.Helper()
	book := &models.Book{Title: title, ISBN: "9780000000000"}
	if author != nil {
		book.AuthorID = &author.ID
	}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	for _, g := range genres {
		_, err := db.NewInsert().Model(&models.BookGenre{BookID: book.ID, GenreID: g.ID}).Exec(ctx)
		require.NoError(t, err)
	}
	return book
}

// CreateBookInstance inserts a copy of book in the given status. dueBack and
// borrower may be nil.
func CreateBookInstance(ctx context.Context, t testing.TB, db *bun.DB, book *models.Book, status string, dueBack *time.Time, borrower *models.User) *models.BookInstance {
	t.Helper()
	instance := &models.BookInstance{
		ID:      uuid.NewString(),
		Imprint: "Test Imprint, 2020",
		Status:  status,
	}
	if book != nil {
		instance.BookID = &book.ID
		instance.Book = book
	}
	if dueBack != nil {
		d := models.DateOf(*dueBack)
		instance.DueBack = &d
	}
	if borrower != nil {
		instance.BorrowerID = &borrower.ID
		instance.Borrower = borrower
	}
	_, err := db.NewInsert().Model(instance).Exec(ctx)
	require.NoError(t, err)
	return instance
}

// Date builds a normalized calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date returning a pointer, for optional date fields.
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}
