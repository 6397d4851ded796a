package authors

import (
	"context"
	"testing"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_DeleteAuthor_NullsBookAuthor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	author := testutils.CreateAuthor(ctx, t, db, "Frank", "Herbert")
	other := testutils.CreateAuthor(ctx, t, db, "Ursula", "Le Guin")
	dune := testutils.CreateBook(ctx, t, db, "Dune", author)
	messiah := testutils.CreateBook(ctx, t, db, "Dune Messiah", author)
	earthsea := testutils.CreateBook(ctx, t, db, "A Wizard of Earthsea", other)

	require.NoError(t, svc.DeleteAuthor(ctx, author.ID))

	for _, id := range []int{dune.ID, messiah.ID} {
		book := &models.Book{}
		require.NoError(t, db.NewSelect().Model(book).Where("b.id = ?", id).Scan(ctx))
		assert.Nil(t, book.AuthorID, "book %d should have lost its author", id)
	}

	book := &models.Book{}
	require.NoError(t, db.NewSelect().Model(book).Where("b.id = ?", earthsea.ID).Scan(ctx))
	require.NotNil(t, book.AuthorID)
	assert.Equal(t, other.ID, *book.AuthorID)

	_, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Author"))
}

func TestService_RetrieveAuthor_MissingDoesNotMutate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	testutils.CreateAuthor(ctx, t, db, "Frank", "Herbert")
	before, err := db.NewSelect().Model((*models.Author)(nil)).Count(ctx)
	require.NoError(t, err)

	missing := 9999
	_, err = svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &missing})
	assert.ErrorIs(t, err, errcodes.NotFound("Author"))

	assert.ErrorIs(t, svc.DeleteAuthor(ctx, missing), errcodes.NotFound("Author"))

	after, err := db.NewSelect().Model((*models.Author)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_RetrieveAuthor_WithBooks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	author := testutils.CreateAuthor(ctx, t, db, "Frank", "Herbert")
	testutils.CreateBook(ctx, t, db, "Dune Messiah", author)
	testutils.CreateBook(ctx, t, db, "Dune", author)

	got, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID, WithBooks: true})
	require.NoError(t, err)
	require.Len(t, got.Books, 2)
	assert.Equal(t, "Dune", got.Books[0].Title)
	assert.Equal(t, "Dune Messiah", got.Books[1].Title)
}

func TestService_ListAuthors_OrdersByLastThenFirstName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	testutils.CreateAuthor(ctx, t, db, "Terry", "Pratchett")
	testutils.CreateAuthor(ctx, t, db, "Kim Stanley", "Robinson")
	testutils.CreateAuthor(ctx, t, db, "Isaac", "Asimov")
	testutils.CreateAuthor(ctx, t, db, "Janet", "Asimov")

	authors, err := svc.ListAuthors(ctx, ListAuthorsOptions{})
	require.NoError(t, err)

	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.String()
	}
	assert.Equal(t, []string{
		"Asimov, Isaac",
		"Asimov, Janet",
		"Pratchett, Terry",
		"Robinson, Kim Stanley",
	}, names)
}

func TestService_Lifespan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	t.Run("death before birth is rejected", func(t *testing.T) {
		author := &models.Author{
			FirstName:   "Backwards",
			LastName:    "Person",
			DateOfBirth: testutils.DatePtr(1950, time.June, 1),
			DateOfDeath: testutils.DatePtr(1940, time.June, 1),
		}
		err := svc.CreateAuthor(ctx, author)
		var codeErr *errcodes.Error
		require.ErrorAs(t, err, &codeErr)
		assert.Equal(t, "validation_error", codeErr.Code)
		assert.Zero(t, author.ID)
	})

	t.Run("same day is allowed", func(t *testing.T) {
		author := &models.Author{
			FirstName:   "Brief",
			LastName:    "Life",
			DateOfBirth: testutils.DatePtr(1900, time.January, 1),
			DateOfDeath: testutils.DatePtr(1900, time.January, 1),
		}
		require.NoError(t, svc.CreateAuthor(ctx, author))
		assert.NotZero(t, author.ID)
	})

	t.Run("update is checked too", func(t *testing.T) {
		author := testutils.CreateAuthor(ctx, t, db, "Still", "Alive")
		author.DateOfBirth = testutils.DatePtr(1980, time.March, 3)
		author.DateOfDeath = testutils.DatePtr(1979, time.March, 3)
		err := svc.UpdateAuthor(ctx, author, UpdateAuthorOptions{Columns: []string{"date_of_birth", "date_of_death"}})
		assert.Error(t, err)
	})
}
