package bookinstances

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CreateBookInstance_Defaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db, config.NewForTest())

	book := testutils.CreateBook(ctx, t, db, "Beloved", nil)
	instance := &models.BookInstance{BookID: &book.ID, Imprint: "Knopf, 1987"}
	require.NoError(t, svc.CreateBookInstance(ctx, instance))

	_, err := uuid.Parse(instance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookInstanceStatusMaintenance, instance.Status)

	got, err := svc.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	require.NoError(t, err)
	require.NotNil(t, got.Book)
	assert.Equal(t, instance.ID+" (Beloved)", got.String())
}

func TestService_CreateBookInstance_RejectsUnknownReferences(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db, config.NewForTest())

	missing := 31
	err := svc.CreateBookInstance(ctx, &models.BookInstance{BookID: &missing, Imprint: "X"})
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, `"book_id" doesn't match a book`, codeErr.Message)

	err = svc.CreateBookInstance(ctx, &models.BookInstance{BorrowerID: &missing, Imprint: "X"})
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, `"borrower_id" doesn't match a user`, codeErr.Message)
}

func TestService_CountByStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db, config.NewForTest())

	count, err := svc.CountByStatus(ctx, models.BookInstanceStatusAvailable)
	require.NoError(t, err)
	assert.Zero(t, count)

	book := testutils.CreateBook(ctx, t, db, "Ulysses", nil)
	testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusAvailable, nil, nil)
	testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusAvailable, nil, nil)
	testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusMaintenance, nil, nil)

	count, err = svc.CountByStatus(ctx, models.BookInstanceStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusAvailable, nil, nil)
	count, err = svc.CountByStatus(ctx, models.BookInstanceStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestService_ListBookInstances_OrdersByDueBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db, config.NewForTest())

	book := testutils.CreateBook(ctx, t, db, "Walden", nil)
	late := testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusOnLoan, testutils.DatePtr(2026, 5, 10), nil)
	none := testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusAvailable, nil, nil)
	early := testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusOnLoan, testutils.DatePtr(2026, 4, 1), nil)

	instances, err := svc.ListBookInstances(ctx, ListBookInstancesOptions{})
	require.NoError(t, err)
	require.Len(t, instances, 3)
	assert.Equal(t, []string{none.ID, early.ID, late.ID}, []string{instances[0].ID, instances[1].ID, instances[2].ID})

	status := models.BookInstanceStatusOnLoan
	instances, total, err := svc.ListBookInstancesWithTotal(ctx, ListBookInstancesOptions{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, early.ID, instances[0].ID)
}

func TestService_UpdateBookInstance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db, config.NewForTest())

	book := testutils.CreateBook(ctx, t, db, "Emma", nil)
	instance := testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusMaintenance, nil, nil)

	instance.Imprint = "Penguin, 2003"
	instance.Status = models.BookInstanceStatusAvailable
	require.NoError(t, svc.UpdateBookInstance(ctx, instance, UpdateBookInstanceOptions{Columns: []string{"imprint", "status"}}))

	got, err := svc.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	require.NoError(t, err)
	assert.Equal(t, "Penguin, 2003", got.Imprint)
	assert.Equal(t, models.BookInstanceStatusAvailable, got.Status)

	ghost := &models.BookInstance{ID: "missing", Status: models.BookInstanceStatusAvailable}
	err = svc.UpdateBookInstance(ctx, ghost, UpdateBookInstanceOptions{Columns: []string{"status"}})
	assert.ErrorIs(t, err, errcodes.NotFound("Book instance"))
}

func TestService_DeleteBookInstance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db, config.NewForTest())

	instance := testutils.CreateBookInstance(ctx, t, db, nil, models.BookInstanceStatusAvailable, nil, nil)
	require.NoError(t, svc.DeleteBookInstance(ctx, instance.ID))

	_, err := svc.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	assert.ErrorIs(t, err, errcodes.NotFound("Book instance"))
	assert.ErrorIs(t, svc.DeleteBookInstance(ctx, instance.ID), errcodes.NotFound("Book instance"))
}

func TestService_UpdateBookInstance_OnLoanNeedsBorrowerAndDueBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db, config.NewForTest())

	book := testutils.CreateBook(ctx, t, db, "Middlemarch", nil)
	patron := testutils.CreateUser(ctx, t, db, "dorothea", models.RolePatron)
	instance := testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusMaintenance, nil, nil)
	today := models.DateOf(time.Now())

	tests := []struct {
		name     string
		borrower *int
		dueBack  *time.Time
		message  string
	}{
		{"no borrower or due date", nil, nil, `"borrower_id" is required for a copy on loan`},
		{"no due date", &patron.ID, nil, `"due_back" is required for a copy on loan`},
		{"no borrower", nil, ptr(today.AddDate(0, 0, 7)), `"borrower_id" is required for a copy on loan`},
		{"due date in past", &patron.ID, ptr(today.AddDate(0, 0, -1)), "date in past"},
		{"due date past the window", &patron.ID, ptr(today.AddDate(0, 0, 29)), "date too far in future"},
	}

	for _, tt := range tests {
		update := *instance
		update.Status = models.BookInstanceStatusOnLoan
		update.BorrowerID = tt.borrower
		update.DueBack = tt.dueBack
		err := svc.UpdateBookInstance(ctx, &update, UpdateBookInstanceOptions{Columns: []string{"status", "borrower_id", "due_back"}})
		var codeErr *errcodes.Error
		require.ErrorAs(t, err, &codeErr, tt.name)
		assert.Equal(t, tt.message, codeErr.Message, tt.name)
	}

	got, err := svc.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BookInstanceStatusMaintenance, got.Status)
	assert.Nil(t, got.BorrowerID)
	assert.Nil(t, got.DueBack)

	instance.Status = models.BookInstanceStatusOnLoan
	instance.BorrowerID = &patron.ID
	instance.DueBack = ptr(today.AddDate(0, 0, 28))
	require.NoError(t, svc.UpdateBookInstance(ctx, instance, UpdateBookInstanceOptions{Columns: []string{"status", "borrower_id", "due_back"}}))

	got, err = svc.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BookInstanceStatusOnLoan, got.Status)
	assert.Equal(t, patron.ID, *got.BorrowerID)
}

func TestService_CreateBookInstance_OnLoanNeedsBorrower(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db, config.NewForTest())

	book := testutils.CreateBook(ctx, t, db, "Dubliners", nil)
	due := models.DateOf(time.Now()).AddDate(0, 0, 7)
	instance := &models.BookInstance{BookID: &book.ID, Imprint: "Grant Richards, 1914", Status: models.BookInstanceStatusOnLoan, DueBack: &due}

	err := svc.CreateBookInstance(ctx, instance)
	assert.ErrorIs(t, err, errcodes.ValidationError(`"borrower_id" is required for a copy on loan`))

	count, err := svc.CountByStatus(ctx, models.BookInstanceStatusOnLoan)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_UpdateBookInstance_DoesNotMutateColumns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db, config.NewForTest())

	instance := testutils.CreateBookInstance(ctx, t, db, nil, models.BookInstanceStatusMaintenance, nil, nil)
	instance.Imprint = "Vintage, 1990"

	backing := make([]string, 1, 2)
	backing[0] = "imprint"
	require.NoError(t, svc.UpdateBookInstance(ctx, instance, UpdateBookInstanceOptions{Columns: backing[:1]}))
	assert.Equal(t, []string{"imprint", ""}, backing[:cap(backing)])
}

func ptr(d time.Time) *time.Time {
	return &d
}
