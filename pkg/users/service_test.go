package users

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

func TestService_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	email := "reader@example.com"
	user, err := svc.Create(ctx, CreateUserOptions{
		Username: "reader",
		Email:    &email,
		Password: "securepassword123",
		RoleName: models.RolePatron,
	})
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	require.NotNil(t, user.Role)
	assert.Equal(t, models.RolePatron, user.Role.Name)
	assert.False(t, user.HasCapability(models.CapabilityCanMarkReturned))

	t.Run("duplicate username differing in case", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateUserOptions{Username: "READER", Password: "securepassword123", RoleName: models.RolePatron})
		var codeErr *errcodes.Error
		require.ErrorAs(t, err, &codeErr)
		assert.Equal(t, "Username already exists", codeErr.Message)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateUserOptions{Username: "other", Email: &email, Password: "securepassword123", RoleName: models.RolePatron})
		var codeErr *errcodes.Error
		require.ErrorAs(t, err, &codeErr)
		assert.Equal(t, "Email already exists", codeErr.Message)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateUserOptions{Username: "ghost", Password: "securepassword123", RoleName: "janitor"})
		var codeErr *errcodes.Error
		require.ErrorAs(t, err, &codeErr)
		assert.Equal(t, "validation_error", codeErr.Code)
	})
}

func TestService_List_FiltersByRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	testutils.CreateUser(ctx, t, db, "zed", models.RolePatron)
	testutils.CreateUser(ctx, t, db, "amy", models.RolePatron)
	testutils.CreateUser(ctx, t, db, "lib", models.RoleLibrarian)

	users, total, err := svc.List(ctx, ListOptions{RoleName: models.RolePatron})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "amy", users[0].Username)
	assert.Equal(t, "zed", users[1].Username)

	users, total, err = svc.List(ctx, ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, users, 1)
}

func TestService_SetRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	user := testutils.CreateUser(ctx, t, db, "promoted", models.RolePatron)
	require.NoError(t, svc.SetRole(ctx, user, models.RoleLibrarian))

	reloaded, err := svc.Retrieve(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.HasCapability(models.CapabilityCanMarkReturned))
}

func TestService_Delete_ReleasesBorrowedInstances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	borrower := testutils.CreateUser(ctx, t, db, "borrower", models.RolePatron)
	book := testutils.CreateBook(ctx, t, db, "Dune", nil)
	due := testutils.Date(2024, time.March, 1)
	instance := testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusOnLoan, &due, borrower)

	require.NoError(t, svc.Delete(ctx, borrower.ID))

	reloaded := &models.BookInstance{}
	err := db.NewSelect().Model(reloaded).Where("bi.id = ?", instance.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Nil(t, reloaded.BorrowerID)
	assert.Equal(t, models.BookInstanceStatusOnLoan, reloaded.Status)

	_, err = svc.Retrieve(ctx, borrower.ID)
	assert.ErrorIs(t, err, errcodes.NotFound("User"))

	t.Run("missing user", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(ctx, borrower.ID), errcodes.NotFound("User"))
	})
}

func TestService_ResetPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db)

	user := testutils.CreateUser(ctx, t, db, "forgetful", models.RolePatron)

	ok, err := svc.VerifyPassword(ctx, user.ID, testutils.TestPassword)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.ResetPassword(ctx, user.ID, "brandnewpassword"))

	ok, err = svc.VerifyPassword(ctx, user.ID, testutils.TestPassword)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.VerifyPassword(ctx, user.ID, "brandnewpassword")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, svc.ResetPassword(ctx, 9999, "whatever123"), errcodes.NotFound("User"))
}
