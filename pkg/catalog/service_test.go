package catalog

import (
	"context"
	"testing"

	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Counts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewTestDB(t)
	svc := NewService(db, config.NewForTest())

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, *counts)

	author := testutils.CreateAuthor(ctx, t, db, "Jane", "Austen")
	genre := testutils.CreateGenre(ctx, t, db, "Romance")
	testutils.CreateLanguage(ctx, t, db, "English")
	book := testutils.CreateBook(ctx, t, db, "Emma", author, genre)
	testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusAvailable, nil, nil)
	testutils.CreateBookInstance(ctx, t, db, book, models.BookInstanceStatusReserved, nil, nil)

	counts, err = svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{
		Books:              1,
		Instances:          2,
		InstancesAvailable: 1,
		Authors:            1,
		Genres:             1,
		Languages:          1,
	}, *counts)
}
