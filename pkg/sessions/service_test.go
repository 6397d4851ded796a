package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_IncrementVisits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(testutils.NewTestDB(t), time.Hour)

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		got, err := svc.IncrementVisits(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	stored, err := svc.RetrieveSession(ctx, session.ID)
	require.NoError(t, err)
	values, err := Values(stored)
	require.NoError(t, err)
	assert.Equal(t, 3, values[VisitsKey])
}

func TestService_IncrementVisits_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(testutils.NewTestDB(t), time.Hour)

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IncrementVisits(ctx, session.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.IncrementVisits(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, got)
}

func TestService_ExpiredSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(testutils.NewTestDB(t), time.Hour)

	session, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.RetrieveSession(ctx, session.ID)
	assert.ErrorIs(t, err, errcodes.NotFound("Session"))
	_, err = svc.IncrementVisits(ctx, session.ID)
	assert.ErrorIs(t, err, errcodes.NotFound("Session"))

	n, err := svc.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
