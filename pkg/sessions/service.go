package sessions

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

// VisitsKey is the counter IncrementVisits bumps.
const VisitsKey = "num_visits"

type Service struct {
	db     *bun.DB
	maxAge time.Duration
	now    func() time.Time
}

func NewService(db *bun.DB, maxAge time.Duration) *Service {
	return &Service{db: db, maxAge: maxAge, now: time.Now}
}

// CreateSession starts an empty session that expires after maxAge.
func (svc *Service) CreateSession(ctx context.Context) (*models.Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	now := svc.now()
	session := &models.Session{
		ID:        id.String(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(svc.maxAge),
		Values:    "{}",
	}
	if _, err := svc.db.NewInsert().Model(session).Exec(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return session, nil
}

// RetrieveSession returns the live session with id. Expired sessions are
// reported as not found.
func (svc *Service) RetrieveSession(ctx context.Context, id string) (*models.Session, error) {
	session := &models.Session{}
	err := svc.db.NewSelect().
		Model(session).
		Where("s.id = ?", id).
		Where("s.expires_at > ?", svc.now()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Session")
		}
		return nil, errors.WithStack(err)
	}
	return session, nil
}

// Values decodes the session's counters.
func Values(session *models.Session) (map[string]int, error) {
	values := map[string]int{}
	if session.Values == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(session.Values), &values); err != nil {
		return nil, errors.Wrap(err, "malformed session values")
	}
	return values, nil
}

// IncrementVisits bumps the visit counter and returns the new value, so the
// first visit reads 1. The increment is a single statement and each call
// also slides the session's expiry.
func (svc *Service) IncrementVisits(ctx context.Context, sessionID string) (int, error) {
	now := svc.now()
	var raw string
	err := svc.db.NewRaw(`
		UPDATE sessions
		SET "values" = json_set("values", '$.`+VisitsKey+`', COALESCE(json_extract("values", '$.`+VisitsKey+`'), 0) + 1),
			updated_at = ?,
			expires_at = ?
		WHERE id = ? AND expires_at > ?
		RETURNING "values"`,
		now, now.Add(svc.maxAge), sessionID, now,
	).Scan(ctx, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errcodes.NotFound("Session")
		}
		return 0, errors.WithStack(err)
	}

	values, err := Values(&models.Session{Values: raw})
	if err != nil {
		return 0, err
	}
	return values[VisitsKey], nil
}

// DeleteExpired removes sessions past their expiry and reports how many.
func (svc *Service) DeleteExpired(ctx context.Context) (int, error) {
	result, err := svc.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("expires_at <= ?", svc.now()).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}
