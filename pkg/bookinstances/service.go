package bookinstances

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/loans"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type RetrieveBookInstanceOptions struct {
	ID *string
}

type ListBookInstancesOptions struct {
	Limit      *int
	Offset     *int
	BookID     *int
	BorrowerID *int
	Status     *string

	includeTotal bool
}

type UpdateBookInstanceOptions struct {
	Columns []string
}

type Service struct {
	db          *bun.DB
	loanService *loans.Service
}

func NewService(db *bun.DB, cfg *config.Config) *Service {
	return &Service{db: db, loanService: loans.NewService(db, cfg)}
}

// CreateBookInstance inserts a copy with a fresh UUID. A blank status
// defaults to maintenance.
func (svc *Service) CreateBookInstance(ctx context.Context, instance *models.BookInstance) error {
	if instance.ID == "" {
		id, err := uuid.NewRandom()
		if err != nil {
			return errors.WithStack(err)
		}
		instance.ID = id.String()
	}
	if instance.Status == "" {
		instance.Status = models.BookInstanceStatusMaintenance
	}
	normalize(instance)
	if err := svc.checkLoan(instance, nil); err != nil {
		return err
	}

	now := time.Now()
	instance.CreatedAt = now
	instance.UpdatedAt = now

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkReferences(ctx, tx, instance); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(instance).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("book instance created", logger.Data{"book_instance_id": instance.ID, "status": instance.Status})
	return nil
}

func (svc *Service) RetrieveBookInstance(ctx context.Context, opts RetrieveBookInstanceOptions) (*models.BookInstance, error) {
	instance := &models.BookInstance{}

	q := svc.db.
		NewSelect().
		Model(instance).
		Relation("Book").
		Relation("Borrower")

	if opts.ID != nil {
		q = q.Where("bi.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book instance")
		}
		return nil, errors.WithStack(err)
	}

	return instance, nil
}

func (svc *Service) ListBookInstances(ctx context.Context, opts ListBookInstancesOptions) ([]*models.BookInstance, error) {
	bi, _, err := svc.listBookInstancesWithTotal(ctx, opts)
	return bi, errors.WithStack(err)
}

func (svc *Service) ListBookInstancesWithTotal(ctx context.Context, opts ListBookInstancesOptions) ([]*models.BookInstance, int, error) {
	opts.includeTotal = true
	return svc.listBookInstancesWithTotal(ctx, opts)
}

func (svc *Service) listBookInstancesWithTotal(ctx context.Context, opts ListBookInstancesOptions) ([]*models.BookInstance, int, error) {
	instances := []*models.BookInstance{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&instances).
		Relation("Book").
		Relation("Borrower").
		Order("bi.due_back ASC", "bi.id ASC")

	if opts.BookID != nil {
		q = q.Where("bi.book_id = ?", *opts.BookID)
	}
	if opts.BorrowerID != nil {
		q = q.Where("bi.borrower_id = ?", *opts.BorrowerID)
	}
	if opts.Status != nil {
		q = q.Where("bi.status = ?", *opts.Status)
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

	return instances, total, nil
}

func (svc *Service) UpdateBookInstance(ctx context.Context, instance *models.BookInstance, opts UpdateBookInstanceOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}
	if !models.IsValidBookInstanceStatus(instance.Status) {
		return errcodes.ValidationError(`"status" must be one of "m", "o", "a", "r"`)
	}
	normalize(instance)
	if err := svc.checkLoan(instance, opts.Columns); err != nil {
		return err
	}

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkReferences(ctx, tx, instance); err != nil {
			return err
		}

		instance.UpdatedAt = time.Now()
		columns := append(slices.Clone(opts.Columns), "updated_at")

		result, err := tx.
			NewUpdate().
			Model(instance).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return errcodes.NotFound("Book instance")
		}
		return nil
	})
}

// checkLoan rejects an on-loan copy without a borrower or due date. The due
// date must fall in the renewal window whenever the write sets status or
// due_back; a nil columns list means every column is written.
func (svc *Service) checkLoan(instance *models.BookInstance, columns []string) error {
	if instance.Status != models.BookInstanceStatusOnLoan {
		return nil
	}
	if instance.BorrowerID == nil {
		return errcodes.ValidationError(`"borrower_id" is required for a copy on loan`)
	}
	if instance.DueBack == nil {
		return errcodes.ValidationError(`"due_back" is required for a copy on loan`)
	}
	if columns == nil || slices.Contains(columns, "status") || slices.Contains(columns, "due_back") {
		return svc.loanService.CheckDueBack(*instance.DueBack)
	}
	return nil
}

func (svc *Service) DeleteBookInstance(ctx context.Context, id string) error {
	result, err := svc.db.
		NewDelete().
		Model((*models.BookInstance)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errcodes.NotFound("Book instance")
	}
	return nil
}

// CountByStatus counts copies currently in status.
func (svc *Service) CountByStatus(ctx context.Context, status string) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.BookInstance)(nil)).
		Where("status = ?", status).
		Count(ctx)
	return count, errors.WithStack(err)
}

func normalize(instance *models.BookInstance) {
	if instance.DueBack != nil {
		d := models.DateOf(*instance.DueBack)
		instance.DueBack = &d
	}
}

func checkReferences(ctx context.Context, db bun.IDB, instance *models.BookInstance) error {
	if instance.BookID != nil {
		exists, err := db.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", *instance.BookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.ValidationError(`"book_id" doesn't match a book`)
		}
	}
	if instance.BorrowerID != nil {
		exists, err := db.NewSelect().
			Model((*models.User)(nil)).
			Where("id = ?", *instance.BorrowerID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.ValidationError(`"borrower_id" doesn't match a user`)
		}
	}
	return nil
}
