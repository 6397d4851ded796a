package loans

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type Service struct {
	db          *bun.DB
	defaultDays int
	maxDays     int
	now         func() time.Time
}

func NewService(db *bun.DB, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		defaultDays: cfg.RenewalDefaultWeeks * 7,
		maxDays:     cfg.RenewalMaxWeeks * 7,
		now:         time.Now,
	}
}

// Today is the current calendar date as seen by the service clock.
func (svc *Service) Today() time.Time {
	return models.DateOf(svc.now())
}

// DefaultRenewalDate is the due date proposed when renewing.
func (svc *Service) DefaultRenewalDate() time.Time {
	return svc.Today().AddDate(0, 0, svc.defaultDays)
}

// CheckDueBack accepts dates from today through today plus the renewal
// maximum, both inclusive.
func (svc *Service) CheckDueBack(dueBack time.Time) error {
	today := svc.Today()
	dueBack = models.DateOf(dueBack)
	if dueBack.Before(today) {
		return errcodes.InvalidRenewalDate("date in past")
	}
	if dueBack.After(today.AddDate(0, 0, svc.maxDays)) {
		return errcodes.InvalidRenewalDate("date too far in future")
	}
	return nil
}

// Renew moves a copy's due date. Status and borrower are left as they are.
func (svc *Service) Renew(ctx context.Context, instanceID string, dueBack time.Time) (*models.BookInstance, error) {
	dueBack = models.DateOf(dueBack)

	instance := &models.BookInstance{}
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := loadInstance(ctx, tx, instanceID, instance); err != nil {
			return err
		}
		if err := svc.CheckDueBack(dueBack); err != nil {
			return err
		}

		instance.DueBack = &dueBack
		instance.UpdatedAt = time.Now()
		_, err := tx.NewUpdate().
			Model(instance).
			Column("due_back", "updated_at").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("loan renewed", logger.Data{"book_instance_id": instanceID, "due_back": dueBack.Format(models.DateLayout)})
	return instance, nil
}

// MarkAvailable puts a copy back on the shelf from maintenance, a released
// hold, or a return.
func (svc *Service) MarkAvailable(ctx context.Context, instanceID string) (*models.BookInstance, error) {
	return svc.transition(ctx, instanceID, models.BookInstanceStatusAvailable, []string{
		models.BookInstanceStatusMaintenance,
		models.BookInstanceStatusReserved,
		models.BookInstanceStatusOnLoan,
	}, clearLoan)
}

// Reserve holds an available copy, optionally for a specific borrower.
func (svc *Service) Reserve(ctx context.Context, instanceID string, borrowerID *int) (*models.BookInstance, error) {
	return svc.transition(ctx, instanceID, models.BookInstanceStatusReserved, []string{
		models.BookInstanceStatusAvailable,
	}, func(ctx context.Context, tx bun.Tx, bi *models.BookInstance) error {
		if borrowerID != nil {
			if err := checkBorrower(ctx, tx, *borrowerID); err != nil {
				return err
			}
		}
		bi.BorrowerID = borrowerID
		bi.DueBack = nil
		return nil
	})
}

// CheckOut lends an available or reserved copy to borrowerID until dueBack.
func (svc *Service) CheckOut(ctx context.Context, instanceID string, borrowerID int, dueBack time.Time) (*models.BookInstance, error) {
	dueBack = models.DateOf(dueBack)
	return svc.transition(ctx, instanceID, models.BookInstanceStatusOnLoan, []string{
		models.BookInstanceStatusAvailable,
		models.BookInstanceStatusReserved,
	}, func(ctx context.Context, tx bun.Tx, bi *models.BookInstance) error {
		if err := svc.CheckDueBack(dueBack); err != nil {
			return err
		}
		if err := checkBorrower(ctx, tx, borrowerID); err != nil {
			return err
		}
		bi.BorrowerID = &borrowerID
		bi.DueBack = &dueBack
		return nil
	})
}

// Return checks an on-loan copy back in and clears its loan fields.
func (svc *Service) Return(ctx context.Context, instanceID string) (*models.BookInstance, error) {
	return svc.transition(ctx, instanceID, models.BookInstanceStatusAvailable, []string{
		models.BookInstanceStatusOnLoan,
	}, clearLoan)
}

// SendToMaintenance pulls a copy from circulation whatever its status.
func (svc *Service) SendToMaintenance(ctx context.Context, instanceID string) (*models.BookInstance, error) {
	return svc.transition(ctx, instanceID, models.BookInstanceStatusMaintenance, models.BookInstanceStatuses, clearLoan)
}

type mutation func(ctx context.Context, tx bun.Tx, bi *models.BookInstance) error

func clearLoan(_ context.Context, _ bun.Tx, bi *models.BookInstance) error {
	bi.DueBack = nil
	bi.BorrowerID = nil
	return nil
}

func (svc *Service) transition(ctx context.Context, instanceID, to string, from []string, mutate mutation) (*models.BookInstance, error) {
	instance := &models.BookInstance{}
	var prev string
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := loadInstance(ctx, tx, instanceID, instance); err != nil {
			return err
		}
		prev = instance.Status
		if !slices.Contains(from, prev) {
			return errcodes.InvalidStatusTransition(models.BookInstanceStatusLabel(prev), models.BookInstanceStatusLabel(to))
		}
		if err := mutate(ctx, tx, instance); err != nil {
			return err
		}

		instance.Status = to
		instance.UpdatedAt = time.Now()
		_, err := tx.NewUpdate().
			Model(instance).
			Column("status", "due_back", "borrower_id", "updated_at").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("book instance status changed", logger.Data{
		"book_instance_id": instanceID,
		"from":             prev,
		"to":               to,
	})
	return instance, nil
}

// ListBorrowedByUser pages through the copies userID has on loan, soonest
// due first. Copies with no due date sort first.
func (svc *Service) ListBorrowedByUser(ctx context.Context, userID, limit, offset int) ([]*models.BookInstance, int, error) {
	instances := []*models.BookInstance{}
	total, err := svc.db.
		NewSelect().
		Model(&instances).
		Relation("Book").
		Where("bi.status = ?", models.BookInstanceStatusOnLoan).
		Where("bi.borrower_id = ?", userID).
		Order("bi.due_back ASC", "bi.id ASC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	svc.annotate(instances)
	return instances, total, nil
}

// ListAllBorrowed returns every copy on loan with its borrower.
func (svc *Service) ListAllBorrowed(ctx context.Context) ([]*models.BookInstance, error) {
	instances := []*models.BookInstance{}
	err := svc.db.
		NewSelect().
		Model(&instances).
		Relation("Book").
		Relation("Borrower").
		Where("bi.status = ?", models.BookInstanceStatusOnLoan).
		Order("bi.due_back ASC", "bi.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	svc.annotate(instances)
	return instances, nil
}

func (svc *Service) annotate(instances []*models.BookInstance) {
	today := svc.Today()
	for _, bi := range instances {
		bi.Annotate(today)
	}
}

// loadInstance reads the copy id into instance. db is the service's database
// outside a transaction and the transaction inside one.
func loadInstance(ctx context.Context, db bun.IDB, id string, instance *models.BookInstance) error {
	err := db.NewSelect().
		Model(instance).
		Where("bi.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Book instance")
		}
		return errors.WithStack(err)
	}
	return nil
}

func checkBorrower(ctx context.Context, tx bun.Tx, userID int) error {
	exists, err := tx.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", userID).
		Where("is_active = ?", true).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.ValidationError(`"borrower_id" doesn't match an active user`)
	}
	return nil
}
