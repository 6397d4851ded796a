package catalog

import (
	"context"

	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Counts summarizes the catalog for the home page.
type Counts struct {
	Books              int `json:"num_books"`
	Instances          int `json:"num_instances"`
	InstancesAvailable int `json:"num_instances_available"`
	Authors            int `json:"num_authors"`
	Genres             int `json:"num_genres"`
	Languages          int `json:"num_languages"`
}

type Service struct {
	db              *bun.DB
	instanceService *bookinstances.Service
}

func NewService(db *bun.DB, cfg *config.Config) *Service {
	return &Service{db: db, instanceService: bookinstances.NewService(db, cfg)}
}

func (svc *Service) Counts(ctx context.Context) (*Counts, error) {
	counts := &Counts{}

	tables := []struct {
		model interface{}
		dest  *int
	}{
		{(*models.Book)(nil), &counts.Books},
		{(*models.BookInstance)(nil), &counts.Instances},
		{(*models.Author)(nil), &counts.Authors},
		{(*models.Genre)(nil), &counts.Genres},
		{(*models.Language)(nil), &counts.Languages},
	}
	for _, tbl := range tables {
		n, err := svc.db.NewSelect().Model(tbl.model).Count(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		*tbl.dest = n
	}

	available, err := svc.instanceService.CountByStatus(ctx, models.BookInstanceStatusAvailable)
	if err != nil {
		return nil, err
	}
	counts.InstancesAvailable = available

	return counts, nil
}
