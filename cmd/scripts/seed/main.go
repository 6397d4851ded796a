package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/locallibrary/catalog/pkg/authors"
	"github.com/locallibrary/catalog/pkg/bookinstances"
	"github.com/locallibrary/catalog/pkg/books"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/database"
	"github.com/locallibrary/catalog/pkg/genres"
	"github.com/locallibrary/catalog/pkg/languages"
	"github.com/locallibrary/catalog/pkg/migrations"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/users"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type seedBook struct {
	title   string
	isbn    string
	summary string
	author  int
	genres  []int
}

var (
	seedGenres    = []string{"Fantasy", "Science Fiction", "French Poetry", "Mystery"}
	seedLanguages = []string{"English", "French", "Spanish"}
	seedAuthors   = [][2]string{{"Patrick", "Rothfuss"}, {"Ursula", "Le Guin"}, {"Arthur", "Rimbaud"}}
	seedBooks     = []seedBook{
		{"The Name of the Wind", "9780756404741", "<p>Told in Kvothe's own voice.</p>", 0, []int{0}},
		{"The Wise Man's Fear", "9780756407919", "Day two of the chronicle.", 0, []int{0}},
		{"The Left Hand of Darkness", "9780441478125", "An envoy on the planet Gethen.", 1, []int{1}},
		{"A Wizard of Earthsea", "9780547773742", "Ged learns the cost of power.", 1, []int{0}},
		{"Une saison en enfer", "9782070327287", "<em>Prose poems</em>, 1873.", 2, []int{2}},
	}
)

func main() {
	ctx := context.Background()
	log := logger.New()

	var opts struct {
		Instances int    `short:"n" long:"instances" default:"3" description:"Copies to create per book"`
		Password  string `short:"p" long:"password" default:"password123" description:"Password for the seeded accounts"`
	}

	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		log.Err(err).Fatal("flags parse error")
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		log.Err(err).Fatal("migrations error")
	}

	if err := seed(ctx, db, cfg, opts.Instances, opts.Password); err != nil {
		log.Err(err).Fatal("seed error")
	}
	log.Info("seed complete")
}

func seed(ctx context.Context, db *bun.DB, cfg *config.Config, instancesPerBook int, password string) error {
	userService := users.NewService(db)
	accounts := map[string]string{"admin": models.RoleAdmin, "librarian": models.RoleLibrarian, "patron": models.RolePatron}
	createdUsers := map[string]*models.User{}
	for username, role := range accounts {
		user, err := userService.Create(ctx, users.CreateUserOptions{Username: username, Password: password, RoleName: role})
		if err != nil {
			return errors.Wrapf(err, "failed to create user %s", username)
		}
		createdUsers[username] = user
	}

	genreService := genres.NewService(db)
	genreIDs := make([]int, len(seedGenres))
	for i, name := range seedGenres {
		g := &models.Genre{Name: name}
		if err := genreService.CreateGenre(ctx, g); err != nil {
			return errors.Wrapf(err, "failed to create genre %s", name)
		}
		genreIDs[i] = g.ID
	}

	languageService := languages.NewService(db)
	for _, name := range seedLanguages {
		if err := languageService.CreateLanguage(ctx, &models.Language{Name: name}); err != nil {
			return errors.Wrapf(err, "failed to create language %s", name)
		}
	}

	authorService := authors.NewService(db)
	authorIDs := make([]int, len(seedAuthors))
	for i, name := range seedAuthors {
		a := &models.Author{FirstName: name[0], LastName: name[1]}
		if err := authorService.CreateAuthor(ctx, a); err != nil {
			return errors.Wrapf(err, "failed to create author %s %s", name[0], name[1])
		}
		authorIDs[i] = a.ID
	}

	bookService := books.NewService(db)
	instanceService := bookinstances.NewService(db, cfg)
	patron := createdUsers["patron"]
	statuses := models.BookInstanceStatuses
	for i, sb := range seedBooks {
		b := &models.Book{Title: sb.title, ISBN: sb.isbn, Summary: sb.summary, AuthorID: &authorIDs[sb.author]}
		ids := make([]int, len(sb.genres))
		for j, g := range sb.genres {
			ids[j] = genreIDs[g]
		}
		if err := bookService.CreateBook(ctx, b, ids); err != nil {
			return errors.Wrapf(err, "failed to create book %s", sb.title)
		}

		for n := 0; n < instancesPerBook; n++ {
			bi := &models.BookInstance{
				BookID:  &b.ID,
				Imprint: fmt.Sprintf("Seed Press, %d", 2000+i),
				Status:  statuses[(i+n)%len(statuses)],
			}
			if bi.Status == models.BookInstanceStatusOnLoan {
				due := models.DateOf(time.Now()).AddDate(0, 0, 7*(n%3+1))
				bi.DueBack = &due
				bi.BorrowerID = &patron.ID
			}
			if err := instanceService.CreateBookInstance(ctx, bi); err != nil {
				return errors.Wrapf(err, "failed to create copy of %s", sb.title)
			}
		}
	}

	return nil
}
