package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	roleCapabilities := []struct {
		name         string
		capabilities []string
	}{
		{"admin", []string{"can_mark_returned", "can_manage_users"}},
		{"librarian", []string{"can_mark_returned"}},
		{"patron", nil},
	}

	up := func(_ context.Context, db *bun.DB) error {
		for _, rc := range roleCapabilities {
			_, err := db.Exec(`INSERT INTO roles (name, is_system) VALUES (?, TRUE)`, rc.name)
			if err != nil {
				return errors.WithStack(err)
			}

			var roleID int
			err = db.QueryRow(`SELECT id FROM roles WHERE name = ?`, rc.name).Scan(&roleID)
			if err != nil {
				return errors.WithStack(err)
			}

			for _, capability := range rc.capabilities {
				_, err = db.Exec(`INSERT INTO permissions (role_id, capability) VALUES (?, ?)`, roleID, capability)
				if err != nil {
					return errors.WithStack(err)
				}
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, rc := range roleCapabilities {
			_, err := db.Exec(`DELETE FROM roles WHERE name = ?`, rc.name)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
