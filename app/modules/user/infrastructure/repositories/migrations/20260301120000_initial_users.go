package usermigrations

import (
	"context"

	"github.com/uptrace/bun"

	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewCreateTable().Model((*userdb.User)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		_, err := db.NewCreateIndex().
			Model((*userdb.User)(nil)).
			Index("users_blacklisted_idx").
			Column("blacklisted").
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().Model((*userdb.User)(nil)).IfExists().Exec(ctx)
		return err
	})
}
