package matchmigrations

import (
	"context"

	"github.com/uptrace/bun"

	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewCreateTable().Model((*matchdb.Match)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().
			Model((*matchdb.Match)(nil)).
			Index("matches_state_idx").
			Column("state").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
		_, err := db.NewCreateIndex().
			Model((*matchdb.Match)(nil)).
			Index("matches_report_deadline_idx").
			Column("report_deadline").
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().Model((*matchdb.Match)(nil)).IfExists().Exec(ctx)
		return err
	})
}
