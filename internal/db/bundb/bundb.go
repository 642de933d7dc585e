// Package bundb bootstraps the bun database handle shared by the user and
// match repositories.
package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
)

// DBService owns the bun handle and the per-module repositories built on it.
type DBService struct {
	User  userdb.Repository
	Match matchdb.Repository
	db    *bun.DB
}

// GetDB returns the underlying database connection pool.
func (s *DBService) GetDB() *bun.DB {
	return s.db
}

// NewBunDBService connects to Postgres and constructs the repositories.
func NewBunDBService(ctx context.Context, dsn string) (*DBService, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	db.RegisterModel((*userdb.User)(nil))
	db.RegisterModel((*matchdb.Match)(nil))

	return &DBService{
		User:  &userdb.UserDBImpl{DB: db},
		Match: &matchdb.MatchDBImpl{DB: db},
		db:    db,
	}, nil
}
