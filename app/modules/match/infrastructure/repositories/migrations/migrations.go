// Package matchmigrations holds schema migrations for the match tables.
package matchmigrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
