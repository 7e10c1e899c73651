// Package migrations embeds SQL migration files into the binary.
//
// This allows lumenctl to run migrations without the SQL files present
// on the filesystem - they're compiled into the executable.
package migrations

import (
	"embed"

	"github.com/lumenctl/lumen-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
