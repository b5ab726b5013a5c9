// Package migrations carries the journal schema inside the binary.
// Importing it for side effects points database.Migrate at these files.
package migrations

import (
	"embed"

	"github.com/nerrad567/re-shadow-harness/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
	database.MigrationsDir = "."
}
