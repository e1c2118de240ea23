// Package migrations embeds the goose SQL migrations for every supported
// store dialect. Each dialect lives in its own directory.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Dir returns the migrations for one dialect ("postgres" or "sqlite") rooted
// at the directory, as goose.NewProvider expects.
func Dir(dialect string) (fs.FS, error) {
	return fs.Sub(Migrations, dialect)
}
