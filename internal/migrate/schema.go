package migrate

import (
	"embed"
	"io/fs"
)

//go:embed sql
var embedded embed.FS

// Default directories inside Schema.
const (
	MigrationsDir = "migrations"
	SeedsDir      = "seeds"
)

// Schema returns the SQL files shipped with the binary.
func Schema() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}
