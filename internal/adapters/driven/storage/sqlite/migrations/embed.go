// Package migrations holds the corpus schema as numbered SQL scripts.
// NNN_name.up.sql applies version NNN; the matching .down.sql reverts it
// by hand.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed *.sql
var FS embed.FS

// Version parses the schema version from a migration file name.
func Version(name string) (int, bool) {
	var v int
	if _, err := fmt.Sscanf(name, "%d_", &v); err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Latest returns the highest version among the up scripts in fsys.
func Latest(fsys fs.FS) (int, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return 0, err
	}
	latest := 0
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		if v, ok := Version(e.Name()); ok && v > latest {
			latest = v
		}
	}
	return latest, nil
}
