package levels

import (
	"embed"
	"io/fs"
	"path/filepath"
	"sort"
)

//go:embed *.nav
var LevelsFS embed.FS

// Names lists the embedded navmeshes.
func Names() []string {
	names, err := fs.Glob(LevelsFS, "*.nav")
	if err != nil {
		return nil
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is a bare file name of an embedded navmesh.
// Paths with a directory part never match.
func Has(name string) bool {
	if name == "" || filepath.Base(name) != name {
		return false
	}
	_, err := fs.Stat(LevelsFS, name)
	return err == nil
}
