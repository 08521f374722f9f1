package lightcurve

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Sample files are named learn*.txt.
const (
	Prefix = "learn"
	Suffix = ".txt"
)

// Discover lists the sample files in dir following the learn*.txt naming
// convention, sorted by name. Symlinks to regular files count as sample
// files. No match is not an error, the result is empty.
func Discover(fs afero.Fs, dir string) ([]string, error) {
	return DiscoverMatching(fs, dir, Prefix, Suffix)
}

// DiscoverMatching is Discover with a custom name prefix and suffix.
func DiscoverMatching(fs afero.Fs, dir, prefix, suffix string) ([]string, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "lightcurve: listing %s", dir)
	}
	files := []string{}
	for _, fi := range infos {
		name := fi.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		path := filepath.Join(dir, name)
		if fi.Mode()&os.ModeSymlink != 0 {
			// dangling links are skipped like any other non-file
			if fi, err = fs.Stat(path); err != nil {
				continue
			}
		}
		if fi.Mode().IsRegular() {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}
