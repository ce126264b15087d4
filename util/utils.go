package util

import (
	"os"

	"github.com/pkg/errors"
)

// ErrNotDirectory is returned when a path exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// DirExists reports whether the directory name exists. It fails with
// ErrNotDirectory if name is something other than a directory, and with the
// stat error if existence can't be decided.
func DirExists(name string) (bool, error) {
	st, err := os.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !st.IsDir() {
		return true, errors.Wrap(ErrNotDirectory, name)
	}
	return true, nil
}
