package portlock

import (
	"errors"
	"io/fs"
	"os"
)

// linkNoReplace publishes oldpath at newpath with link(2), which refuses to
// overwrite, then drops oldpath.
func linkNoReplace(oldpath, newpath string) error {
	if err := os.Link(oldpath, newpath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &os.LinkError{Op: "link", Old: oldpath, New: newpath, Err: fs.ErrExist}
		}
		return err
	}
	return os.Remove(oldpath)
}
