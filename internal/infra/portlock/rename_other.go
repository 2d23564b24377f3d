//go:build !linux

package portlock

func renameNoReplace(oldpath, newpath string) error {
	return linkNoReplace(oldpath, newpath)
}
