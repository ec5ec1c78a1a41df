package vos

import (
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

// Abs resolves name against the working directory dir.
func Abs(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func findExecutable(fsys afero.Fs, file string) error {
	d, err := fsys.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories named by
// the PATH variable of env. If file contains a slash, it is tried directly
// and the PATH is not consulted. Relative results are resolved against dir so
// the returned path is usable regardless of the caller's own working
// directory.
func LookPath(fsys afero.Fs, env VEnv, dir, file string) (string, error) {
	if strings.Contains(file, "/") {
		path := Abs(dir, file)
		if err := findExecutable(fsys, path); err != nil {
			return "", err
		}
		return path, nil
	}
	for _, elem := range filepath.SplitList(env.Getenv("PATH")) {
		if elem == "" {
			// Unix shell semantics: path element "" means "."
			elem = "."
		}
		path := Abs(dir, filepath.Join(elem, file))
		if err := findExecutable(fsys, path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}
