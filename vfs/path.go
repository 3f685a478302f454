package vfs

import "github.com/Sena2K/bmpfs"

// RootPath is the synthetic root directory's path. It is never stored in
// the metadata table.
const RootPath = "/"

// validateName checks a path against the specification's flat-namespace
// rules and returns the bare name (path with its leading slash stripped).
// Name lookup elsewhere in this package is always keyed on this bare name.
func validateName(path string) (string, error) {
	if len(path) == 0 || path[0] != '/' {
		return "", bmpfs.ErrInvalidArgument.WithMessage("path must be absolute: " + path)
	}
	name := path[1:]
	if len(name) > bmpfs.MaxNameLength {
		return "", bmpfs.ErrNameTooLong.WithMessage(path)
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return "", bmpfs.ErrInvalidArgument.WithMessage("nested paths are not supported: " + path)
		}
	}
	return name, nil
}
