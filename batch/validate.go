package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	ErrNotFound      = errors.New("path does not exist")
	ErrNotADirectory = errors.New("path is not a directory")
	ErrCannotCreate  = errors.New("cannot create directory")
	ErrNoFiles       = errors.New("no .CR2 files could be found")
)

// FatalError aborts a run before any file is converted.
type FatalError struct {
	Op   string
	Path string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// ValidateSource checks that path exists and is a directory.
func ValidateSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &FatalError{Op: "source", Path: path, Err: ErrNotFound}
		}
		return &FatalError{Op: "source", Path: path, Err: err}
	}
	if !info.IsDir() {
		return &FatalError{Op: "source", Path: path, Err: ErrNotADirectory}
	}
	return nil
}

// EnsureDestination creates path and any missing parents. created reports
// whether anything had to be made.
func EnsureDestination(path string) (created bool, err error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, &FatalError{Op: "destination", Path: path,
			Err: fmt.Errorf("%w: %w", ErrCannotCreate, ErrNotADirectory)}
	case !errors.Is(err, fs.ErrNotExist):
		return false, &FatalError{Op: "destination", Path: path, Err: fmt.Errorf("%w: %w", ErrCannotCreate, err)}
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, &FatalError{Op: "destination", Path: path, Err: fmt.Errorf("%w: %w", ErrCannotCreate, err)}
	}
	return true, nil
}
