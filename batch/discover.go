package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cr2jpeg/logger"
)

const rawExtension = ".cr2"

func isRaw(name string) bool {
	return strings.EqualFold(filepath.Ext(name), rawExtension)
}

// Discover returns the CR2 files under root in walk order. Without
// recursive only direct children of root are considered.
//
// Symlinks are followed: root itself, links to files, and in recursive
// mode links to directories. Each real directory is entered once, so link
// cycles end. Unreadable entries below root are skipped with a warning;
// only a failure on root itself is returned.
func Discover(root string, recursive bool, console *logger.Console) ([]string, error) {
	if console == nil {
		console = logger.Discard()
	}

	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("error while exploring directory: %w", err)
	}

	w := &walker{
		recursive: recursive,
		console:   console,
		visited:   make(map[string]bool),
	}
	if err := w.walk(root, resolved); err != nil {
		return nil, fmt.Errorf("error while exploring directory: %w", err)
	}

	return w.files, nil
}

type walker struct {
	recursive bool
	console   *logger.Console
	visited   map[string]bool
	files     []string
}

// walk lists the real directory dir, reporting paths below shown, the
// name the user reached it by.
func (w *walker) walk(shown, dir string) error {
	w.visited[dir] = true

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		name := shown
		if rel, relErr := filepath.Rel(dir, path); relErr == nil && rel != "." {
			name = filepath.Join(shown, rel)
		}

		if err != nil {
			if path == dir {
				return err
			}
			w.console.Warn("Skipping %s: %v", name, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !w.recursive || w.visited[path] {
				return filepath.SkipDir
			}
			w.visited[path] = true
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return w.follow(name, path)
		}

		if isRaw(d.Name()) {
			w.files = append(w.files, name)
		}
		return nil
	})
}

func (w *walker) follow(name, link string) error {
	target, err := filepath.EvalSymlinks(link)
	if err != nil {
		w.console.Warn("Skipping %s: %v", name, err)
		return nil
	}
	info, err := os.Stat(target)
	if err != nil {
		w.console.Warn("Skipping %s: %v", name, err)
		return nil
	}

	if !info.IsDir() {
		if isRaw(name) {
			w.files = append(w.files, name)
		}
		return nil
	}

	if !w.recursive || w.visited[target] {
		return nil
	}
	if err := w.walk(name, target); err != nil {
		w.console.Warn("Skipping %s: %v", name, err)
	}
	return nil
}
