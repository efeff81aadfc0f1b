// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// Matcher decides whether a slash-separated path relative to a walk root
// is ignored. A glob matches either the whole relative path or its base name.
type Matcher struct {
	globs []string
}

// NewMatcher validates the globs.
func NewMatcher(globs ...string) (*Matcher, error) {
	for _, g := range globs {
		if _, err := path.Match(g, ""); err != nil {
			return nil, fmt.Errorf("bad ignore pattern %q: %w", g, err)
		}
	}
	return &Matcher{globs: globs}, nil
}

// Ignored reports whether rel should be skipped. Dot files and dot
// directories are always ignored.
func (m *Matcher) Ignored(rel string) bool {
	base := path.Base(rel)
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	if m == nil {
		return false
	}
	for _, g := range m.globs {
		if ok, _ := path.Match(g, rel); ok {
			return true
		}
		if ok, _ := path.Match(g, base); ok {
			return true
		}
	}
	return false
}

// FindFiles returns every regular file under rootPath that m does not
// ignore, as sorted slash-separated paths relative to rootPath.
func FindFiles(rootPath string, m *Matcher) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(rootPath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if m.Ignored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// FindDirs returns rootPath and every directory below it that m does not
// ignore, as full paths.
func FindDirs(rootPath string, m *Matcher) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(rootPath, p)
		if err != nil {
			return err
		}
		if rel != "." && m.Ignored(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		dirs = append(dirs, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}
