package core

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileScope bounds a directory walk for SQL sources.
type FileScope struct {
	// Path is the root directory of the walk.
	Path string
	// Include holds doublestar glob patterns relative to Path. Empty
	// means every file with a recognized SQL extension.
	Include []string
	// Exclude holds doublestar glob patterns that remove matches.
	Exclude []string
	// MaxFileSize skips larger files; zero means no limit.
	MaxFileSize int64
}

// sqlExtensions are the file suffixes picked up by the default scope.
var sqlExtensions = []string{".sql", ".ora.sql", ".pls", ".plb", ".prc", ".fnc", ".trg"}

// FileWalker discovers SQL source files under a scope.
type FileWalker struct{}

// NewFileWalker creates a file walker.
func NewFileWalker() *FileWalker {
	return &FileWalker{}
}

// Walk returns the matching files in deterministic (sorted) order.
func (fw *FileWalker) Walk(scope FileScope) ([]string, error) {
	if scope.Path == "" {
		return nil, fmt.Errorf("scope path is required")
	}
	info, err := os.Stat(scope.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid scope path: %w", err)
	}
	if !info.IsDir() {
		return []string{scope.Path}, nil
	}

	var out []string
	err = filepath.WalkDir(scope.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(scope.Path, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !fw.matches(rel, scope) {
			return nil
		}
		if scope.MaxFileSize > 0 {
			if fi, err := d.Info(); err == nil && fi.Size() > scope.MaxFileSize {
				return nil
			}
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (fw *FileWalker) matches(rel string, scope FileScope) bool {
	included := false
	if len(scope.Include) == 0 {
		for _, ext := range sqlExtensions {
			if strings.HasSuffix(strings.ToLower(rel), ext) {
				included = true
				break
			}
		}
	} else {
		for _, pattern := range scope.Include {
			if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
				included = true
				break
			}
		}
	}
	if !included {
		return false
	}
	for _, pattern := range scope.Exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return false
		}
	}
	return true
}
