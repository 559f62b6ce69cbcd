// Package discover walks an RPA project tree and selects workflow files.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Error reports an invalid project root. It is fatal for the whole run.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("discover %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("discover %s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Workflows returns every file under root with the given extension, as
// slash-separated paths relative to root, in lexicographic order. An empty
// result is not an error.
func Workflows(root, extension string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &Error{Path: root, Reason: "project root not accessible", Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Path: root, Reason: "project root is not a directory"}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), extension) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &Error{Path: root, Reason: "walk failed", Err: err}
	}
	sort.Strings(files)
	return files, nil
}

// ExcludeScaffold drops files whose base name is on the scaffold denylist.
func ExcludeScaffold(files, scaffold []string) []string {
	deny := make(map[string]bool, len(scaffold))
	for _, name := range scaffold {
		deny[name] = true
	}
	kept := make([]string, 0, len(files))
	for _, f := range files {
		if deny[filepath.Base(f)] {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}
