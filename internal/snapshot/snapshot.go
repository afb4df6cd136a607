// Package snapshot captures the file state of a working directory before
// and after an invocation, so the harness can tell which files a tool
// created, overwrote, or removed.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// State maps directory-relative paths to their byte content. Absent files
// have no entry.
type State map[string][]byte

// Has reports whether the path existed at capture time.
func (s State) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Content returns the captured bytes for a path.
func (s State) Content(path string) ([]byte, bool) {
	data, ok := s[path]
	return data, ok
}

// Capture records the content of the named files under dir, keyed by
// directory-relative path. Missing paths are omitted; directories are
// skipped. Restricting the capture to the paths a case declares keeps
// the comparison deterministic and cheap. With no names it falls back
// to walking the whole directory, for cases that declare no paths at
// all.
func Capture(dir string, names ...string) (State, error) {
	st := make(State)

	if len(names) > 0 {
		for _, name := range names {
			path := filepath.Join(dir, name)
			info, err := os.Stat(path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, fmt.Errorf("failed to stat %s: %w", name, err)
			}
			if info.IsDir() {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to capture %s: %w", name, err)
			}
			st[name] = data
		}
		return st, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			// Deleted between the walk listing and the read.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		st[rel] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture %s: %w", dir, err)
	}
	return st, nil
}

// Changes lists the paths that differ between two captures, sorted.
type Changes struct {
	Created  []string `json:"created,omitempty"`
	Removed  []string `json:"removed,omitempty"`
	Modified []string `json:"modified,omitempty"`
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Created) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Diff compares two captures of the same directory.
func Diff(before, after State) Changes {
	var c Changes

	for path, afterData := range after {
		beforeData, ok := before[path]
		if !ok {
			c.Created = append(c.Created, path)
			continue
		}
		if !bytes.Equal(beforeData, afterData) {
			c.Modified = append(c.Modified, path)
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			c.Removed = append(c.Removed, path)
		}
	}

	sort.Strings(c.Created)
	sort.Strings(c.Removed)
	sort.Strings(c.Modified)
	return c
}
