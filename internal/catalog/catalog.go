// Package catalog reads the exam file store: a directory whose subdirectories are years
// and whose year directories hold the downloadable files.
//
// Nothing is cached; every call reflects the file system at that moment.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNotFound reports a year or file that does not exist or is not a valid name.
	ErrNotFound = errors.New("catalog: not found")
	// ErrStorageUnavailable reports that the file store could not be read.
	ErrStorageUnavailable = errors.New("catalog: storage unavailable")
)

// Reader queries the file store rooted at Root.
type Reader struct {
	root string
}

// NewReader returns a Reader for root. The directory is not checked until the first query.
func NewReader(root string) *Reader {
	return &Reader{root: filepath.Clean(root)}
}

// Root returns the catalog root directory.
func (r *Reader) Root() string {
	return r.root
}

// ListYears returns the names of the root's immediate subdirectories in lexicographic order.
// Symlinked directories count. An unreadable root yields an empty list and ErrStorageUnavailable.
func (r *Reader) ListYears(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return []string{}, fmt.Errorf("%w: read root %q: %w", ErrStorageUnavailable, r.root, err)
	}
	return r.filter(r.root, entries, fs.FileInfo.IsDir), nil
}

// ListFiles returns the regular files directly under year, sorted. An invalid or missing year
// yields an empty list and no error.
func (r *Reader) ListFiles(ctx context.Context, year string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validComponent(year) {
		return []string{}, nil
	}
	dir := filepath.Join(r.root, year)
	fi, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist), err == nil && !fi.IsDir():
		return []string{}, nil
	case err != nil:
		return []string{}, fmt.Errorf("%w: stat year %q: %w", ErrStorageUnavailable, year, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{}, fmt.Errorf("%w: read year %q: %w", ErrStorageUnavailable, year, err)
	}
	return r.filter(dir, entries, func(fi fs.FileInfo) bool { return fi.Mode().IsRegular() }), nil
}

// ResolveFile returns the path of name under year if it is an existing regular file.
// Names that could escape the year directory are rejected without touching the file system.
func (r *Reader) ResolveFile(ctx context.Context, year, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validComponent(year) || !validComponent(name) {
		return "", ErrNotFound
	}
	path := filepath.Join(r.root, year, name)
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return path, nil
}

func (r *Reader) filter(dir string, entries []os.DirEntry, keep func(fs.FileInfo) bool) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		// Stat follows symlinks; entries that vanish in between are skipped.
		fi, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !keep(fi) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// validComponent accepts a single path element that stays inside its parent directory.
func validComponent(name string) bool {
	switch {
	case name == "", name == ".", name == "..":
		return false
	case strings.ContainsAny(name, "/\\\x00"):
		return false
	case filepath.IsAbs(name), filepath.VolumeName(name) != "":
		return false
	}
	return true
}
