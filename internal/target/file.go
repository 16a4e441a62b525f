package target

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/wonny/twitstock/internal/contracts"
)

// FileTarget is a single local file
type FileTarget struct {
	path string
}

func NewFile(path string) *FileTarget { return &FileTarget{path: path} }

func (f *FileTarget) Path() string { return f.path }
func (f *FileTarget) URI() string  { return "file://" + f.path }

func (f *FileTarget) Exists(_ context.Context) (bool, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", f.path, err)
	}
	return !info.IsDir(), nil
}

// Open opens the file for reading; a missing file is ErrLookup
func (f *FileTarget) Open() (*os.File, error) {
	fh, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", f.path, contracts.ErrLookup)
	}
	return fh, err
}

// Create returns a writer that becomes visible at Path only on Close
func (f *FileTarget) Create() (*AtomicWriter, error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp for %s: %w", f.path, err)
	}
	return &AtomicWriter{tmp: tmp, dst: f.path}, nil
}

// AtomicWriter writes to a temp file and renames it into place on Close
type AtomicWriter struct {
	tmp  *os.File
	dst  string
	done bool
}

func (w *AtomicWriter) Write(p []byte) (int, error) { return w.tmp.Write(p) }

// Close commits the file
func (w *AtomicWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return fmt.Errorf("close %s: %w", w.dst, err)
	}
	if err := os.Rename(w.tmp.Name(), w.dst); err != nil {
		os.Remove(w.tmp.Name())
		return fmt.Errorf("commit %s: %w", w.dst, err)
	}
	return nil
}

// Abort discards everything written so far
func (w *AtomicWriter) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.tmp.Close()
	os.Remove(w.tmp.Name())
}

// GlobTarget is a drop-location lookup: exists iff the pattern matches a file
type GlobTarget struct {
	pattern string
}

func NewGlob(pattern string) *GlobTarget { return &GlobTarget{pattern: pattern} }

func (g *GlobTarget) URI() string { return "glob://" + g.pattern }

func (g *GlobTarget) matches() ([]string, error) {
	found, err := filepath.Glob(g.pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", g.pattern, err)
	}
	files := found[:0]
	for _, m := range found {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (g *GlobTarget) Exists(_ context.Context) (bool, error) {
	files, err := g.matches()
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// Path returns the first match in sorted order, or ErrLookup
func (g *GlobTarget) Path() (string, error) {
	files, err := g.matches()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no file matches %s: %w", g.pattern, contracts.ErrLookup)
	}
	return files[0], nil
}
