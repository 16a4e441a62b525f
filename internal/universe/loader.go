// Package universe loads the ticker list the pipeline fans out over.
package universe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/wonny/twitstock/internal/contracts"
)

// Loader reads the newline-delimited ticker file once, on first use.
// The list is immutable afterwards; callers get a copy.
// ⭐ SSOT: 종목 리스트는 이 로더로만 읽음
type Loader struct {
	path string

	once    sync.Once
	tickers []string
	err     error
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the ticker file location
func (l *Loader) Path() string { return l.path }

// Tickers returns the universe in file order. A missing file is ErrLookup.
func (l *Loader) Tickers() ([]string, error) {
	l.once.Do(func() {
		f, err := os.Open(l.path)
		if errors.Is(err, fs.ErrNotExist) {
			l.err = fmt.Errorf("ticker file %s: %w", l.path, contracts.ErrLookup)
			return
		}
		if err != nil {
			l.err = fmt.Errorf("open ticker file: %w", err)
			return
		}
		defer f.Close()
		l.tickers, l.err = Parse(f)
	})
	if l.err != nil {
		return nil, l.err
	}
	return append([]string(nil), l.tickers...), nil
}

// Resolve expands "all" (or an empty selection) to the whole universe.
// Explicit tickers are normalized but not checked for membership.
func (l *Loader) Resolve(selection []string) ([]string, error) {
	if len(selection) == 0 || (len(selection) == 1 && strings.EqualFold(selection[0], "all")) {
		return l.Tickers()
	}
	return Normalize(selection)
}

// Parse reads one ticker per line. Blank lines are skipped, a leading "$" is dropped
// and duplicates keep their first position. A malformed ticker fails the whole list.
func Parse(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ticker list: %w", err)
	}
	return Normalize(lines)
}

// Normalize lower-cases and dedups tickers, skipping blank entries
func Normalize(raw []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		t, err := contracts.NormalizeTicker(r)
		if err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}
