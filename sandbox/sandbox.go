// Package sandbox restricts all filesystem access to a fixed root directory
// and a set of allowed document extensions. It also maintains a per-file
// index translating 1-based line numbers into absolute byte offsets, which
// the search and read layers use for precise slicing.
package sandbox

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// ErrPathBreakout is returned whenever a path would resolve outside the
// sandbox root. Operations failing with it must not touch the filesystem.
var ErrPathBreakout = fmt.Errorf("path breakout attempt detected")

// allowedExtensions are the only file types the sandbox will list or read.
var allowedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// AllowedExtension reports whether path has one of the corpus extensions.
func AllowedExtension(path string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Sandbox confines file operations to a root directory on an afero
// filesystem. The zero value is not usable; construct with New.
type Sandbox struct {
	fs   afero.Fs
	root string

	mu      sync.Mutex
	offsets map[string][]int // relative path -> 1-based line start offsets
}

// New creates a sandbox rooted at root. When fsys is backed by the real
// filesystem the root is resolved through symlinks once, so later
// containment checks compare against the canonical location.
func New(fsys afero.Fs, root string) (*Sandbox, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolving root %q: %w", root, err)
	}
	if isOsFs(fsys) {
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
	}
	return &Sandbox{
		fs:      fsys,
		root:    filepath.Clean(abs),
		offsets: make(map[string][]int),
	}, nil
}

func isOsFs(fsys afero.Fs) bool {
	_, ok := fsys.(*afero.OsFs)
	return ok
}

// Root returns the absolute, cleaned sandbox root.
func (s *Sandbox) Root() string { return s.root }

// Fs exposes the backing filesystem for read-only collaborators.
func (s *Sandbox) Fs() afero.Fs { return s.fs }

// contains reports whether candidate is root itself or a descendant of it.
// The comparison is segment-wise: a sibling directory sharing the root's
// name as a prefix (root "corpus" vs. "corpus-other") does not pass.
func (s *Sandbox) contains(candidate string) bool {
	if candidate == s.root {
		return true
	}
	return strings.HasPrefix(candidate, s.root+string(filepath.Separator))
}

// ResolveInside joins rel onto the root and verifies the result stays within
// the sandbox, resolving symlinks where the backing filesystem has them.
// It returns the absolute path or ErrPathBreakout.
func (s *Sandbox) ResolveInside(rel string) (string, error) {
	candidate := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(rel)))
	if !s.contains(candidate) {
		return "", fmt.Errorf("%w: %s", ErrPathBreakout, rel)
	}
	if isOsFs(s.fs) {
		resolved, err := filepath.EvalSymlinks(candidate)
		if err == nil {
			if !s.contains(resolved) {
				return "", fmt.Errorf("%w: %s", ErrPathBreakout, rel)
			}
			candidate = resolved
		}
		// A path that does not exist yet cannot be followed through
		// symlinks; the lexical check above already rejected traversal.
	}
	return candidate, nil
}

// Rel converts an absolute path inside the sandbox back to a POSIX-style
// relative path.
func (s *Sandbox) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrPathBreakout, abs)
	}
	return filepath.ToSlash(rel), nil
}

// ListPaths enumerates regular files with allowed extensions below subdir,
// returned as POSIX-style paths relative to the root. Order follows the
// filesystem walk; callers needing determinism must sort.
func (s *Sandbox) ListPaths(subdir string) ([]string, error) {
	if subdir == "" {
		subdir = "."
	}
	base, err := s.ResolveInside(subdir)
	if err != nil {
		return nil, err
	}
	var results []string
	err = afero.Walk(s.fs, base, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if info.IsDir() || !AllowedExtension(path) {
			return nil
		}
		rel, relErr := s.Rel(path)
		if relErr != nil {
			return nil
		}
		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sandbox: walking %s: %w", subdir, err)
	}
	return results, nil
}

// ReadFileBytes reads a corpus file addressed by its sandbox-relative path.
func (s *Sandbox) ReadFileBytes(rel string) ([]byte, error) {
	abs, err := s.ResolveInside(rel)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, abs)
	if err != nil {
		return nil, fmt.Errorf("sandbox: reading %s: %w", rel, err)
	}
	return data, nil
}

// Stat stats a file inside the sandbox.
func (s *Sandbox) Stat(rel string) (os.FileInfo, error) {
	abs, err := s.ResolveInside(rel)
	if err != nil {
		return nil, err
	}
	return s.fs.Stat(abs)
}

// lineOffsets returns the cached 1-based line start offsets for rel,
// building the cache on first use. offsets[n] is the byte offset of line
// n's first byte; index 0 is a placeholder so line numbers index directly.
func (s *Sandbox) lineOffsets(rel string) ([]int, error) {
	s.mu.Lock()
	if cached, ok := s.offsets[rel]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	data, err := s.ReadFileBytes(rel)
	if err != nil {
		return nil, err
	}

	offsets := []int{0}
	byteIndex := 0
	for _, line := range splitLinesKeepEnds(data) {
		offsets = append(offsets, byteIndex)
		byteIndex += len(line)
	}
	if len(offsets) == 1 {
		// Empty file: one placeholder line so lookups never fail.
		offsets = append(offsets, 0)
	}

	s.mu.Lock()
	s.offsets[rel] = offsets
	s.mu.Unlock()
	return offsets, nil
}

// LineStartOffset returns the absolute byte offset of the first byte of the
// given 1-based line. Out-of-range line numbers clamp to [1, LineCount].
func (s *Sandbox) LineStartOffset(rel string, lineNumber int) (int, error) {
	offsets, err := s.lineOffsets(rel)
	if err != nil {
		return 0, err
	}
	if lineNumber < 1 {
		lineNumber = 1
	}
	if lineNumber >= len(offsets) {
		lineNumber = len(offsets) - 1
	}
	return offsets[lineNumber], nil
}

// LineCount returns the number of lines in rel (at least 1, even for an
// empty file).
func (s *Sandbox) LineCount(rel string) (int, error) {
	offsets, err := s.lineOffsets(rel)
	if err != nil {
		return 0, err
	}
	return len(offsets) - 1, nil
}

// SortedPaths is a convenience for callers that need deterministic listings.
func SortedPaths(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.Strings(out)
	return out
}

// splitLinesKeepEnds splits data into lines, keeping the terminators as part
// of each line so cumulative lengths yield exact byte offsets. Both "\n" and
// "\r\n" terminate a line.
func splitLinesKeepEnds(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			lines = append(lines, data[start:i+1])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}

// LineText returns the text of a single 1-based line without its
// terminator, using the same line index the offset cache is built from.
func LineText(data []byte, lineNumber int) string {
	lines := splitLinesKeepEnds(data)
	if lineNumber < 1 || lineNumber > len(lines) {
		return ""
	}
	return string(bytes.TrimRight(lines[lineNumber-1], "\r\n"))
}

// Lines returns all lines of data without terminators.
func Lines(data []byte) []string {
	raw := splitLinesKeepEnds(data)
	out := make([]string, len(raw))
	for i, l := range raw {
		out[i] = string(bytes.TrimRight(l, "\r\n"))
	}
	return out
}
