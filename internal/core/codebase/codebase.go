// Package codebase loads source files from disk into the text sent for review
// or comparison.
package codebase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// ErrEmpty is returned when no file matched.
var ErrEmpty = errors.New("no source files matched")

// Options controls which files are read.
type Options struct {
	Include      []string
	Exclude      []string
	MaxFileBytes int64
}

// DefaultOptions reads common source files and skips vendored and generated
// directories.
func DefaultOptions() Options {
	return Options{
		Include: []string{"**/*"},
		Exclude: []string{
			"**/.git/**", "**/node_modules/**", "**/vendor/**",
			"**/dist/**", "**/build/**", "**/*.lock", "**/*.min.js",
		},
		MaxFileBytes: 256 * 1024,
	}
}

// File is one loaded source file. Path is slash-separated and relative to the
// codebase root.
type File struct {
	Path    string
	Content string
}

// Codebase is the set of files loaded from a root.
type Codebase struct {
	Root     string
	Files    []File
	Language string
	Skipped  []string
}

// Text joins every file under a path header. A single file is returned as is.
func (c Codebase) Text() string {
	if len(c.Files) == 1 {
		return c.Files[0].Content
	}

	var b strings.Builder
	for i, f := range c.Files {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "// File: %s\n", f.Path)
		b.WriteString(strings.TrimRight(f.Content, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// ValidatePatterns reports the first malformed glob.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// Load reads root, which may be a single file or a directory walked with the
// include and exclude globs.
func Load(ctx context.Context, root string, opts Options) (Codebase, error) {
	if err := ValidatePatterns(append(slices.Clone(opts.Include), opts.Exclude...)); err != nil {
		return Codebase{}, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return Codebase{}, fmt.Errorf("load %s: %w", root, err)
	}

	cb := Codebase{Root: root}

	if !info.IsDir() {
		data, err := os.ReadFile(root)
		if err != nil {
			return Codebase{}, fmt.Errorf("load %s: %w", root, err)
		}
		cb.Files = []File{{Path: filepath.Base(root), Content: string(data)}}
		cb.Language = DetectLanguage(cb.Files)
		return cb, nil
	}

	fsys := os.DirFS(root)
	seen := make(map[string]struct{})

	for _, pattern := range opts.Include {
		err := doublestar.GlobWalk(fsys, pattern, func(p string, d fs.DirEntry) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := seen[p]; ok {
				return nil
			}
			seen[p] = struct{}{}

			if excluded(p, opts.Exclude) {
				return nil
			}

			file, ok, err := readSource(fsys, p, opts.MaxFileBytes)
			if err != nil {
				return err
			}
			if !ok {
				cb.Skipped = append(cb.Skipped, p)
				return nil
			}
			cb.Files = append(cb.Files, file)
			return nil
		})
		if err != nil {
			return Codebase{}, fmt.Errorf("load %s: %w", root, err)
		}
	}

	if len(cb.Files) == 0 {
		return Codebase{}, fmt.Errorf("load %s: %w", root, ErrEmpty)
	}

	slices.SortFunc(cb.Files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	slices.Sort(cb.Skipped)
	cb.Language = DetectLanguage(cb.Files)
	return cb, nil
}

// LoadPair loads two codebases concurrently.
func LoadPair(ctx context.Context, a, b string, opts Options) (Codebase, Codebase, error) {
	var ca, cb Codebase

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		ca, err = Load(egCtx, a, opts)
		return err
	})
	eg.Go(func() error {
		var err error
		cb, err = Load(egCtx, b, opts)
		return err
	})

	if err := eg.Wait(); err != nil {
		return Codebase{}, Codebase{}, err
	}
	return ca, cb, nil
}

func excluded(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// readSource returns ok=false for oversized or binary files.
func readSource(fsys fs.FS, p string, maxBytes int64) (File, bool, error) {
	if maxBytes > 0 {
		info, err := fs.Stat(fsys, p)
		if err != nil {
			return File{}, false, err
		}
		if info.Size() > maxBytes {
			return File{}, false, nil
		}
	}

	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return File{}, false, err
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return File{}, false, nil
	}
	return File{Path: path.Clean(p), Content: string(data)}, true, nil
}
