package codebase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestLoad_Directory(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":                 "package main\n",
		"internal/a/a.go":         "package a\n",
		"vendor/x/x.go":           "package x\n",
		"node_modules/y/index.js": "module.exports = 1\n",
		"bin/blob":                "\x00\x01",
		"README.md":               "# readme\n",
	})

	cb, err := Load(context.Background(), root, DefaultOptions())
	require.NoError(t, err)

	var paths []string
	for _, f := range cb.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"README.md", "internal/a/a.go", "main.go"}, paths)
	assert.Equal(t, []string{"bin/blob"}, cb.Skipped)
	assert.Equal(t, "go", cb.Language)
	assert.Contains(t, cb.Text(), "// File: internal/a/a.go\npackage a\n")
}

func TestLoad_SingleFile(t *testing.T) {
	root := writeTree(t, map[string]string{"script.py": "print(1)\n"})

	cb, err := Load(context.Background(), filepath.Join(root, "script.py"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "print(1)\n", cb.Text())
	assert.Equal(t, "python", cb.Language)
}

func TestLoad_IncludeFilter(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a", "b.ts": "let b = 1"})

	opts := DefaultOptions()
	opts.Include = []string{"**/*.ts"}

	cb, err := Load(context.Background(), root, opts)
	require.NoError(t, err)
	require.Len(t, cb.Files, 1)
	assert.Equal(t, "b.ts", cb.Files[0].Path)
}

func TestLoad_MaxFileBytes(t *testing.T) {
	root := writeTree(t, map[string]string{"big.go": "0123456789", "small.go": "x"})

	opts := DefaultOptions()
	opts.MaxFileBytes = 5

	cb, err := Load(context.Background(), root, opts)
	require.NoError(t, err)
	assert.Len(t, cb.Files, 1)
	assert.Equal(t, []string{"big.go"}, cb.Skipped)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing"), DefaultOptions())
	assert.Error(t, err)

	_, err = Load(context.Background(), t.TempDir(), DefaultOptions())
	assert.ErrorIs(t, err, ErrEmpty)

	opts := DefaultOptions()
	opts.Include = []string{"[unterminated"}
	_, err = Load(context.Background(), t.TempDir(), opts)
	assert.Error(t, err)
}

func TestLoadPair(t *testing.T) {
	a := writeTree(t, map[string]string{"a.go": "package a"})
	b := writeTree(t, map[string]string{"b.go": "package b"})

	ca, cb, err := LoadPair(context.Background(), a, b, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "package a", ca.Text())
	assert.Equal(t, "package b", cb.Text())

	_, _, err = LoadPair(context.Background(), a, filepath.Join(b, "nope"), DefaultOptions())
	assert.Error(t, err)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "", DetectLanguage(nil))
	assert.Equal(t, "typescript", DetectLanguage([]File{{Path: "a.ts"}, {Path: "b.tsx"}, {Path: "c.go"}}))
	assert.Equal(t, "rust", DetectLanguage([]File{{Path: "x.RS"}}))
}
