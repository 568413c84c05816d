package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/codebase"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/version"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestLoadCodebases(t *testing.T) {
	ctx := context.Background()
	opts := codebase.DefaultOptions()

	t.Run("single root", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{"main.go": "package main", "util/util.go": "package util"})

		cb, err := loadCodebases(ctx, []string{dir}, opts)
		require.NoError(t, err)
		require.Len(t, cb.Files, 2)
		assert.Equal(t, "main.go", cb.Files[0].Path)
		assert.Equal(t, "util/util.go", cb.Files[1].Path)
		assert.Equal(t, "go", cb.Language)
	})

	t.Run("later roots are prefixed", func(t *testing.T) {
		a := writeFiles(t, map[string]string{"a.py": "print(1)"})
		b := writeFiles(t, map[string]string{"b.py": "print(2)", "c.py": "print(3)"})

		cb, err := loadCodebases(ctx, []string{a, b}, opts)
		require.NoError(t, err)
		require.Len(t, cb.Files, 3)
		assert.Equal(t, "a.py", cb.Files[0].Path)
		assert.Equal(t, path.Join(filepath.ToSlash(b), "b.py"), cb.Files[1].Path)
		assert.Equal(t, "python", cb.Language)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := loadCodebases(ctx, []string{filepath.Join(t.TempDir(), "nope")}, opts)
		require.Error(t, err)
	})
}

func TestValidationErrors(t *testing.T) {
	assert.Nil(t, validationErrors(nil))

	plain := validationErrors(errors.New("templates: bad syntax"))
	assert.Equal(t, []validationError{{Message: "templates: bad syntax"}}, plain)

	var fields criterio.FieldErrorsBuilder
	fields = fields.Append("render.theme", errors.New("unknown theme"))
	fields = fields.Append("events.buffer", errors.New("must be positive"))
	got := validationErrors(fields.ToError())
	assert.Equal(t, []validationError{
		{Field: "render.theme", Message: "unknown theme"},
		{Field: "events.buffer", Message: "must be positive"},
	}, got)
}

func TestPrintVersions(t *testing.T) {
	list := []version.Version{
		{
			ID:        "01J0000000000000000000000A",
			Name:      "first pass",
			CreatedAt: time.Now().Add(-2 * time.Hour),
			Session:   session.Snapshot{Mode: session.ModeReview, State: session.StateCompleted},
		},
		{
			ID:        "01J0000000000000000000000B",
			Name:      "merge",
			CreatedAt: time.Now(),
			Session:   session.Snapshot{Mode: session.ModeComparison, State: session.StateDecisionPending},
		},
	}

	var buf bytes.Buffer
	printVersions(&buf, list)

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "first pass")
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "comparison")
	assert.Contains(t, out, string(session.StateDecisionPending))
}
