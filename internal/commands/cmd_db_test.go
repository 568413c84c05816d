package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/data/db"
)

func runDB(t *testing.T, cmd *DBCmd, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	app := cmd.Register(&cli.Command{Name: "test", Writer: &buf, ErrWriter: &buf})
	require.NoError(t, app.Run(context.Background(), append([]string{"test", "db"}, args...)))
	return buf.String()
}

func TestDBCmd(t *testing.T) {
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	var prompts []string
	answer := false
	cmd := NewDBCmd(&Flags{DB: database})
	cmd.confirm = func(prompt string) (bool, error) {
		prompts = append(prompts, prompt)
		return answer, nil
	}

	out := runDB(t, cmd, "status")
	assert.Contains(t, out, "0001")
	assert.Contains(t, out, "kv_store")
	assert.NotContains(t, out, "pending")

	// Declined: nothing changes.
	runDB(t, cmd, "rollback")
	assert.Equal(t, []string{"Revert 1 migration(s)?"}, prompts)
	assert.NotContains(t, runDB(t, cmd, "status"), "pending")

	answer = true
	out = runDB(t, cmd, "rollback")
	assert.Contains(t, out, "reverted 1 migration(s)")
	assert.Contains(t, runDB(t, cmd, "status"), "pending")
}
