package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one schema step with its forward and reverse SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// MigrationStatus reports whether a migration has been applied.
type MigrationStatus struct {
	Migration
	AppliedAt time.Time
	Applied   bool
}

var migrationFile = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

var errMigrationName = errors.New("expected NNNN_name.up.sql or NNNN_name.down.sql")

// parseFilename splits "0001_kv_store.up.sql" into its version, name and
// direction.
func parseFilename(filename string) (version int, name, direction string, err error) {
	m := migrationFile.FindStringSubmatch(filename)
	if m == nil {
		return 0, "", "", errMigrationName
	}

	version, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, "", "", fmt.Errorf("version %q: %w", m[1], err)
	}
	if version <= 0 {
		return 0, "", "", fmt.Errorf("version must be positive, got %d", version)
	}
	return version, m[2], m[3], nil
}

// loadMigrations reads the embedded migrations in ascending version order.
// Every version needs exactly one up and one down file with the same name.
func loadMigrations() ([]Migration, error) {
	return readMigrations(migrationsFS, "migrations")
}

func readMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, direction, err := parseFilename(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", entry.Name(), err)
		}
		body, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if m.Name != name {
			return nil, fmt.Errorf("migration %04d: name %q does not match %q", version, name, m.Name)
		}

		target := &m.UpSQL
		if direction == "down" {
			target = &m.DownSQL
		}
		if *target != "" {
			return nil, fmt.Errorf("migration %04d: duplicate %s file", version, direction)
		}
		*target = string(body)
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		switch {
		case m.UpSQL == "":
			return nil, fmt.Errorf("migration %04d: missing up file", m.Version)
		case m.DownSQL == "":
			return nil, fmt.Errorf("migration %04d: missing down file", m.Version)
		}
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

// migrator applies migrations to one connection and records them in the
// schema_migrations table.
type migrator struct {
	conn       *sql.DB
	migrations []Migration
}

func newMigrator(ctx context.Context, conn *sql.DB) (*migrator, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, err
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	return &migrator{conn: conn, migrations: migrations}, nil
}

// applied maps each recorded version to when it was applied.
func (mg *migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	rows, err := mg.conn.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int]time.Time)
	for rows.Next() {
		var (
			version int
			at      int64
		)
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		out[version] = time.Unix(0, at)
	}
	return out, rows.Err()
}

// step runs one migration's SQL and updates its record in a single
// transaction.
func (mg *migrator) step(ctx context.Context, m Migration, up bool) error {
	tx, err := mg.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	body, record, args := m.DownSQL, "DELETE FROM schema_migrations WHERE version = ?", []any{m.Version}
	if up {
		body = m.UpSQL
		record = "INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)"
		args = []any{m.Version, m.Name, time.Now().UnixNano()}
	}

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit()
}

// migrateUp applies every pending migration in version order.
func migrateUp(ctx context.Context, conn *sql.DB) error {
	mg, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}

	applied, err := mg.applied(ctx)
	if err != nil {
		return err
	}

	for _, m := range mg.migrations {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		if err := mg.step(ctx, m, true); err != nil {
			return fmt.Errorf("migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// MigrateDown reverts the n most recent applied migrations.
func MigrateDown(ctx context.Context, conn *sql.DB, n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}

	mg, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}

	applied, err := mg.applied(ctx)
	if err != nil {
		return err
	}

	var revert []Migration
	for _, m := range slices.Backward(mg.migrations) {
		if _, ok := applied[m.Version]; ok {
			revert = append(revert, m)
		}
	}
	if n > len(revert) {
		return fmt.Errorf("cannot revert %d migrations: only %d applied", n, len(revert))
	}

	for _, m := range revert[:n] {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("reverting migration")
		if err := mg.step(ctx, m, false); err != nil {
			return fmt.Errorf("revert %04d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// Migrations reports every known migration and whether it is applied.
func Migrations(ctx context.Context, conn *sql.DB) ([]MigrationStatus, error) {
	mg, err := newMigrator(ctx, conn)
	if err != nil {
		return nil, err
	}

	applied, err := mg.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, len(mg.migrations))
	for i, m := range mg.migrations {
		at, ok := applied[m.Version]
		out[i] = MigrationStatus{Migration: m, Applied: ok, AppliedAt: at}
	}
	return out, nil
}
