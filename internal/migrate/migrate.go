package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/ccptracker/migrations"
)

var upFile = regexp.MustCompile(`^(\d+)_(\w+)\.up\.sql$`)

// Migration is one versioned schema change of the conversation archive.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Migrator applies migrations from fsys to db and tracks the applied
// version in the archive_schema table.
type Migrator struct {
	db   *sql.DB
	fsys fs.FS
}

// New returns a migrator reading *.up.sql / *.down.sql pairs from fsys.
func New(db *sql.DB, fsys fs.FS) *Migrator {
	return &Migrator{db: db, fsys: fsys}
}

// RunAll brings the archive schema up to date with the embedded migrations.
func RunAll(ctx context.Context, db *sql.DB) error {
	return New(db, migrations.FS).Up(ctx)
}

// Rollback undoes every applied embedded migration, newest first.
func Rollback(ctx context.Context, db *sql.DB) error {
	return New(db, migrations.FS).Down(ctx)
}

// Load returns the migrations in fsys ordered by version.
func Load(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}

	var result []Migration
	for _, name := range names {
		m := upFile.FindStringSubmatch(path.Base(name))
		if m == nil {
			continue
		}
		version, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("bad migration version in %s: %w", name, err)
		}

		up, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		down, err := fs.ReadFile(fsys, strings.TrimSuffix(name, ".up.sql")+".down.sql")
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read down migration for %s: %w", name, err)
		}

		result = append(result, Migration{
			Version: version,
			Name:    m[2],
			UpSQL:   string(up),
			DownSQL: string(down),
		})
	}

	slices.SortFunc(result, func(a, b Migration) int { return a.Version - b.Version })
	for i := 1; i < len(result); i++ {
		if result[i].Version == result[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", result[i].Version)
		}
	}
	return result, nil
}

// Version returns the applied version and whether a previous run stopped
// half way.
func (m *Migrator) Version(ctx context.Context) (int, bool, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, false, err
	}

	var version, dirty int
	err := m.db.QueryRowContext(ctx, `SELECT version, dirty FROM archive_schema WHERE id = 1`).Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty == 1, nil
}

// Up applies every migration newer than the current version.
func (m *Migrator) Up(ctx context.Context) error {
	current, err := m.clean(ctx)
	if err != nil {
		return err
	}

	all, err := Load(m.fsys)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	for _, mig := range all {
		if mig.Version <= current {
			continue
		}
		if err := m.apply(ctx, mig.Version, mig.UpSQL, mig.Version); err != nil {
			return fmt.Errorf("migration %d_%s up: %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

// Down reverts every applied migration, newest first.
func (m *Migrator) Down(ctx context.Context) error {
	current, err := m.clean(ctx)
	if err != nil {
		return err
	}

	all, err := Load(m.fsys)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	for i := len(all) - 1; i >= 0; i-- {
		mig := all[i]
		if mig.Version > current {
			continue
		}
		if strings.TrimSpace(mig.DownSQL) == "" {
			return fmt.Errorf("migration %d_%s has no down script", mig.Version, mig.Name)
		}
		target := 0
		if i > 0 {
			target = all[i-1].Version
		}
		if err := m.apply(ctx, mig.Version, mig.DownSQL, target); err != nil {
			return fmt.Errorf("migration %d_%s down: %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

func (m *Migrator) clean(ctx context.Context) (int, error) {
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}
	if dirty {
		return 0, fmt.Errorf("archive schema is dirty at version %d", current)
	}
	return current, nil
}

// apply marks version dirty, runs script in a transaction and records
// target as the clean version. A failed script leaves the dirty mark.
func (m *Migrator) apply(ctx context.Context, version int, script string, target int) error {
	if err := m.setVersion(ctx, m.db, version, true); err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range Statements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w\nSQL: %s", err, stmt)
		}
	}
	if err := m.setVersion(ctx, tx, target, false); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (m *Migrator) setVersion(ctx context.Context, ex execer, version int, dirty bool) error {
	flag := 0
	if dirty {
		flag = 1
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO archive_schema (id, version, dirty) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET version = excluded.version, dirty = excluded.dirty
	`, version, flag)
	if err != nil {
		return fmt.Errorf("failed to record schema version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS archive_schema (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL,
			dirty INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create archive_schema table: %w", err)
	}
	return nil
}

// Statements splits a script on semicolons and drops empty and
// comment-only chunks.
func Statements(script string) []string {
	var out []string
	for _, chunk := range strings.Split(script, ";") {
		if hasSQL(chunk) {
			out = append(out, strings.TrimSpace(chunk))
		}
	}
	return out
}

func hasSQL(chunk string) bool {
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return true
		}
	}
	return false
}
