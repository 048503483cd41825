package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/w-h-a/pdfrag/history"
	"github.com/w-h-a/pdfrag/history/sqlite/migrations"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	options history.Options
	db      *sql.DB
}

func (s *sqliteStore) Load(ctx context.Context, sessionId string) (history.History, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, text
		FROM turns
		WHERE session_id = ?
		ORDER BY position
	`, sessionId)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	h := history.History{}

	for rows.Next() {
		var role, text string
		if err := rows.Scan(&role, &text); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		h = append(h, history.Turn{Role: history.Role(role), Text: text})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return h, nil
}

// Save replaces the stored turns of the session in one transaction.
func (s *sqliteStore) Save(ctx context.Context, sessionId string, h history.History) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionId); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}

	for i, turn := range h {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO turns (session_id, position, role, text) VALUES (?, ?, ?, ?)`,
			sessionId, i, string(turn.Role), turn.Text,
		); err != nil {
			return fmt.Errorf("saving turn: %w", err)
		}
	}

	return tx.Commit()
}

func (s *sqliteStore) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var ups []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			ups = append(ups, entry.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// NewStore opens <Location>/history.db, creating it when absent.
func NewStore(opts ...history.Option) history.Store {
	options := history.NewOptions(opts...)

	if len(options.Location) == 0 {
		options.Location = "."
	}

	if err := os.MkdirAll(options.Location, 0o755); err != nil {
		detail := "failed to create directory for sqlite history store"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	path := filepath.Join(options.Location, "history.db")

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		detail := "failed to open sqlite history store"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	db.SetMaxOpenConns(1)

	s := &sqliteStore{
		options: options,
		db:      db,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		detail := "failed to migrate sqlite history store"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	return s
}
