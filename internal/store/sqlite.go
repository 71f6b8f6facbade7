package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/keyword-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	seed_url    TEXT NOT NULL,
	status      TEXT NOT NULL,
	geo_targets TEXT NOT NULL DEFAULT '[]',
	idea_count  INTEGER NOT NULL DEFAULT 0,
	record      TEXT,
	error       TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS geo_targets (
	name          TEXT PRIMARY KEY,
	resource_name TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_seed_url ON runs(seed_url);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	prepareRun(run)
	geoJSON, recordJSON, err := run.MarshalFields()
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run")
	}

	var record sql.NullString
	if recordJSON != nil {
		record = sql.NullString{String: string(recordJSON), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, seed_url, status, geo_targets, idea_count, record, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SeedURL, string(run.Status), string(geoJSON), run.IdeaCount, record, run.Error, run.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
}

const sqliteRunColumns = `id, seed_url, status, geo_targets, idea_count, record, error, created_at`

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + sqliteRunColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.SeedURL != "" {
		query += ` AND seed_url = ?`
		args = append(args, filter.SeedURL)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) LoadGeoTargets(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, resource_name FROM geo_targets`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load geo targets")
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, resource string
		if err := rows.Scan(&name, &resource); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan geo target")
		}
		out[name] = resource
	}
	return out, eris.Wrap(rows.Err(), "sqlite: load geo targets iterate")
}

func (s *SQLiteStore) SaveGeoTargets(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin geo targets tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO geo_targets (name, resource_name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare geo target insert")
	}
	defer stmt.Close()

	for name, resource := range entries {
		if _, err := stmt.ExecContext(ctx, name, resource); err != nil {
			return eris.Wrapf(err, "sqlite: insert geo target %q", name)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit geo targets")
}

func (s *SQLiteStore) ClearGeoTargets(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM geo_targets`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: clear geo targets")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row scannable) (*model.Run, error) {
	var r model.Run
	var geoJSON string
	var recordJSON sql.NullString

	err := row.Scan(&r.ID, &r.SeedURL, &r.Status, &geoJSON, &r.IdeaCount, &recordJSON, &r.Error, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	var record []byte
	if recordJSON.Valid {
		record = []byte(recordJSON.String)
	}
	if err := r.UnmarshalFields([]byte(geoJSON), record); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal run %s", r.ID)
	}
	return &r, nil
}
