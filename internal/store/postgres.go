package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/keyword-cli/internal/db"
	"github.com/sells-group/keyword-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Close does not close it.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	seed_url    TEXT NOT NULL,
	status      TEXT NOT NULL,
	geo_targets JSONB NOT NULL DEFAULT '[]'::jsonb,
	idea_count  INTEGER NOT NULL DEFAULT 0,
	record      JSONB,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS geo_targets (
	name          TEXT PRIMARY KEY,
	resource_name TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_seed_url ON runs(seed_url);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	prepareRun(run)
	geoJSON, recordJSON, err := run.MarshalFields()
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, seed_url, status, geo_targets, idea_count, record, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.SeedURL, string(run.Status), geoJSON, run.IdeaCount, recordJSON, run.Error, run.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert run %s", run.ID)
}

const postgresRunColumns = `id, seed_url, status, geo_targets, idea_count, record, error, created_at`

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresRunColumns+` FROM runs WHERE id = $1`, id)
	r, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + postgresRunColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + itoa(len(args))
	}
	if filter.SeedURL != "" {
		args = append(args, filter.SeedURL)
		query += ` AND seed_url = $` + itoa(len(args))
	}
	args = append(args, filter.limit())
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) LoadGeoTargets(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, resource_name FROM geo_targets`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load geo targets")
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, resource string
		if err := rows.Scan(&name, &resource); err != nil {
			return nil, eris.Wrap(err, "postgres: scan geo target")
		}
		out[name] = resource
	}
	return out, eris.Wrap(rows.Err(), "postgres: load geo targets iterate")
}

func (s *PostgresStore) SaveGeoTargets(ctx context.Context, entries map[string]string) error {
	rows := make([][]any, 0, len(entries))
	for _, name := range sortedKeys(entries) {
		rows = append(rows, []any{name, entries[name]})
	}
	_, err := db.InsertIfAbsent(ctx, s.pool, db.InsertConfig{
		Table:        "geo_targets",
		Columns:      []string{"name", "resource_name"},
		ConflictKeys: []string{"name"},
	}, rows)
	return eris.Wrap(err, "postgres: save geo targets")
}

func (s *PostgresStore) ClearGeoTargets(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM geo_targets`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: clear geo targets")
	}
	return int(tag.RowsAffected()), nil
}

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var status string
	var geoJSON, recordJSON []byte

	err := row.Scan(&r.ID, &r.SeedURL, &status, &geoJSON, &r.IdeaCount, &recordJSON, &r.Error, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}
	r.Status = model.RunStatus(status)

	if err := r.UnmarshalFields(geoJSON, recordJSON); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal run %s", r.ID)
	}
	return &r, nil
}
