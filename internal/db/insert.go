package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// InsertConfig defines the parameters for InsertIfAbsent.
type InsertConfig struct {
	Table        string   // target table, optionally schema-qualified
	Columns      []string // columns being inserted, in row order
	ConflictKeys []string // columns forming the unique constraint
}

// maxParams stays under the Postgres limit of 65535 bind parameters.
const maxParams = 60000

// InsertIfAbsent inserts rows with INSERT ... ON CONFLICT DO NOTHING so
// existing rows keep their values. It returns the number of rows inserted.
func InsertIfAbsent(ctx context.Context, pool Pool, cfg InsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: insert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return 0, eris.New("db: insert: no conflict keys specified")
	}

	chunk := maxParams / len(cfg.Columns)
	var total int64
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		query, args, err := insertSQL(cfg, rows[start:end])
		if err != nil {
			return total, err
		}
		tag, err := pool.Exec(ctx, query, args...)
		if err != nil {
			return total, eris.Wrapf(err, "db: insert into %s", cfg.Table)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func insertSQL(cfg InsertConfig, rows [][]any) (string, []any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", sanitizeTable(cfg.Table), quoteAndJoin(cfg.Columns))

	args := make([]any, 0, len(rows)*len(cfg.Columns))
	for i, row := range rows {
		if len(row) != len(cfg.Columns) {
			return "", nil, eris.Errorf("db: insert: row %d has %d values, want %d", i, len(row), len(cfg.Columns))
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteByte(')')
	}
	fmt.Fprintf(&b, " ON CONFLICT (%s) DO NOTHING", quoteAndJoin(cfg.ConflictKeys))
	return b.String(), args, nil
}

// sanitizeTable handles schema-qualified table names like "public.geo_targets".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
