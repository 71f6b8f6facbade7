package db

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var geoCfg = InsertConfig{
	Table:        "geo_targets",
	Columns:      []string{"name", "resource_name"},
	ConflictKeys: []string{"name"},
}

func TestInsertIfAbsent_EmptyRows(t *testing.T) {
	n, err := InsertIfAbsent(context.Background(), nil, geoCfg, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestInsertIfAbsent_NoColumns(t *testing.T) {
	_, err := InsertIfAbsent(context.Background(), nil, InsertConfig{
		Table:        "geo_targets",
		ConflictKeys: []string{"name"},
	}, [][]any{{"Canada", "geoTargetConstants/2124"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestInsertIfAbsent_NoConflictKeys(t *testing.T) {
	_, err := InsertIfAbsent(context.Background(), nil, InsertConfig{
		Table:   "geo_targets",
		Columns: []string{"name", "resource_name"},
	}, [][]any{{"Canada", "geoTargetConstants/2124"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestInsertIfAbsent_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO "geo_targets" ("name", "resource_name") VALUES ($1, $2), ($3, $4) ON CONFLICT ("name") DO NOTHING`,
	)).
		WithArgs("Canada", "geoTargetConstants/2124", "Jamaica", "geoTargetConstants/2388").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := InsertIfAbsent(context.Background(), mock, geoCfg, [][]any{
		{"Canada", "geoTargetConstants/2124"},
		{"Jamaica", "geoTargetConstants/2388"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfAbsent_ExecError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO`).WillReturnError(fmt.Errorf("connection reset"))

	_, err = InsertIfAbsent(context.Background(), mock, geoCfg, [][]any{{"Canada", "geoTargetConstants/2124"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: insert into geo_targets")
}

func TestInsertIfAbsent_RaggedRow(t *testing.T) {
	_, err := InsertIfAbsent(context.Background(), nil, geoCfg, [][]any{{"Canada"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0 has 1 values, want 2")
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"public.geo_targets", `"public"."geo_targets"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"name", "resource_name"`, quoteAndJoin([]string{"name", "resource_name"}))
}
