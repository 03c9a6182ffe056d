package postgres

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_SortedAndEmbedded(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.Len(t, migrations, 4)
	assert.Equal(t, "0001_init", migrations[0].Version)
	assert.Equal(t, "0002_events", migrations[1].Version)
	assert.Contains(t, migrations[1].SQL, "events_no_overlap")
	assert.Contains(t, migrations[1].SQL, "'[)'")
	assert.Equal(t, "0004_code_attempts", migrations[3].Version)
}

func TestMigrate_SkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	migrations, err := Migrations()
	require.NoError(t, err)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("0001_init").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	for _, m := range migrations[1:] {
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(m.Version).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(m.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs(m.Version).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, Migrate(context.Background(), db, logger))
	require.NoError(t, mock.ExpectationsWereMet())
}
