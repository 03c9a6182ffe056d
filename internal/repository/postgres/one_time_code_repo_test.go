package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"calendasync/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneTimeCodeRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expires := time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC)
	mock.ExpectExec(`(?s)DELETE FROM one_time_codes WHERE email = \$1 AND purpose = \$2.*INSERT INTO one_time_codes \(email, purpose, code_hash, expires_at\)`).
		WithArgs("a@b.co", "login", "hash", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewOneTimeCodeRepository(db).Create(context.Background(), "a@b.co", domain.CodePurposeLogin, "hash", expires)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOneTimeCodeRepository_Consume(t *testing.T) {
	const bump = `UPDATE one_time_codes SET attempts = attempts \+ 1`
	liveCode := func(hash string, attempts int) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "code_hash", "attempts"}).AddRow("code-1", hash, attempts)
	}

	tests := []struct {
		name  string
		mock  func(mock sqlmock.Sqlmock)
		want  bool
		errIs error
	}{
		{
			name: "consumed",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(bump).WithArgs("a@b.co", "recovery").WillReturnRows(liveCode("hash", 1))
				mock.ExpectExec(`DELETE FROM one_time_codes WHERE id = \$1`).WithArgs("code-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: true,
		},
		{
			name: "wrong code keeps the live code",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(bump).WithArgs("a@b.co", "recovery").WillReturnRows(liveCode("other", 2))
				mock.ExpectCommit()
			},
			want: false,
		},
		{
			name: "last wrong guess burns the code",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(bump).WithArgs("a@b.co", "recovery").WillReturnRows(liveCode("other", 5))
				mock.ExpectExec(`DELETE FROM one_time_codes WHERE id = \$1`).WithArgs("code-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			errIs: domain.ErrRateLimited,
		},
		{
			name: "right code on the last attempt still works",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(bump).WithArgs("a@b.co", "recovery").WillReturnRows(liveCode("hash", 5))
				mock.ExpectExec(`DELETE FROM one_time_codes WHERE id = \$1`).WithArgs("code-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: true,
		},
		{
			name: "no live code",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(bump).WillReturnRows(sqlmock.NewRows([]string{"id", "code_hash", "attempts"}))
				mock.ExpectRollback()
			},
			want: false,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(bump).WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			errIs: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewOneTimeCodeRepository(db).Consume(context.Background(), "a@b.co", domain.CodePurposeRecovery, "hash", 5)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOneTimeCodeRepository_DeleteExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM one_time_codes WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := NewOneTimeCodeRepository(db).DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
