package postgres

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"time"

	"calendasync/internal/domain"
)

type oneTimeCodeRepository struct {
	DB *sql.DB
}

// NewOneTimeCodeRepository returns a domain.OneTimeCodeRepository implemented with Postgres.
func NewOneTimeCodeRepository(db *sql.DB) domain.OneTimeCodeRepository {
	return &oneTimeCodeRepository{DB: db}
}

// Create stores a code and drops any earlier code for the same email and purpose.
func (r *oneTimeCodeRepository) Create(ctx context.Context, email string, purpose domain.CodePurpose, codeHash string, expiresAt time.Time) error {
	query := `
		WITH cleared AS (
			DELETE FROM one_time_codes WHERE email = $1 AND purpose = $2
		)
		INSERT INTO one_time_codes (email, purpose, code_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.DB.ExecContext(ctx, query, email, string(purpose), codeHash, expiresAt)
	return err
}

// Consume checks codeHash against the live code for email and purpose. Each call counts as
// an attempt under a row lock. A matching code is deleted so it is used at most once; a code
// that reaches maxAttempts is deleted too and domain.ErrRateLimited is returned.
func (r *oneTimeCodeRepository) Consume(ctx context.Context, email string, purpose domain.CodePurpose, codeHash string, maxAttempts int) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE one_time_codes SET attempts = attempts + 1
		WHERE id = (
			SELECT id FROM one_time_codes
			WHERE email = $1 AND purpose = $2 AND expires_at > NOW()
			ORDER BY created_at DESC
			LIMIT 1
		)
		RETURNING id, code_hash, attempts
	`
	var (
		id, stored string
		attempts   int
	)
	err = tx.QueryRowContext(ctx, query, email, string(purpose)).Scan(&id, &stored, &attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	matched := subtle.ConstantTimeCompare([]byte(stored), []byte(codeHash)) == 1
	if matched || attempts >= maxAttempts {
		if _, err := tx.ExecContext(ctx, `DELETE FROM one_time_codes WHERE id = $1`, id); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	if !matched && attempts >= maxAttempts {
		return false, domain.ErrRateLimited
	}
	return matched, nil
}

func (r *oneTimeCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM one_time_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
