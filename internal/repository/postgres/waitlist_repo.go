package postgres

import (
	"context"
	"database/sql"

	"calendasync/internal/domain"
)

type waitlistRepository struct {
	DB *sql.DB
}

func NewWaitlistRepository(db *sql.DB) domain.WaitlistRepository {
	return &waitlistRepository{DB: db}
}

// Create is idempotent per email: a repeat signup refreshes the profile fields.
func (r *waitlistRepository) Create(ctx context.Context, w *domain.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (name, email, industry, role_title, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, industry = EXCLUDED.industry, role_title = EXCLUDED.role_title
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, w.Name, w.Email, w.Industry, w.CurrentRole, w.CreatedAt).Scan(&w.ID)
}
