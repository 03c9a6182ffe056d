package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"calendasync/internal/domain"
)

const pqInvalidTextRepresentation = "22P02"

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

// mapEventErr translates driver errors: a malformed id cannot name an existing row, and the
// events_no_overlap exclusion constraint reports a conflicting interval.
func mapEventErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows), isPQCode(err, pqInvalidTextRepresentation):
		return domain.ErrNotFound
	case isPQCode(err, pqExclusionViolation):
		return domain.ErrConflict
	}
	return err
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (user_id, title, description, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, e.UserID, e.Title, nullString(e.Description), e.StartTime, e.EndTime, e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
	if isPQCode(err, pqExclusionViolation) {
		return domain.ErrConflict
	}
	return err
}

const eventColumns = `id, user_id, title, description, start_time, end_time, created_at, updated_at`

func (r *eventRepository) GetByID(ctx context.Context, userID, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND user_id = $2
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, mapEventErr(err)
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE user_id = $1`
	args := []any{userID}
	if filter.OverlapStart != nil && filter.OverlapEnd != nil {
		// half-open [start, end): touching intervals do not overlap
		args = append(args, *filter.OverlapEnd, *filter.OverlapStart)
		query += fmt.Sprintf(" AND start_time < $%d AND end_time > $%d", len(args)-1, len(args))
	}
	if filter.ExcludeID != "" {
		args = append(args, filter.ExcludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	query += " ORDER BY start_time ASC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		if isPQCode(err, pqInvalidTextRepresentation) {
			return []*domain.Event{}, nil
		}
		return nil, err
	}
	defer rows.Close()
	events := []*domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, start_time = $3, end_time = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7
		RETURNING created_at
	`
	err := r.DB.QueryRowContext(ctx, query, e.Title, nullString(e.Description), e.StartTime, e.EndTime, e.UpdatedAt, e.ID, e.UserID).Scan(&e.CreatedAt)
	return mapEventErr(err)
}

func (r *eventRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapEventErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var desc sql.NullString
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &desc, &e.StartTime, &e.EndTime, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		e.Description = &desc.String
	}
	return e, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
