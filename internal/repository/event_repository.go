package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/startup-ecosystem/internal/model"
)

// EventRepo provides CRUD operations for ecosystem events.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// List returns all events ordered by date, earliest first.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, title, description, event_date, location FROM events ORDER BY event_date ASC, id ASC")
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := []model.Event{}
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, classify(rows.Err())
}

// GetByID fetches one event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	var e model.Event
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, title, description, event_date, location FROM events WHERE id=?", id).
		Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location)
	return e, classify(err)
}

// Create inserts the event and sets e.ID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO events (title, description, event_date, location) VALUES (?,?,?,?)",
		e.Title, e.Description, e.DateString(), e.Location)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Update overwrites every field of the event.
func (r *EventRepo) Update(ctx context.Context, e model.Event) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE events SET title=?, description=?, event_date=?, location=? WHERE id=?",
		e.Title, e.Description, e.DateString(), e.Location, e.ID)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := r.GetByID(ctx, e.ID)
		return err
	}
	return nil
}

// Delete removes the event.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM events WHERE id=?", id)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
