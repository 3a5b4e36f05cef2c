package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"friendspark/cerr"
	"friendspark/geohash"
	"friendspark/models"
)

const uniqueViolation = "23505"

const eventColumns = `id, title, description, latitude, longitude, geohash, event_date,
	duration_minutes, max_attendees, is_public, is_hidden, hidden_reason,
	creator_id, created_at, updated_at`

const (
	insertEventQuery = `INSERT INTO events (` + eventColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	selectEventQuery = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	selectEventsQuery = `SELECT ` + eventColumns + ` FROM events WHERE id = ANY($1::uuid[])`

	updateEventQuery = `UPDATE events SET title = $2, description = $3, latitude = $4,
	longitude = $5, geohash = $6, event_date = $7, duration_minutes = $8,
	max_attendees = $9, is_public = $10, is_hidden = $11, hidden_reason = $12,
	updated_at = $13 WHERE id = $1`

	deleteEventQuery = `DELETE FROM events WHERE id = $1`

	// geohash is collated "C", so the range is a prefix match served by
	// the plain btree index. '~' sorts after every geohash symbol.
	scanPrefixQuery = `SELECT id FROM events WHERE geohash >= $1 AND geohash < $2
	ORDER BY geohash, id`

	selectByCreatorQuery = `SELECT ` + eventColumns + ` FROM events WHERE creator_id = $1
	ORDER BY event_date, id`

	locationsQuery = `SELECT id, geohash FROM events`
)

// EventStore persists events in postgres.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Create(ctx context.Context, e *models.Event) error {
	_, err := s.db.ExecContext(ctx, insertEventQuery,
		e.ID, e.Title, e.Description, e.Latitude, e.Longitude, e.Geohash, e.EventDate,
		e.DurationMinutes, e.MaxAttendees, e.IsPublic, e.IsHidden, e.HiddenReason,
		e.CreatorID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return cerr.Conflict(fmt.Errorf("event %s already exists", e.ID))
		}
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

func (s *EventStore) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, selectEventQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cerr.NotFound(fmt.Errorf("%w: %s", models.ErrEventNotFound, id))
	}
	if err != nil {
		return nil, fmt.Errorf("selecting event: %w", err)
	}
	return e, nil
}

// GetMany returns the events with the given ids. Unknown ids are skipped
// and the result order is unspecified.
func (s *EventStore) GetMany(ctx context.Context, ids []uuid.UUID) ([]*models.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	rows, err := s.db.QueryContext(ctx, selectEventsQuery, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("selecting events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ByCreator returns the events created by creatorID ordered by event date.
func (s *EventStore) ByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectByCreatorQuery, creatorID)
	if err != nil {
		return nil, fmt.Errorf("selecting events of creator %s: %w", creatorID, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *EventStore) Update(ctx context.Context, e *models.Event) error {
	res, err := s.db.ExecContext(ctx, updateEventQuery,
		e.ID, e.Title, e.Description, e.Latitude, e.Longitude, e.Geohash, e.EventDate,
		e.DurationMinutes, e.MaxAttendees, e.IsPublic, e.IsHidden, e.HiddenReason,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	return expectOneRow(res, e.ID)
}

func (s *EventStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, deleteEventQuery, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return expectOneRow(res, id)
}

// ScanPrefix returns the ids of events whose geohash starts with prefix,
// ordered by geohash.
func (s *EventStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := geohash.Validate(prefix); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, scanPrefixQuery, prefix, prefix+"~")
	if err != nil {
		return nil, fmt.Errorf("scanning prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id.String())
	}
	return ids, rows.Err()
}

// Locations returns every event id with its stored geohash. It is used to
// fill a proximity index on startup.
func (s *EventStore) Locations(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, locationsQuery)
	if err != nil {
		return nil, fmt.Errorf("selecting locations: %w", err)
	}
	defer rows.Close()

	locs := make(map[string]string)
	for rows.Next() {
		var (
			id   uuid.UUID
			hash string
		)
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, err
		}
		locs[id.String()] = hash
	}
	return locs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*models.Event, error) {
	var (
		e            models.Event
		maxAttendees sql.NullInt32
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Latitude, &e.Longitude, &e.Geohash, &e.EventDate,
		&e.DurationMinutes, &maxAttendees, &e.IsPublic, &e.IsHidden, &e.HiddenReason,
		&e.CreatorID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if maxAttendees.Valid {
		n := int(maxAttendees.Int32)
		e.MaxAttendees = &n
	}
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]*models.Event, error) {
	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func expectOneRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return cerr.NotFound(fmt.Errorf("%w: %s", models.ErrEventNotFound, id))
	}
	return nil
}
