package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
	"github.com/yigit/campusblog/internal/pkg/logger"
)

// EventFilter narrows an event listing. Empty fields do not filter.
type EventFilter struct {
	Search   string
	Category string
	HostID   int64
}

// EventRepository handles events and their attendee set
type EventRepository struct {
	db *db.Database
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(database *db.Database) *EventRepository {
	return &EventRepository{db: database}
}

var eventFields = []string{"e.id", "e.title", "e.category", "e.description", "e.location", "e.cover_image", "e.start_date", "e.end_date", "e.host_id", "e.created_at", "e.updated_at"}

func (r *EventRepository) selectEvents() squirrel.SelectBuilder {
	cols := append(append([]string{}, eventFields...), userColumns("u")...)
	return r.db.Builder().
		Select(cols...).
		From("events e").
		Join("users u ON u.id = e.host_id")
}

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{Host: &models.User{}, Attendees: []int64{}}
	dest := append([]interface{}{
		&event.ID, &event.Title, &event.Category, &event.Description, &event.Location, &event.CoverImage,
		&event.StartDate, &event.EndDate, &event.HostID, &event.CreatedAt, &event.UpdatedAt,
	}, userDest(event.Host)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return event, nil
}

// Create inserts event and sets its ID and timestamps
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	now := time.Now().UTC()
	event.CreatedAt, event.UpdatedAt = now, now

	query, args, err := r.db.Builder().
		Insert("events").
		Columns("title", "category", "description", "location", "cover_image", "start_date", "end_date", "host_id", "created_at", "updated_at").
		Values(event.Title, event.Category, event.Description, event.Location, event.CoverImage,
			event.StartDate.UTC(), event.EndDate.UTC(), event.HostID, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create event query: %w", err)
	}

	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&event.ID); err != nil {
		logger.Error().Err(err).Int64("hostID", event.HostID).Msg("Error executing create event query")
		return fmt.Errorf("error creating event: %w", err)
	}
	return nil
}

// GetByID retrieves an event with its host. Attendees are not loaded.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query, args, err := r.selectEvents().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get event query: %w", err)
	}

	event, err := scanEvent(r.db.Conn(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("error retrieving event: %w", err)
	}
	return event, nil
}

// LockByID locks the event row for the surrounding transaction and returns its host
func (r *EventRepository) LockByID(ctx context.Context, id int64) (hostID int64, err error) {
	return r.hostOf(ctx, id, r.db.Dialect.LockSuffix)
}

// HostID returns the host of an event without locking it
func (r *EventRepository) HostID(ctx context.Context, id int64) (int64, error) {
	return r.hostOf(ctx, id, "")
}

func (r *EventRepository) hostOf(ctx context.Context, id int64, lockSuffix string) (hostID int64, err error) {
	builder := r.db.Builder().
		Select("host_id").
		From("events").
		Where(squirrel.Eq{"id": id})
	if lockSuffix != "" {
		builder = builder.Suffix(lockSuffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build lock event query: %w", err)
	}

	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&hostID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperrors.ErrEventNotFound
		}
		return 0, fmt.Errorf("error locking event: %w", err)
	}
	return hostID, nil
}

// List returns events by start date, soonest first. Search matches title,
// description, location or host name; category matches exactly ignoring case.
func (r *EventRepository) List(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	builder := r.selectEvents()

	if strings.TrimSpace(filter.Search) != "" {
		builder = builder.Where(matchAny(r.db.Dialect, filter.Search, "e.title", "e.description", "e.location", "u.name"))
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		builder = builder.Where(squirrel.Expr(r.db.Dialect.Lower("e.category")+" = ?", strings.ToLower(category)))
	}
	if filter.HostID > 0 {
		builder = builder.Where(squirrel.Eq{"e.host_id": filter.HostID})
	}

	query, args, err := builder.OrderBy("e.start_date ASC", "e.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return events, nil
}

// Update writes the mutable fields of event and refreshes updatedAt
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	affected, err := execAffected(ctx, r.db, r.db.Builder().
		Update("events").
		SetMap(map[string]interface{}{
			"title":       event.Title,
			"category":    event.Category,
			"description": event.Description,
			"location":    event.Location,
			"cover_image": event.CoverImage,
			"start_date":  event.StartDate.UTC(),
			"end_date":    event.EndDate.UTC(),
			"updated_at":  event.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": event.ID}))
	if err != nil {
		return fmt.Errorf("error updating event: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

// Delete removes the event row. Registrations must be removed first.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	affected, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("events").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("error deleting event: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

// DeleteByHost removes every event hosted by hostID
func (r *EventRepository) DeleteByHost(ctx context.Context, hostID int64) (int64, error) {
	deleted, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("events").
		Where(squirrel.Eq{"host_id": hostID}))
	if err != nil {
		return 0, fmt.Errorf("error deleting events of host: %w", err)
	}
	return deleted, nil
}

// AddAttendee registers userID for eventID. It reports whether a new registration was made.
func (r *EventRepository) AddAttendee(ctx context.Context, eventID, userID int64) (bool, error) {
	query, args, err := r.db.Builder().
		Insert("event_attendees").
		Columns("event_id", "user_id", "registered_at").
		Values(eventID, userID, time.Now().UTC()).
		Suffix("ON CONFLICT (event_id, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build add attendee query: %w", err)
	}

	result, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("error adding attendee: %w", err)
	}
	added, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return added > 0, nil
}

// RemoveAttendee unregisters userID from eventID. It reports whether a registration existed.
func (r *EventRepository) RemoveAttendee(ctx context.Context, eventID, userID int64) (bool, error) {
	removed, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("event_attendees").
		Where(squirrel.Eq{"event_id": eventID, "user_id": userID}))
	if err != nil {
		return false, fmt.Errorf("error removing attendee: %w", err)
	}
	return removed > 0, nil
}

// AttendeesByEventIDs returns the attendee sets of the given events in registration order
func (r *EventRepository) AttendeesByEventIDs(ctx context.Context, eventIDs []int64) (map[int64][]int64, error) {
	attendees := make(map[int64][]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return attendees, nil
	}

	query, args, err := r.db.Builder().
		Select("event_id", "user_id").
		From("event_attendees").
		Where(squirrel.Eq{"event_id": eventIDs}).
		OrderBy("registered_at ASC", "user_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build attendees query: %w", err)
	}

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying attendees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID, userID int64
		if err := rows.Scan(&eventID, &userID); err != nil {
			return nil, fmt.Errorf("error scanning attendee: %w", err)
		}
		attendees[eventID] = append(attendees[eventID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendees: %w", err)
	}
	return attendees, nil
}

// Attendees returns the users registered for eventID in registration order
func (r *EventRepository) Attendees(ctx context.Context, eventID int64) ([]*models.User, error) {
	return queryUserRows(ctx, r.db, r.db.Builder().
		Select(userColumns("u")...).
		From("event_attendees a").
		Join("users u ON u.id = a.user_id").
		Where(squirrel.Eq{"a.event_id": eventID}).
		OrderBy("a.registered_at ASC", "u.id ASC"))
}

// DeleteAttendeesByEvent clears the registrations of eventID
func (r *EventRepository) DeleteAttendeesByEvent(ctx context.Context, eventID int64) error {
	_, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("event_attendees").
		Where(squirrel.Eq{"event_id": eventID}))
	if err != nil {
		return fmt.Errorf("error deleting attendees of event: %w", err)
	}
	return nil
}

// DeleteAttendeesOfUser removes the registrations made by userID and every
// registration of events userID hosts
func (r *EventRepository) DeleteAttendeesOfUser(ctx context.Context, userID int64) error {
	_, err := execAffected(ctx, r.db, r.db.Builder().
		Delete("event_attendees").
		Where(squirrel.Or{
			squirrel.Eq{"user_id": userID},
			squirrel.Expr("event_id IN (SELECT id FROM events WHERE host_id = ?)", userID),
		}))
	if err != nil {
		return fmt.Errorf("error deleting attendees of user: %w", err)
	}
	return nil
}
