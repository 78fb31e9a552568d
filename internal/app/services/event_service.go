package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/app/auth"
	"github.com/yigit/campusblog/internal/app/models"
	"github.com/yigit/campusblog/internal/app/models/dto"
	"github.com/yigit/campusblog/internal/app/repositories"
	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/pkg/apperrors"
	"github.com/yigit/campusblog/internal/pkg/metrics"
)

// EventService defines the event store operations
type EventService interface {
	CreateEvent(ctx context.Context, caller *models.User, req *dto.CreateEventRequest) (*models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context, filter *dto.EventFilterRequest) ([]*models.Event, error)
	ListEventsByHost(ctx context.Context, hostID int64) ([]*models.Event, error)
	UpdateEvent(ctx context.Context, caller *models.User, id int64, req *dto.UpdateEventRequest) (*models.Event, error)
	DeleteEvent(ctx context.Context, caller *models.User, id int64) error
	Register(ctx context.Context, caller *models.User, id int64) (*models.Event, error)
	Unregister(ctx context.Context, caller *models.User, id int64) (*models.Event, error)
	Attendees(ctx context.Context, id int64) ([]*models.User, error)
}

// eventServiceImpl implements EventService
type eventServiceImpl struct {
	db        *db.Database
	eventRepo *repositories.EventRepository
	userRepo  *repositories.UserRepository
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewEventService creates a new EventService
func NewEventService(database *db.Database, repos *repositories.Repositories, m *metrics.Metrics, logger zerolog.Logger) EventService {
	return &eventServiceImpl{
		db:        database,
		eventRepo: repos.EventRepository,
		userRepo:  repos.UserRepository,
		metrics:   m,
		logger:    logger,
	}
}

// errInvalidRange reports an end date before the start date
func errInvalidRange(start, end time.Time) error {
	return apperrors.NewCustomError(apperrors.ErrInvalidRange, "endDate must not be before startDate").
		WithDetails(map[string]interface{}{
			"startDate": start.UTC().Format(time.RFC3339),
			"endDate":   end.UTC().Format(time.RFC3339),
		})
}

// CreateEvent stores a new event hosted by the caller
func (s *eventServiceImpl) CreateEvent(ctx context.Context, caller *models.User, req *dto.CreateEventRequest) (*models.Event, error) {
	if err := auth.Authorize(caller, auth.ActionCreate, auth.Resource{Kind: auth.KindEvent}); err != nil {
		return nil, err
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, errInvalidRange(req.StartDate, req.EndDate)
	}

	event := &models.Event{
		Title:       strings.TrimSpace(req.Title),
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		Location:    strings.TrimSpace(req.Location),
		CoverImage:  strings.TrimSpace(req.CoverImage),
		StartDate:   req.StartDate.UTC(),
		EndDate:     req.EndDate.UTC(),
		HostID:      caller.ID,
	}
	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		if err := holdUsers(ctx, s.userRepo, caller.ID, 0, nil); err != nil {
			return err
		}
		return s.eventRepo.Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	event.Host = caller
	event.Attendees = []int64{}

	s.logger.Info().Int64("eventID", event.ID).Int64("hostID", caller.ID).Msg("Event created")
	s.metrics.RecordContentOperation("event", "create")
	return event, nil
}

// GetEvent returns an event with its host and attendees read from one snapshot
func (s *eventServiceImpl) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	var event *models.Event
	err := s.db.ReadSnapshot(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.loadEvent(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventServiceImpl) loadEvent(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachAttendees(ctx, []*models.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventServiceImpl) attachAttendees(ctx context.Context, events []*models.Event) error {
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}

	attendees, err := s.eventRepo.AttendeesByEventIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, e := range events {
		if a, ok := attendees[e.ID]; ok {
			e.Attendees = a
		}
	}
	return nil
}

// ListEvents returns events soonest first, filtered by search text and category
func (s *eventServiceImpl) ListEvents(ctx context.Context, filter *dto.EventFilterRequest) ([]*models.Event, error) {
	f := repositories.EventFilter{}
	if filter != nil {
		f.Search = filter.Search
		f.Category = filter.Category
	}
	return s.listEvents(ctx, f)
}

// ListEventsByHost returns the events an existing user hosts
func (s *eventServiceImpl) ListEventsByHost(ctx context.Context, hostID int64) ([]*models.Event, error) {
	if _, err := s.userRepo.GetByID(ctx, hostID); err != nil {
		return nil, err
	}
	return s.listEvents(ctx, repositories.EventFilter{HostID: hostID})
}

func (s *eventServiceImpl) listEvents(ctx context.Context, filter repositories.EventFilter) ([]*models.Event, error) {
	var events []*models.Event
	err := s.db.ReadSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if events, err = s.eventRepo.List(ctx, filter); err != nil {
			return err
		}
		return s.attachAttendees(ctx, events)
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent edits an event. Only its host or an administrator may do so,
// and the resulting date range must stay valid.
func (s *eventServiceImpl) UpdateEvent(ctx context.Context, caller *models.User, id int64, req *dto.UpdateEventRequest) (*models.Event, error) {
	if caller == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	var event *models.Event
	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		hostID, err := s.eventRepo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(caller, auth.ActionUpdate, auth.Event(hostID)); err != nil {
			return err
		}

		if event, err = s.eventRepo.GetByID(ctx, id); err != nil {
			return err
		}
		applyEventUpdate(event, req)
		if event.EndDate.Before(event.StartDate) {
			return errInvalidRange(event.StartDate, event.EndDate)
		}

		if err := s.eventRepo.Update(ctx, event); err != nil {
			return err
		}
		return s.attachAttendees(ctx, []*models.Event{event})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("eventID", id).Int64("callerID", caller.ID).Msg("Event updated")
	s.metrics.RecordContentOperation("event", "update")
	return event, nil
}

func applyEventUpdate(event *models.Event, req *dto.UpdateEventRequest) {
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Category != nil {
		event.Category = strings.TrimSpace(*req.Category)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = strings.TrimSpace(*req.Location)
	}
	if req.CoverImage != nil {
		event.CoverImage = strings.TrimSpace(*req.CoverImage)
	}
	if req.StartDate != nil {
		event.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		event.EndDate = req.EndDate.UTC()
	}
}

// DeleteEvent removes an event together with its registrations
func (s *eventServiceImpl) DeleteEvent(ctx context.Context, caller *models.User, id int64) error {
	if caller == nil {
		return apperrors.ErrUnauthenticated
	}

	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		hostID, err := s.eventRepo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := auth.Authorize(caller, auth.ActionDelete, auth.Event(hostID)); err != nil {
			return err
		}

		if err := s.eventRepo.DeleteAttendeesByEvent(ctx, id); err != nil {
			return err
		}
		return s.eventRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("eventID", id).Int64("callerID", caller.ID).Msg("Event deleted")
	s.metrics.RecordContentOperation("event", "delete")
	return nil
}

// Register adds the caller to the attendees. Registering twice is a no-op.
func (s *eventServiceImpl) Register(ctx context.Context, caller *models.User, id int64) (*models.Event, error) {
	return s.changeRegistration(ctx, caller, id, true)
}

// Unregister removes the caller from the attendees. Unregistering twice is a no-op.
func (s *eventServiceImpl) Unregister(ctx context.Context, caller *models.User, id int64) (*models.Event, error) {
	return s.changeRegistration(ctx, caller, id, false)
}

func (s *eventServiceImpl) changeRegistration(ctx context.Context, caller *models.User, id int64, register bool) (*models.Event, error) {
	if err := auth.Authorize(caller, auth.ActionUpdate, auth.Resource{Kind: auth.KindRegistration}); err != nil {
		return nil, err
	}

	var (
		event   *models.Event
		changed bool
	)
	err := s.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		hostID, err := s.eventRepo.HostID(ctx, id)
		if err != nil {
			return err
		}
		if err := holdUsers(ctx, s.userRepo, caller.ID, hostID, apperrors.ErrEventNotFound); err != nil {
			return err
		}
		if _, err := s.eventRepo.LockByID(ctx, id); err != nil {
			return err
		}

		if register {
			changed, err = s.eventRepo.AddAttendee(ctx, id, caller.ID)
		} else {
			changed, err = s.eventRepo.RemoveAttendee(ctx, id, caller.ID)
		}
		if err != nil {
			return err
		}

		event, err = s.loadEvent(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		op := "create"
		if !register {
			op = "delete"
		}
		s.logger.Info().Int64("eventID", id).Int64("userID", caller.ID).Bool("registered", register).Msg("Event registration changed")
		s.metrics.RecordContentOperation("registration", op)
	}
	return event, nil
}

// Attendees returns the users registered for an event
func (s *eventServiceImpl) Attendees(ctx context.Context, id int64) ([]*models.User, error) {
	var users []*models.User
	err := s.db.ReadSnapshot(ctx, func(ctx context.Context) error {
		if _, err := s.eventRepo.GetByID(ctx, id); err != nil {
			return err
		}
		var err error
		users, err = s.eventRepo.Attendees(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
