package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
	"github.com/ds124wfegd/eventwaitlist/pkg/eventsapi"
)

// EventsClient is the part of the events API the service depends on.
type EventsClient interface {
	ListEvents(ctx context.Context, filter eventsapi.ListFilter) (*entity.EventsPage, error)
	GetEvent(ctx context.Context, id string) (*entity.Event, error)
	Register(ctx context.Context, id string, registration *entity.Registration) (*entity.RegistrationResult, error)
}

type eventService struct {
	events   EventsClient
	waitlist WaitlistService
}

// NewEventService creates a new instance of EventService
func NewEventService(events EventsClient, waitlist WaitlistService) EventService {
	return &eventService{
		events:   events,
		waitlist: waitlist,
	}
}

func (s *eventService) ListEvents(ctx context.Context, filter eventsapi.ListFilter) (*entity.EventsPage, error) {
	page, err := s.events.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if page.Events == nil {
		page.Events = []entity.Event{}
	}
	return page, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*entity.EventWithWaitlist, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: event id is required", entity.ErrInvalidInput)
	}

	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	waiting, err := s.waitlist.Size(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get waitlist size: %w", err)
	}

	return &entity.EventWithWaitlist{
		Event:          *event,
		Status:         event.Capacity.Status(),
		AvailableSpots: event.Capacity.AvailableSpots(),
		WaitlistSize:   waiting,
	}, nil
}

func (s *eventService) Register(ctx context.Context, id string, registration *entity.Registration) (*entity.RegistrationResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: event id is required", entity.ErrInvalidInput)
	}
	if registration == nil ||
		strings.TrimSpace(registration.AttendeeName) == "" ||
		strings.TrimSpace(registration.AttendeeEmail) == "" {
		return nil, fmt.Errorf("%w: attendee name and email are required", entity.ErrInvalidInput)
	}
	if registration.GroupSize < 0 {
		return nil, fmt.Errorf("%w: group size must be positive", entity.ErrInvalidInput)
	}

	req := *registration
	if req.GroupSize == 0 {
		req.GroupSize = 1
	}

	result, err := s.events.Register(ctx, id, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to register for event: %w", err)
	}
	return result, nil
}
