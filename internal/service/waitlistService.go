package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	repository "github.com/ds124wfegd/eventwaitlist/internal/database"
	"github.com/ds124wfegd/eventwaitlist/internal/entity"

	"github.com/sirupsen/logrus"
)

// JoinWaitlistRequest is the payload of a join. GroupSize 0 means one seat.
type JoinWaitlistRequest struct {
	EventID       string `json:"-"`
	AttendeeName  string `json:"attendeeName"`
	AttendeeEmail string `json:"attendeeEmail"`
	GroupSize     int    `json:"groupSize"`
}

type waitlistService struct {
	store repository.TableStore

	// mu guards every read-modify-write of the whole table, across all events.
	mu  sync.Mutex
	now func() time.Time
}

func NewWaitlistService(store repository.TableStore) WaitlistService {
	return &waitlistService{
		store: store,
		now:   time.Now,
	}
}

func (s *waitlistService) Join(ctx context.Context, req *JoinWaitlistRequest) (*entity.JoinResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", entity.ErrInvalidInput)
	}
	if err := validateEventID(req.EventID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.AttendeeName) == "" {
		return nil, fmt.Errorf("%w: attendee name is required", entity.ErrInvalidInput)
	}
	if strings.TrimSpace(req.AttendeeEmail) == "" {
		return nil, fmt.Errorf("%w: attendee email is required", entity.ErrInvalidInput)
	}
	groupSize := req.GroupSize
	if groupSize == 0 {
		groupSize = 1
	}
	if groupSize < 0 {
		return nil, fmt.Errorf("%w: group size must be positive", entity.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.loadForWrite(ctx)
	if err != nil {
		return nil, err
	}

	entry := entity.WaitlistEntry{
		EventID:       req.EventID,
		AttendeeName:  req.AttendeeName,
		AttendeeEmail: req.AttendeeEmail,
		GroupSize:     groupSize,
		JoinedAt:      s.now().UTC(),
	}

	queue := table[req.EventID]
	index := table.IndexOf(req.EventID, req.AttendeeEmail)
	if index >= 0 {
		queue[index] = entry
	} else {
		queue = append(queue, entry)
		index = len(queue) - 1
	}
	table[req.EventID] = queue

	if err := s.save(ctx, table); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"event_id": req.EventID,
		"position": index + 1,
		"total":    len(queue),
	}).Info("Attendee joined waitlist")

	return &entity.JoinResult{
		Position:     index + 1,
		TotalWaiting: len(queue),
	}, nil
}

func (s *waitlistService) Leave(ctx context.Context, eventID, email string) (*entity.LeaveResult, error) {
	if err := validateEventID(eventID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: attendee email is required", entity.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.loadForWrite(ctx)
	if err != nil {
		return nil, err
	}

	queue := table[eventID]
	index := table.IndexOf(eventID, email)
	if index < 0 {
		return &entity.LeaveResult{Success: false, TotalWaiting: len(queue)}, nil
	}

	remaining := make([]entity.WaitlistEntry, 0, len(queue)-1)
	remaining = append(remaining, queue[:index]...)
	remaining = append(remaining, queue[index+1:]...)
	table[eventID] = remaining

	if err := s.save(ctx, table); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"event_id": eventID,
		"total":    len(remaining),
	}).Info("Attendee left waitlist")

	return &entity.LeaveResult{Success: true, TotalWaiting: len(remaining)}, nil
}

func (s *waitlistService) Status(ctx context.Context, eventID, email string) (*entity.WaitlistStatus, error) {
	if err := validateEventID(eventID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: attendee email is required", entity.ErrInvalidInput)
	}

	table := s.loadForRead(ctx)
	status := &entity.WaitlistStatus{TotalWaiting: len(table[eventID])}
	if index := table.IndexOf(eventID, email); index >= 0 {
		status.IsOnWaitlist = true
		status.Position = index + 1
	}
	return status, nil
}

func (s *waitlistService) Size(ctx context.Context, eventID string) (int, error) {
	if err := validateEventID(eventID); err != nil {
		return 0, err
	}
	return len(s.loadForRead(ctx)[eventID]), nil
}

func (s *waitlistService) Dump(ctx context.Context) (entity.WaitlistTable, error) {
	return s.loadForRead(ctx), nil
}

func (s *waitlistService) PruneEmpty(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.loadForWrite(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for eventID, queue := range table {
		if len(queue) == 0 {
			delete(table, eventID)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	if err := s.save(ctx, table); err != nil {
		return 0, err
	}
	return removed, nil
}

// loadForRead never fails: a broken store reads as an empty table.
func (s *waitlistService) loadForRead(ctx context.Context) entity.WaitlistTable {
	table, err := s.store.Load(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Failed to load waitlist, serving empty table")
		return entity.WaitlistTable{}
	}
	if table == nil {
		return entity.WaitlistTable{}
	}
	return table
}

// loadForWrite fails on any load error; a mutation must not overwrite a table it could not read.
func (s *waitlistService) loadForWrite(ctx context.Context) (entity.WaitlistTable, error) {
	var (
		table entity.WaitlistTable
		err   error
	)
	if strict, ok := s.store.(repository.UpdateLoader); ok {
		table, err = strict.LoadForUpdate(ctx)
	} else {
		table, err = s.store.Load(ctx)
	}
	if err != nil {
		if errors.Is(err, entity.ErrPersistenceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", entity.ErrPersistenceUnavailable, err)
	}
	if table == nil {
		table = entity.WaitlistTable{}
	}
	return table, nil
}

func (s *waitlistService) save(ctx context.Context, table entity.WaitlistTable) error {
	err := s.store.Save(ctx, table)
	if err == nil {
		return nil
	}
	if errors.Is(err, entity.ErrPersistenceUnavailable) {
		return fmt.Errorf("failed to save waitlist: %w", err)
	}
	return fmt.Errorf("%w: %w", entity.ErrPersistenceUnavailable, err)
}

func validateEventID(eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return fmt.Errorf("%w: event id is required", entity.ErrInvalidInput)
	}
	return nil
}
