package service

import (
	"context"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
	"github.com/ds124wfegd/eventwaitlist/pkg/eventsapi"
)

// WaitlistService keeps one ordered queue of attendees per event.
type WaitlistService interface {
	// Мутации: каждая выполняется как одно чтение-изменение-запись всей таблицы
	Join(ctx context.Context, req *JoinWaitlistRequest) (*entity.JoinResult, error)
	Leave(ctx context.Context, eventID, email string) (*entity.LeaveResult, error)
	PruneEmpty(ctx context.Context) (int, error)

	// Чтение: ошибки хранилища не возвращаются
	Status(ctx context.Context, eventID, email string) (*entity.WaitlistStatus, error)
	Size(ctx context.Context, eventID string) (int, error)
	Dump(ctx context.Context) (entity.WaitlistTable, error)
}

// EventService proxies the external events API and decorates events with waitlist data.
type EventService interface {
	ListEvents(ctx context.Context, filter eventsapi.ListFilter) (*entity.EventsPage, error)
	GetEvent(ctx context.Context, id string) (*entity.EventWithWaitlist, error)
	Register(ctx context.Context, id string, registration *entity.Registration) (*entity.RegistrationResult, error)
}
