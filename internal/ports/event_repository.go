package ports

import (
	"context"
	"event-discovery-service/internal/domain"
)

// Port: a read-only boundary onto the external record store of events.
type EventRepository interface {
	// Retrieve all listed events.
	ListEvents(ctx context.Context) ([]domain.EventSummary, error)
	// Retrieve a single event by id.
	GetEvent(ctx context.Context, id string) (domain.EventSummary, error)
}
