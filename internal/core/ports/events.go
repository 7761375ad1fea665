package ports

import (
	"context"

	"github.com/polizadesk/ticketboard/internal/core/domain"
)

// ChangeFeed is the secondary port mutations use to signal that the ticket
// snapshot changed. Delivery is best-effort; consumers recover by refetching.
type ChangeFeed interface {
	Invalidate(ctx context.Context) error
}

// EventBroadcaster fans an event out to connected realtime clients.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
