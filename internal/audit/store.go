package audit

import (
	"context"
)

// Store persists audit events. ListRecent returns newest first.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
