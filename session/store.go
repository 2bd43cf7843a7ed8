package session

import (
	"context"

	"github.com/haven-platform/gateway/domain"
)

// Store defines how per-browser sessions are stored and retrieved.
// Implementations must treat the session value as opaque and honor the
// configured lifetime; Get returns (nil, nil) when no session exists.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Put(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
}
