package repository

import (
	"context"

	"github.com/immxrtalbeast/classboard/internal/domain"
)

// RoomRepository is the process-wide room registry. Rooms are created on
// first join and only removed by the optional idle eviction.
type RoomRepository interface {
	GetOrCreate(ctx context.Context, id string) (*domain.Room, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	List(ctx context.Context) ([]*domain.Room, error)
	Delete(ctx context.Context, id string) error
}

// SessionRepository tracks live sessions and their group memberships. It
// is the addressing layer both relays fan out through.
type SessionRepository interface {
	Add(ctx context.Context, session *domain.Session) error
	Remove(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Resolve(ctx context.Context, peerID string) (*domain.Session, error)
	SetAlias(ctx context.Context, peerID string, sessionID string) error
	RemoveAlias(ctx context.Context, peerID string, sessionID string) error
	Join(ctx context.Context, ns domain.Namespace, roomID string, session *domain.Session) error
	Leave(ctx context.Context, ns domain.Namespace, roomID string, sessionID string) (bool, error)
	Members(ctx context.Context, ns domain.Namespace, roomID string) ([]*domain.Session, error)
}
