package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/immxrtalbeast/classboard/internal/domain"
)

type CanvasInteractor interface {
	Join(ctx context.Context, session *domain.Session, roomID string) (domain.Snapshot, error)
	ApplyDelta(ctx context.Context, session *domain.Session, roomID string, object json.RawMessage) error
	RemoveObject(ctx context.Context, session *domain.Session, roomID string, objectID json.RawMessage) error
	Clear(ctx context.Context, session *domain.Session, roomID string) error
	SetLock(ctx context.Context, session *domain.Session, roomID string, locked bool) error
	SetBackground(ctx context.Context, session *domain.Session, roomID string, background json.RawMessage) error
	Snapshot(ctx context.Context, roomID string) (domain.Snapshot, error)
	GetRoom(ctx context.Context, roomID string) (*RoomInfo, error)
	ListRooms(ctx context.Context) ([]*RoomInfo, error)
}

type SignalInteractor interface {
	SendOffer(ctx context.Context, from *domain.Session, toPeerID string, offer json.RawMessage) error
	SendAnswer(ctx context.Context, from *domain.Session, toPeerID string, answer json.RawMessage) error
	SendICECandidate(ctx context.Context, from *domain.Session, toPeerID string, candidate json.RawMessage) error
	JoinVideoRoom(ctx context.Context, session *domain.Session, roomID string, peerID string, role string) error
	LeaveVideoRoom(ctx context.Context, session *domain.Session, roomID string, peerID string) error
	VideoToggle(ctx context.Context, session *domain.Session, roomID string, userID string, kind string, enabled json.RawMessage) error
}

type SessionInteractor interface {
	Connect(ctx context.Context) (*domain.Session, error)
	Disconnect(ctx context.Context, session *domain.Session) error
}

// RoomInfo is a read-only summary of a room used by the HTTP API.
type RoomInfo struct {
	ID            string
	Objects       int
	Locked        bool
	HasBackground bool
	BoardMembers  int
	VideoMembers  int
	CreatedAt     time.Time
	LastActive    time.Time
}
