package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/classboard/internal/domain"
	"github.com/immxrtalbeast/classboard/internal/repository"
	"github.com/immxrtalbeast/classboard/lib/logger/sl"
)

var ErrEmptyRoomID = errors.New("room id is required")

// CanvasService keeps per-room whiteboard state and relays edits to the
// other members of the room.
type CanvasService struct {
	rooms    repository.RoomRepository
	sessions repository.SessionRepository
	log      *slog.Logger
	out      fanout
}

func NewCanvasService(rooms repository.RoomRepository, sessions repository.SessionRepository, log *slog.Logger) *CanvasService {
	if log == nil {
		log = slog.Default()
	}
	return &CanvasService{
		rooms:    rooms,
		sessions: sessions,
		log:      log,
		out:      fanout{sessions: sessions, log: log},
	}
}

// Join binds the session to the room, creating the room on first use, and
// sends the current state to the joining session only.
func (s *CanvasService) Join(ctx context.Context, session *domain.Session, roomID string) (domain.Snapshot, error) {
	const op = "service.canvas.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID),
		slog.String("session_id", session.ID),
	)

	if roomID == "" {
		return domain.Snapshot{}, ErrEmptyRoomID
	}

	if prev := session.RoomID(); prev != "" && prev != roomID {
		if _, err := s.sessions.Leave(ctx, domain.NamespaceBoard, prev, session.ID); err != nil {
			return domain.Snapshot{}, err
		}
		log.Debug("left previous room", slog.String("prev_room_id", prev))
	}

	room, created, err := s.lockLiveRoom(ctx, roomID)
	if err != nil {
		log.Error("failed to get room", sl.Err(err))
		return domain.Snapshot{}, err
	}
	defer room.Mutex.Unlock()

	if err := s.sessions.Join(ctx, domain.NamespaceBoard, roomID, session); err != nil {
		log.Error("failed to join room", sl.Err(err))
		return domain.Snapshot{}, err
	}
	session.SetRoomID(roomID)

	snapshot := room.Snapshot()
	if event, ok := s.out.event(domain.EventInitCanvas, snapshot); ok {
		s.out.send(session, event)
	}

	log.Info("session joined room",
		slog.Bool("created", created),
		slog.Int("objects", len(snapshot.Objects)),
		slog.Bool("locked", snapshot.Locked),
	)
	return snapshot, nil
}

// ApplyDelta upserts the object by id and forwards it unchanged to every
// other member of the room.
func (s *CanvasService) ApplyDelta(ctx context.Context, session *domain.Session, roomID string, object json.RawMessage) error {
	room, ok, err := s.lockRoom(ctx, roomID)
	if err != nil || !ok {
		return err
	}
	defer room.Mutex.Unlock()

	obj := domain.NewCanvasObject(object)
	added := room.Upsert(obj)

	s.out.broadcast(ctx, domain.NamespaceBoard, roomID, domain.Event{
		Name: domain.EventDrawToClient,
		Data: obj.Body,
	}, session.ID)

	s.log.Debug("object applied",
		slog.String("room_id", roomID),
		slog.String("object_id", obj.ID),
		slog.Bool("added", added),
	)
	return nil
}

// RemoveObject deletes the object whose id equals objectID by JSON type and
// value, then tells the other members.
func (s *CanvasService) RemoveObject(ctx context.Context, session *domain.Session, roomID string, objectID json.RawMessage) error {
	room, ok, err := s.lockRoom(ctx, roomID)
	if err != nil || !ok {
		return err
	}
	defer room.Mutex.Unlock()

	id := domain.ParseObjectID(objectID)
	removed := room.Remove(id)

	if event, ok := s.out.event(domain.EventObjectRemoved, domain.ObjectRemovedPayload{ID: domain.ObjectIDJSON(id)}); ok {
		s.out.broadcast(ctx, domain.NamespaceBoard, roomID, event, session.ID)
	}

	s.log.Debug("object removed",
		slog.String("room_id", roomID),
		slog.String("object_id", id),
		slog.Bool("found", removed),
	)
	return nil
}

// Clear resets the room and tells every member, the sender included.
func (s *CanvasService) Clear(ctx context.Context, session *domain.Session, roomID string) error {
	room, ok, err := s.lockRoom(ctx, roomID)
	if err != nil || !ok {
		return err
	}
	defer room.Mutex.Unlock()

	room.Clear()
	s.out.broadcastAll(ctx, domain.NamespaceBoard, roomID, domain.Event{Name: domain.EventClearCanvas})

	s.log.Info("room cleared", slog.String("room_id", roomID), slog.String("session_id", session.ID))
	return nil
}

// SetLock stores the lock flag and tells every member, the sender included.
func (s *CanvasService) SetLock(ctx context.Context, session *domain.Session, roomID string, locked bool) error {
	room, ok, err := s.lockRoom(ctx, roomID)
	if err != nil || !ok {
		return err
	}
	defer room.Mutex.Unlock()

	room.SetLocked(locked)
	if event, ok := s.out.event(domain.EventAdminLockStatus, domain.LockStatusPayload{Locked: locked}); ok {
		s.out.broadcastAll(ctx, domain.NamespaceBoard, roomID, event)
	}

	s.log.Info("room lock changed",
		slog.String("room_id", roomID),
		slog.String("session_id", session.ID),
		slog.Bool("locked", locked),
	)
	return nil
}

func (s *CanvasService) SetBackground(ctx context.Context, session *domain.Session, roomID string, background json.RawMessage) error {
	room, ok, err := s.lockRoom(ctx, roomID)
	if err != nil || !ok {
		return err
	}
	defer room.Mutex.Unlock()

	room.SetBackground(background)
	if event, ok := s.out.event(domain.EventUpdateBackground, domain.BackgroundPayload{Background: room.Background()}); ok {
		s.out.broadcast(ctx, domain.NamespaceBoard, roomID, event, session.ID)
	}

	s.log.Debug("background changed", slog.String("room_id", roomID))
	return nil
}

func (s *CanvasService) Snapshot(ctx context.Context, roomID string) (domain.Snapshot, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	room.Mutex.Lock()
	defer room.Mutex.Unlock()
	return room.Snapshot(), nil
}

func (s *CanvasService) GetRoom(ctx context.Context, roomID string) (*RoomInfo, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return s.roomInfo(ctx, room)
}

func (s *CanvasService) ListRooms(ctx context.Context) ([]*RoomInfo, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		info, err := s.roomInfo(ctx, room)
		if err != nil {
			return nil, err
		}
		result = append(result, info)
	}
	return result, nil
}

// EvictIdle deletes rooms nobody is joined to and nobody touched for ttl.
// A zero ttl disables eviction.
func (s *CanvasService) EvictIdle(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	const op = "service.canvas.evictIdle"

	if ttl <= 0 {
		return 0, nil
	}

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return 0, err
	}

	evicted := 0
	for _, room := range rooms {
		ok, err := s.evictIfIdle(ctx, room, now, ttl)
		if err != nil {
			return evicted, err
		}
		if ok {
			evicted++
		}
	}

	if evicted > 0 {
		s.log.Info("evicted idle rooms", slog.String("op", op), slog.Int("count", evicted))
	}
	return evicted, nil
}

// RunJanitor evicts idle rooms every interval until ctx is done.
func (s *CanvasService) RunJanitor(ctx context.Context, ttl time.Duration, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.EvictIdle(ctx, now.UTC(), ttl); err != nil && ctx.Err() == nil {
				s.log.Error("idle eviction failed", sl.Err(err))
			}
		}
	}
}

func (s *CanvasService) evictIfIdle(ctx context.Context, room *domain.Room, now time.Time, ttl time.Duration) (bool, error) {
	room.Mutex.Lock()
	defer room.Mutex.Unlock()

	if !room.IsIdle(now, ttl) {
		return false, nil
	}

	members, err := s.sessions.Members(ctx, domain.NamespaceBoard, room.ID)
	if err != nil {
		return false, err
	}
	if len(members) > 0 {
		return false, nil
	}

	if err := s.rooms.Delete(ctx, room.ID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// lockRoom returns the locked room or ok=false when the room does not
// exist, which callers treat as a silent no-op.
func (s *CanvasService) lockRoom(ctx context.Context, roomID string) (*domain.Room, bool, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			s.log.Debug("ignoring event for unknown room", slog.String("room_id", roomID))
			return nil, false, nil
		}
		return nil, false, err
	}

	room.Mutex.Lock()
	if !s.isLive(ctx, room) {
		room.Mutex.Unlock()
		s.log.Debug("ignoring event for evicted room", slog.String("room_id", roomID))
		return nil, false, nil
	}
	return room, true, nil
}

// lockLiveRoom gets or creates the room and locks it, retrying when the
// room was evicted between lookup and lock.
func (s *CanvasService) lockLiveRoom(ctx context.Context, roomID string) (*domain.Room, bool, error) {
	for {
		room, created, err := s.rooms.GetOrCreate(ctx, roomID)
		if err != nil {
			return nil, false, err
		}

		room.Mutex.Lock()
		if s.isLive(ctx, room) {
			return room, created, nil
		}
		room.Mutex.Unlock()

		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
	}
}

func (s *CanvasService) isLive(ctx context.Context, room *domain.Room) bool {
	current, err := s.rooms.GetByID(ctx, room.ID)
	return err == nil && current == room
}

func (s *CanvasService) roomInfo(ctx context.Context, room *domain.Room) (*RoomInfo, error) {
	board, err := s.sessions.Members(ctx, domain.NamespaceBoard, room.ID)
	if err != nil {
		return nil, err
	}
	video, err := s.sessions.Members(ctx, domain.NamespaceVideo, room.ID)
	if err != nil {
		return nil, err
	}

	room.Mutex.Lock()
	defer room.Mutex.Unlock()

	return &RoomInfo{
		ID:            room.ID,
		Objects:       room.ObjectCount(),
		Locked:        room.Locked(),
		HasBackground: room.Background() != nil,
		BoardMembers:  len(board),
		VideoMembers:  len(video),
		CreatedAt:     room.CreatedAt,
		LastActive:    room.LastActive(),
	}, nil
}
