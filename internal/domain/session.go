package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultEventBuffer = 256

// VideoMembership describes the video room a session is present in.
type VideoMembership struct {
	RoomID string
	PeerID string
	Role   string
}

// Session is one live client connection. It is the addressing unit for
// direct signaling and the owner of an outbound event queue drained by the
// transport.
type Session struct {
	ID          string
	ConnectedAt time.Time
	Events      chan Event

	mu     sync.RWMutex
	roomID string
	video  *VideoMembership
	closed bool
}

func NewSession(buffer int) *Session {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &Session{
		ID:          uuid.New().String(),
		ConnectedAt: time.Now().UTC(),
		Events:      make(chan Event, buffer),
	}
}

// EnqueueEvent queues an event without blocking. It reports false when the
// queue is full or the session is already closed.
func (s *Session) EnqueueEvent(event Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.Events <- event:
		return true
	default:
		return false
	}
}

// Close stops the outbound queue. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.Events)
}

func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) RoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

func (s *Session) SetRoomID(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
}

// Video returns the current video membership, if any.
func (s *Session) Video() (VideoMembership, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.video == nil {
		return VideoMembership{}, false
	}
	return *s.video, true
}

func (s *Session) SetVideo(m VideoMembership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video = &m
}

func (s *Session) ClearVideo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video = nil
}

// Namespace separates whiteboard membership from video presence for the
// same room id.
type Namespace string

const (
	NamespaceBoard Namespace = "board"
	NamespaceVideo Namespace = "video"
)
