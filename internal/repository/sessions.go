package repository

import (
	"context"
	"sync"

	"github.com/immxrtalbeast/classboard/internal/domain"
)

type groupKey struct {
	ns     domain.Namespace
	roomID string
}

type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	// aliases maps a peer id to the sessions holding it, oldest first.
	aliases  map[string][]string
	groups   map[groupKey]map[string]*domain.Session
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[string]*domain.Session),
		aliases:  make(map[string][]string),
		groups:   make(map[groupKey]map[string]*domain.Session),
	}
}

func (r *InMemorySessionRepository) Add(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return ErrSessionExists
	}

	r.sessions[session.ID] = session
	return nil
}

// Remove forgets the session together with every group membership and
// alias that still points at it.
func (r *InMemorySessionRepository) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)

	for key, members := range r.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(r.groups, key)
		}
	}
	for alias := range r.aliases {
		r.dropHolderLocked(alias, id)
	}

	return nil
}

func (r *InMemorySessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Resolve finds a session by its id or by a peer id registered through
// SetAlias. When several sessions hold the peer id the latest registration
// wins.
func (r *InMemorySessionRepository) Resolve(ctx context.Context, peerID string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if session, ok := r.sessions[peerID]; ok {
		return session, nil
	}
	holders := r.aliases[peerID]
	for i := len(holders) - 1; i >= 0; i-- {
		if session, ok := r.sessions[holders[i]]; ok {
			return session, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (r *InMemorySessionRepository) SetAlias(ctx context.Context, peerID string, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if peerID == "" || peerID == sessionID {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	r.dropHolderLocked(peerID, sessionID)
	r.aliases[peerID] = append(r.aliases[peerID], sessionID)
	return nil
}

// RemoveAlias releases sessionID's hold on the peer id. Other sessions
// registered under the same peer id stay reachable by it.
func (r *InMemorySessionRepository) RemoveAlias(ctx context.Context, peerID string, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.dropHolderLocked(peerID, sessionID)
	return nil
}

func (r *InMemorySessionRepository) dropHolderLocked(peerID string, sessionID string) {
	holders := r.aliases[peerID]
	for i, id := range holders {
		if id == sessionID {
			holders = append(holders[:i], holders[i+1:]...)
			break
		}
	}
	if len(holders) == 0 {
		delete(r.aliases, peerID)
		return
	}
	r.aliases[peerID] = holders
}

func (r *InMemorySessionRepository) Join(ctx context.Context, ns domain.Namespace, roomID string, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}

	key := groupKey{ns: ns, roomID: roomID}
	members, ok := r.groups[key]
	if !ok {
		members = make(map[string]*domain.Session)
		r.groups[key] = members
	}
	members[session.ID] = session
	return nil
}

// Leave reports whether the session was a member of the group.
func (r *InMemorySessionRepository) Leave(ctx context.Context, ns domain.Namespace, roomID string, sessionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := groupKey{ns: ns, roomID: roomID}
	members, ok := r.groups[key]
	if !ok {
		return false, nil
	}
	if _, ok := members[sessionID]; !ok {
		return false, nil
	}

	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.groups, key)
	}
	return true, nil
}

func (r *InMemorySessionRepository) Members(ctx context.Context, ns domain.Namespace, roomID string) ([]*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.groups[groupKey{ns: ns, roomID: roomID}]
	result := make([]*domain.Session, 0, len(members))
	for _, session := range members {
		result = append(result, session)
	}
	return result, nil
}
