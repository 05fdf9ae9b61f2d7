package domain

import (
	"encoding/json"
	"sync"
	"time"
)

// Room is the authoritative whiteboard state shared by everyone joined to
// the same room id. Callers hold Mutex across a mutation and the fan-out
// that follows it so members observe edits in the order they were applied.
type Room struct {
	Mutex      sync.Mutex
	ID         string
	CreatedAt  time.Time
	lastActive time.Time
	objects    []CanvasObject
	index      map[string]int
	locked     bool
	background json.RawMessage
}

// Snapshot is what a newcomer receives on join.
type Snapshot struct {
	Objects    []CanvasObject  `json:"objects"`
	Locked     bool            `json:"locked"`
	Background json.RawMessage `json:"background"`
}

// NewRoom returns an empty, unlocked room without background.
func NewRoom(id string) *Room {
	now := time.Now().UTC()
	return &Room{
		ID:         id,
		CreatedAt:  now,
		lastActive: now,
		objects:    make([]CanvasObject, 0),
		index:      make(map[string]int),
	}
}

// Upsert replaces the object with the same id in place or appends it.
// It reports whether the object was new.
func (r *Room) Upsert(obj CanvasObject) bool {
	r.touch()
	if pos, ok := r.index[obj.ID]; ok {
		r.objects[pos] = obj
		return false
	}
	r.index[obj.ID] = len(r.objects)
	r.objects = append(r.objects, obj)
	return true
}

// Remove deletes the object with the given id. Unknown ids are ignored.
func (r *Room) Remove(id string) bool {
	r.touch()
	pos, ok := r.index[id]
	if !ok {
		return false
	}

	r.objects = append(r.objects[:pos], r.objects[pos+1:]...)
	delete(r.index, id)
	for i := pos; i < len(r.objects); i++ {
		r.index[r.objects[i].ID] = i
	}
	return true
}

// Clear drops every object and the background.
func (r *Room) Clear() {
	r.touch()
	r.objects = make([]CanvasObject, 0)
	r.index = make(map[string]int)
	r.background = nil
}

func (r *Room) SetLocked(locked bool) {
	r.touch()
	r.locked = locked
}

func (r *Room) Locked() bool {
	return r.locked
}

// SetBackground stores an opaque background value. A JSON null clears it.
func (r *Room) SetBackground(background json.RawMessage) {
	r.touch()
	if isNull(background) {
		r.background = nil
		return
	}
	r.background = cloneRaw(background)
}

func (r *Room) Background() json.RawMessage {
	return r.background
}

func (r *Room) ObjectCount() int {
	return len(r.objects)
}

// Object returns the stored object with the given id.
func (r *Room) Object(id string) (CanvasObject, bool) {
	pos, ok := r.index[id]
	if !ok {
		return CanvasObject{}, false
	}
	return r.objects[pos], true
}

// Snapshot copies the current state. Joining never mutates the room.
func (r *Room) Snapshot() Snapshot {
	objects := make([]CanvasObject, len(r.objects))
	copy(objects, r.objects)
	return Snapshot{
		Objects:    objects,
		Locked:     r.locked,
		Background: r.background,
	}
}

func (r *Room) LastActive() time.Time {
	return r.lastActive
}

// IsIdle reports whether nothing touched the room for at least ttl.
func (r *Room) IsIdle(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(r.lastActive) >= ttl
}

func (r *Room) touch() {
	r.lastActive = time.Now().UTC()
}
