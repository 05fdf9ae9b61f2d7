package service

import (
	"context"
	"log/slog"

	"github.com/immxrtalbeast/classboard/internal/domain"
	"github.com/immxrtalbeast/classboard/internal/repository"
	"github.com/immxrtalbeast/classboard/lib/logger/sl"
)

// fanout delivers events through the session repository. Delivery is fire
// and forget: a full or closed session queue drops the event.
type fanout struct {
	sessions repository.SessionRepository
	log      *slog.Logger
}

// broadcast sends to every member of the group except exclude.
func (f fanout) broadcast(ctx context.Context, ns domain.Namespace, roomID string, event domain.Event, exclude string) int {
	members, err := f.sessions.Members(ctx, ns, roomID)
	if err != nil {
		f.log.Error("failed to list members", slog.String("room_id", roomID), sl.Err(err))
		return 0
	}

	sent := 0
	for _, member := range members {
		if member.ID == exclude {
			continue
		}
		if f.send(member, event) {
			sent++
		}
	}
	return sent
}

func (f fanout) broadcastAll(ctx context.Context, ns domain.Namespace, roomID string, event domain.Event) int {
	return f.broadcast(ctx, ns, roomID, event, "")
}

func (f fanout) send(session *domain.Session, event domain.Event) bool {
	if session.EnqueueEvent(event) {
		return true
	}
	f.log.Debug("dropping event",
		slog.String("session_id", session.ID),
		slog.String("event", event.Name),
	)
	return false
}

func (f fanout) event(name string, payload any) (domain.Event, bool) {
	event, err := domain.NewEvent(name, payload)
	if err != nil {
		f.log.Error("failed to encode event", slog.String("event", name), sl.Err(err))
		return domain.Event{}, false
	}
	return event, true
}
