package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/immxrtalbeast/classboard/internal/domain"
	"github.com/immxrtalbeast/classboard/internal/repository"
	"github.com/stretchr/testify/require"
)

type harness struct {
	rooms     *repository.InMemoryRoomRepository
	sessions  *repository.InMemorySessionRepository
	canvas    *CanvasService
	signals   *SignalService
	lifecycle *SessionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rooms := repository.NewInMemoryRoomRepository()
	sessions := repository.NewInMemorySessionRepository()
	signals := NewSignalService(sessions, log)
	return &harness{
		rooms:     rooms,
		sessions:  sessions,
		canvas:    NewCanvasService(rooms, sessions, log),
		signals:   signals,
		lifecycle: NewSessionService(sessions, signals, 64, log),
	}
}

func (h *harness) connect(t *testing.T) *domain.Session {
	t.Helper()
	s, err := h.lifecycle.Connect(context.Background())
	require.NoError(t, err)
	return s
}

func drain(s *domain.Session) []domain.Event {
	var out []domain.Event
	for {
		select {
		case ev, ok := <-s.Events:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func names(events []domain.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Name)
	}
	return out
}

func raw(v string) json.RawMessage {
	return json.RawMessage(v)
}
