package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/immxrtalbeast/classboard/internal/domain"
	"github.com/immxrtalbeast/classboard/internal/repository"
	"github.com/immxrtalbeast/classboard/lib/logger/sl"
)

// SessionService owns the connect/disconnect lifecycle of client sessions.
type SessionService struct {
	sessions repository.SessionRepository
	signals  *SignalService
	log      *slog.Logger
	buffer   int
}

func NewSessionService(sessions repository.SessionRepository, signals *SignalService, buffer int, log *slog.Logger) *SessionService {
	if log == nil {
		log = slog.Default()
	}
	return &SessionService{
		sessions: sessions,
		signals:  signals,
		log:      log,
		buffer:   buffer,
	}
}

func (s *SessionService) Connect(ctx context.Context) (*domain.Session, error) {
	session := domain.NewSession(s.buffer)
	if err := s.sessions.Add(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("session connected", slog.String("session_id", session.ID))
	return session, nil
}

// Disconnect performs the implicit video leave, drops the session from
// every group and closes its queue. Calling it twice is harmless.
func (s *SessionService) Disconnect(ctx context.Context, session *domain.Session) error {
	const op = "service.session.disconnect"
	log := s.log.With(slog.String("op", op), slog.String("session_id", session.ID))

	if video, ok := session.Video(); ok {
		if err := s.signals.LeaveVideoRoom(ctx, session, video.RoomID, video.PeerID); err != nil {
			log.Error("failed to leave video room", sl.Err(err))
		}
	}

	err := s.sessions.Remove(ctx, session.ID)
	session.Close()

	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		log.Error("failed to remove session", sl.Err(err))
		return err
	}

	log.Info("session disconnected", slog.String("room_id", session.RoomID()))
	return nil
}
