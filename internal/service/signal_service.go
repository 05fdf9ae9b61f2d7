package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/immxrtalbeast/classboard/internal/domain"
	"github.com/immxrtalbeast/classboard/internal/repository"
	"github.com/immxrtalbeast/classboard/lib/logger/sl"
)

// SignalService relays WebRTC negotiation between sessions and tracks video
// room presence. It never inspects the relayed payloads.
type SignalService struct {
	sessions repository.SessionRepository
	log      *slog.Logger
	out      fanout

	// presence serializes join/leave so members see them in order.
	presence sync.Mutex
}

func NewSignalService(sessions repository.SessionRepository, log *slog.Logger) *SignalService {
	if log == nil {
		log = slog.Default()
	}
	return &SignalService{
		sessions: sessions,
		log:      log,
		out:      fanout{sessions: sessions, log: log},
	}
}

func (s *SignalService) SendOffer(ctx context.Context, from *domain.Session, toPeerID string, offer json.RawMessage) error {
	return s.relay(ctx, from, domain.SignalOffer, toPeerID, offer)
}

func (s *SignalService) SendAnswer(ctx context.Context, from *domain.Session, toPeerID string, answer json.RawMessage) error {
	return s.relay(ctx, from, domain.SignalAnswer, toPeerID, answer)
}

func (s *SignalService) SendICECandidate(ctx context.Context, from *domain.Session, toPeerID string, candidate json.RawMessage) error {
	return s.relay(ctx, from, domain.SignalICECandidate, toPeerID, candidate)
}

// JoinVideoRoom announces the session to the peers already in the video
// room. The joiner is not told about them: existing peers start the offer.
func (s *SignalService) JoinVideoRoom(ctx context.Context, session *domain.Session, roomID string, peerID string, role string) error {
	const op = "service.signal.joinVideoRoom"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID),
		slog.String("session_id", session.ID),
	)

	if roomID == "" {
		return ErrEmptyRoomID
	}
	if peerID == "" {
		peerID = session.ID
	}

	s.presence.Lock()
	defer s.presence.Unlock()

	if current, ok := session.Video(); ok {
		if current.RoomID != roomID {
			if err := s.leaveLocked(ctx, session, current.RoomID, current.PeerID); err != nil {
				return err
			}
		} else if current.PeerID != peerID {
			if err := s.sessions.RemoveAlias(ctx, current.PeerID, session.ID); err != nil {
				return err
			}
		}
	}

	if err := s.sessions.Join(ctx, domain.NamespaceVideo, roomID, session); err != nil {
		log.Error("failed to join video room", sl.Err(err))
		return err
	}
	if err := s.sessions.SetAlias(ctx, peerID, session.ID); err != nil {
		log.Error("failed to register peer id", sl.Err(err))
		return err
	}
	session.SetVideo(domain.VideoMembership{RoomID: roomID, PeerID: peerID, Role: role})

	notified := 0
	if event, ok := s.out.event(domain.EventUserJoined, domain.PeerPresencePayload{PeerID: peerID, Role: role}); ok {
		notified = s.out.broadcast(ctx, domain.NamespaceVideo, roomID, event, session.ID)
	}

	log.Info("peer joined video room",
		slog.String("peer_id", peerID),
		slog.String("role", role),
		slog.Int("notified", notified),
	)
	return nil
}

// LeaveVideoRoom removes the session from the video room and tells the
// remaining peers to tear down their connection to it.
func (s *SignalService) LeaveVideoRoom(ctx context.Context, session *domain.Session, roomID string, peerID string) error {
	s.presence.Lock()
	defer s.presence.Unlock()

	return s.leaveLocked(ctx, session, roomID, peerID)
}

// VideoToggle tells the other video members about a mute change. Nothing
// is stored.
func (s *SignalService) VideoToggle(ctx context.Context, session *domain.Session, roomID string, userID string, kind string, enabled json.RawMessage) error {
	if len(enabled) == 0 {
		enabled = json.RawMessage("null")
	}

	event, ok := s.out.event(domain.EventPeerVideoToggle, domain.VideoTogglePayload{
		UserID:  userID,
		Kind:    kind,
		Enabled: enabled,
	})
	if !ok {
		return nil
	}

	s.out.broadcast(ctx, domain.NamespaceVideo, roomID, event, session.ID)
	return nil
}

func (s *SignalService) leaveLocked(ctx context.Context, session *domain.Session, roomID string, peerID string) error {
	const op = "service.signal.leaveVideoRoom"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID),
		slog.String("session_id", session.ID),
	)

	left, err := s.sessions.Leave(ctx, domain.NamespaceVideo, roomID, session.ID)
	if err != nil {
		return err
	}
	if !left {
		log.Debug("session is not in video room")
		return nil
	}

	if current, ok := session.Video(); ok && current.RoomID == roomID {
		if peerID == "" {
			peerID = current.PeerID
		}
		if err := s.sessions.RemoveAlias(ctx, current.PeerID, session.ID); err != nil {
			return err
		}
		session.ClearVideo()
	}
	if peerID == "" {
		peerID = session.ID
	}

	notified := 0
	if event, ok := s.out.event(domain.EventUserLeft, domain.PeerPresencePayload{PeerID: peerID}); ok {
		notified = s.out.broadcast(ctx, domain.NamespaceVideo, roomID, event, session.ID)
	}

	log.Info("peer left video room", slog.String("peer_id", peerID), slog.Int("notified", notified))
	return nil
}

func (s *SignalService) relay(ctx context.Context, from *domain.Session, kind domain.SignalKind, toPeerID string, payload json.RawMessage) error {
	target, err := s.sessions.Resolve(ctx, toPeerID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			s.log.Debug("dropping signal for unknown peer",
				slog.String("kind", string(kind)),
				slog.String("from", from.ID),
				slog.String("to", toPeerID),
			)
			return nil
		}
		return err
	}

	event, ok := s.out.event(kind.OutboundEvent(), domain.SignalPayload(kind, from.ID, payload))
	if !ok {
		return nil
	}

	s.out.send(target, event)
	s.log.Debug("signal relayed",
		slog.String("kind", string(kind)),
		slog.String("from", from.ID),
		slog.String("to", target.ID),
	)
	return nil
}
