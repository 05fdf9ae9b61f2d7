package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/immxrtalbeast/classboard/internal/domain"
	"github.com/immxrtalbeast/classboard/internal/service"
	"github.com/immxrtalbeast/classboard/lib/logger/sl"
)

var ErrUnknownEvent = errors.New("unknown event")

type handlerFunc func(ctx context.Context, session *domain.Session, data json.RawMessage) error

// Dispatcher routes inbound websocket events to the canvas and signal services.
type Dispatcher struct {
	canvas   service.CanvasInteractor
	signals  service.SignalInteractor
	log      *slog.Logger
	handlers map[string]handlerFunc
}

func NewDispatcher(canvas service.CanvasInteractor, signals service.SignalInteractor, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{canvas: canvas, signals: signals, log: log}
	d.handlers = map[string]handlerFunc{
		domain.EventJoinRoom:         d.joinRoom,
		domain.EventDrawingData:      d.drawingData,
		domain.EventRemoveObject:     d.removeObject,
		domain.EventClearRoom:        d.clearRoom,
		domain.EventSetLock:          d.setLock,
		domain.EventSetBackground:    d.setBackground,
		domain.EventJoinVideoRoom:    d.joinVideoRoom,
		domain.EventLeaveVideoRoom:   d.leaveVideoRoom,
		domain.EventSendOffer:        d.signal(domain.SignalOffer),
		domain.EventSendAnswer:       d.signal(domain.SignalAnswer),
		domain.EventSendICECandidate: d.signal(domain.SignalICECandidate),
		domain.EventVideoToggle:      d.videoToggle,
	}
	return d
}

// Dispatch handles one inbound frame. Errors are logged and never reach
// the client.
func (d *Dispatcher) Dispatch(ctx context.Context, session *domain.Session, event domain.Event) error {
	log := d.log.With(
		slog.String("event", event.Name),
		slog.String("session_id", session.ID),
	)

	handler, ok := d.handlers[event.Name]
	if !ok {
		log.Debug("ignoring unknown event")
		return ErrUnknownEvent
	}

	if err := handler(ctx, session, event.Data); err != nil {
		log.Debug("event dropped", sl.Err(err))
		return err
	}
	return nil
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type drawingPayload struct {
	RoomID string          `json:"roomId"`
	Object json.RawMessage `json:"object"`
}

type removePayload struct {
	RoomID string          `json:"roomId"`
	ID     json.RawMessage `json:"id"`
}

type lockPayload struct {
	RoomID string `json:"roomId"`
	Locked bool   `json:"locked"`
}

type backgroundPayload struct {
	RoomID     string          `json:"roomId"`
	Background json.RawMessage `json:"background"`
}

type videoRoomPayload struct {
	RoomID string `json:"roomId"`
	PeerID string `json:"peerId"`
	Role   string `json:"role"`
}

type signalPayload struct {
	ToPeerID  string          `json:"toPeerId"`
	Payload   json.RawMessage `json:"payload"`
	Offer     json.RawMessage `json:"offer"`
	Answer    json.RawMessage `json:"answer"`
	Candidate json.RawMessage `json:"candidate"`
}

// body returns the relayed value, accepting both the generic "payload"
// field and the field named after the signal kind.
func (p signalPayload) body(kind domain.SignalKind) json.RawMessage {
	if len(p.Payload) > 0 {
		return p.Payload
	}
	switch kind {
	case domain.SignalOffer:
		return p.Offer
	case domain.SignalAnswer:
		return p.Answer
	case domain.SignalICECandidate:
		return p.Candidate
	}
	return nil
}

type videoTogglePayload struct {
	RoomID  string          `json:"roomId"`
	UserID  string          `json:"userId"`
	Kind    string          `json:"kind"`
	Enabled json.RawMessage `json:"enabled"`
}

// decodeRoomID accepts a bare room id or {"roomId": ...}.
func decodeRoomID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id, nil
	}

	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", err
	}
	return p.RoomID, nil
}

func (d *Dispatcher) joinRoom(ctx context.Context, session *domain.Session, data json.RawMessage) error {
	roomID, err := decodeRoomID(data)
	if err != nil {
		return err
	}
	_, err = d.canvas.Join(ctx, session, roomID)
	return err
}

func (d *Dispatcher) drawingData(ctx context.Context, session *domain.Session, data json.RawMessage) error {
	var p drawingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if len(p.Object) == 0 {
		p.Object = json.RawMessage("null")
	}
	return d.canvas.ApplyDelta(ctx, session, p.RoomID, p.Object)
}

func (d *Dispatcher) removeObject(ctx context.Context, session *domain.Session, data json.RawMessage) error {
	var p removePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return d.canvas.RemoveObject(ctx, session, p.RoomID, p.ID)
}

func (d *Dispatcher) clearRoom(ctx context.Context, session *domain.Session, data json.RawMessage) error {
	roomID, err := decodeRoomID(data)
	if err != nil {
		return err
	}
	return d.canvas.Clear(ctx, session, roomID)
}

func (d *Dispatcher) setLock(ctx context.Context, session *domain.Session, data json.RawMessage) error {
	var p lockPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return d.canvas.SetLock(ctx, session, p.RoomID, p.Locked)
}

func (d *Dispatcher) setBackground(ctx context.Context, session *domain.Session, data json.RawMessage) error {
	var p backgroundPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return d.canvas.SetBackground(ctx, session, p.RoomID, p.Background)
}

func (d *Dispatcher) joinVideoRoom(ctx context.Context, session *domain.Session, data json.RawMessage) error {
	var p videoRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return d.signals.JoinVideoRoom(ctx, session, p.RoomID, p.PeerID, p.Role)
}

func (d *Dispatcher) leaveVideoRoom(ctx context.Context, session *domain.Session, data json.RawMessage) error {
	var p videoRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return d.signals.LeaveVideoRoom(ctx, session, p.RoomID, p.PeerID)
}

func (d *Dispatcher) signal(kind domain.SignalKind) handlerFunc {
	return func(ctx context.Context, session *domain.Session, data json.RawMessage) error {
		var p signalPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}

		body := p.body(kind)
		switch kind {
		case domain.SignalOffer:
			return d.signals.SendOffer(ctx, session, p.ToPeerID, body)
		case domain.SignalAnswer:
			return d.signals.SendAnswer(ctx, session, p.ToPeerID, body)
		default:
			return d.signals.SendICECandidate(ctx, session, p.ToPeerID, body)
		}
	}
}

func (d *Dispatcher) videoToggle(ctx context.Context, session *domain.Session, data json.RawMessage) error {
	var p videoTogglePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return d.signals.VideoToggle(ctx, session, p.RoomID, p.UserID, p.Kind, p.Enabled)
}
