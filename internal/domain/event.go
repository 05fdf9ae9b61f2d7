package domain

import "encoding/json"

// Event names carried in the "event" field of every websocket frame.
const (
	// client -> server
	EventJoinRoom         = "join-room"
	EventDrawingData      = "drawing-data"
	EventRemoveObject     = "remove-object"
	EventClearRoom        = "clear-room"
	EventSetLock          = "set-lock"
	EventSetBackground    = "set-background"
	EventJoinVideoRoom    = "join-video-room"
	EventLeaveVideoRoom   = "leave-video-room"
	EventSendOffer        = "send-offer"
	EventSendAnswer       = "send-answer"
	EventSendICECandidate = "send-ice-candidate"
	EventVideoToggle      = "video-toggle"

	// server -> client
	EventConnected           = "connected"
	EventInitCanvas          = "init-canvas"
	EventDrawToClient        = "draw-to-client"
	EventObjectRemoved       = "remove-object"
	EventClearCanvas         = "clear-canvas"
	EventAdminLockStatus     = "admin-lock-status"
	EventUpdateBackground    = "update-background"
	EventUserJoined          = "user-joined"
	EventUserLeft            = "user-left"
	EventReceiveOffer        = "receive-offer"
	EventReceiveAnswer       = "receive-answer"
	EventReceiveICECandidate = "receive-ice-candidate"
	EventPeerVideoToggle     = "peer-video-toggle"
)

// Event is the envelope exchanged with clients in both directions.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals data into an event envelope.
func NewEvent(name string, data any) (Event, error) {
	if data == nil {
		return Event{Name: name}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Data: raw}, nil
}

type ConnectedPayload struct {
	ID string `json:"id"`
}

type ObjectRemovedPayload struct {
	ID json.RawMessage `json:"id"`
}

type LockStatusPayload struct {
	Locked bool `json:"locked"`
}

type BackgroundPayload struct {
	Background json.RawMessage `json:"background"`
}

type PeerPresencePayload struct {
	PeerID string `json:"peerId"`
	Role   string `json:"role,omitempty"`
}

type VideoTogglePayload struct {
	UserID  string          `json:"userId"`
	Kind    string          `json:"kind"`
	Enabled json.RawMessage `json:"enabled"`
}

// SignalKind names one of the relayed WebRTC negotiation messages.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "candidate"
)

// OutboundEvent is the event name a relayed signal is delivered under.
func (k SignalKind) OutboundEvent() string {
	switch k {
	case SignalOffer:
		return EventReceiveOffer
	case SignalAnswer:
		return EventReceiveAnswer
	case SignalICECandidate:
		return EventReceiveICECandidate
	default:
		return ""
	}
}

// SignalPayload renders {from, <kind>: payload}.
func SignalPayload(kind SignalKind, from string, payload json.RawMessage) map[string]any {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return map[string]any{
		"from":       from,
		string(kind): payload,
	}
}
